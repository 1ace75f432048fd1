package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/classroom-backend/internal/model"
)

// StudentRepository persists students.
type StudentRepository interface {
	Repository[model.Student]
	// ListByClass returns the students enrolled in a class.
	ListByClass(ctx context.Context, classID int) ([]model.Student, error)
}

type studentRepository struct {
	db DBTX
}

// List queries leave out the picture bytes.
const (
	studentColumns     = `id, first_name, last_name, address, dob, nic, contact, profile_pic`
	studentListColumns = `id, first_name, last_name, address, dob, nic, contact, NULL::bytea`
)

func scanStudent(row pgx.CollectableRow) (model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Address, &s.DateOfBirth, &s.NIC, &s.Contact, &s.ProfilePic)
	return s, err
}

func (r *studentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	rows, err := r.db.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanStudent)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *studentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.db.Query(ctx, `SELECT `+studentListColumns+` FROM students ORDER BY id`)
	return collect(rows, err, scanStudent)
}

func (r *studentRepository) ListByClass(ctx context.Context, classID int) ([]model.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.first_name, s.last_name, s.address, s.dob, s.nic, s.contact, NULL::bytea
		 FROM students s JOIN class_students cs ON cs.student_id = s.id
		 WHERE cs.class_id = $1 ORDER BY s.id`, classID)
	return collect(rows, err, scanStudent)
}

func (r *studentRepository) Save(ctx context.Context, s *model.Student) error {
	if s.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO students (first_name, last_name, address, dob, nic, contact, profile_pic)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			s.FirstName, s.LastName, s.Address, s.DateOfBirth, s.NIC, s.Contact, s.ProfilePic,
		).Scan(&s.ID)
		return translate(err)
	}
	return execOne(ctx, r.db,
		`UPDATE students SET first_name = $1, last_name = $2, address = $3, dob = $4, nic = $5,
		 contact = $6, profile_pic = $7 WHERE id = $8`,
		s.FirstName, s.LastName, s.Address, s.DateOfBirth, s.NIC, s.Contact, s.ProfilePic, s.ID,
	)
}

func (r *studentRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM students WHERE id = $1`, id)
}
