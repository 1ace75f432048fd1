package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/classroom-backend/internal/model"
)

// ClassRepository persists classes.
type ClassRepository interface {
	Repository[model.Class]
	// ListByStudent returns the classes a student is enrolled in.
	ListByStudent(ctx context.Context, studentID int) ([]model.Class, error)
	// ListNotEnrolled returns the classes a student is not enrolled in.
	ListNotEnrolled(ctx context.Context, studentID int) ([]model.Class, error)
}

type classRepository struct {
	db DBTX
}

const classColumns = `id, name, description, schedule, start_date, end_date`

func scanClass(row pgx.CollectableRow) (model.Class, error) {
	var c model.Class
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Schedule, &c.StartDate, &c.EndDate)
	return c, err
}

func (r *classRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	rows, err := r.db.Query(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanClass)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *classRepository) List(ctx context.Context) ([]model.Class, error) {
	rows, err := r.db.Query(ctx, `SELECT `+classColumns+` FROM classes ORDER BY id`)
	return collect(rows, err, scanClass)
}

func (r *classRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name, c.description, c.schedule, c.start_date, c.end_date
		 FROM classes c JOIN class_students cs ON cs.class_id = c.id
		 WHERE cs.student_id = $1 ORDER BY c.id`, studentID)
	return collect(rows, err, scanClass)
}

func (r *classRepository) ListNotEnrolled(ctx context.Context, studentID int) ([]model.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classColumns+` FROM classes c
		 WHERE NOT EXISTS (
		   SELECT 1 FROM class_students cs WHERE cs.class_id = c.id AND cs.student_id = $1
		 ) ORDER BY id`, studentID)
	return collect(rows, err, scanClass)
}

func (r *classRepository) Save(ctx context.Context, c *model.Class) error {
	if c.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO classes (name, description, schedule, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			c.Name, c.Description, c.Schedule, c.StartDate, c.EndDate,
		).Scan(&c.ID)
		return translate(err)
	}
	return execOne(ctx, r.db,
		`UPDATE classes SET name = $1, description = $2, schedule = $3, start_date = $4, end_date = $5
		 WHERE id = $6`,
		c.Name, c.Description, c.Schedule, c.StartDate, c.EndDate, c.ID,
	)
}

func (r *classRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM classes WHERE id = $1`, id)
}
