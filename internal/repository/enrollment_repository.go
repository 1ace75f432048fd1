package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// EnrollmentRepository maintains the class_students membership relation.
type EnrollmentRepository interface {
	// Add enrols a student; adding an existing member is a no-op.
	Add(ctx context.Context, classID, studentID int) error
	// Remove drops a membership; removing a non-member is a no-op.
	Remove(ctx context.Context, classID, studentID int) error
	IsEnrolled(ctx context.Context, classID, studentID int) (bool, error)
	ListClassIDsByStudent(ctx context.Context, studentID int) ([]int, error)
	ListStudentIDsByClass(ctx context.Context, classID int) ([]int, error)
}

type enrollmentRepository struct {
	db DBTX
}

func (r *enrollmentRepository) Add(ctx context.Context, classID, studentID int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2)
		 ON CONFLICT (class_id, student_id) DO NOTHING`, classID, studentID)
	return translate(err)
}

func (r *enrollmentRepository) Remove(ctx context.Context, classID, studentID int) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM class_students WHERE class_id = $1 AND student_id = $2`, classID, studentID)
	return translate(err)
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2)`,
		classID, studentID,
	).Scan(&exists)
	return exists, translate(err)
}

func (r *enrollmentRepository) ListClassIDsByStudent(ctx context.Context, studentID int) ([]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT class_id FROM class_students WHERE student_id = $1 ORDER BY class_id`, studentID)
	return collect(rows, err, pgx.RowTo[int])
}

func (r *enrollmentRepository) ListStudentIDsByClass(ctx context.Context, classID int) ([]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY student_id`, classID)
	return collect(rows, err, pgx.RowTo[int])
}
