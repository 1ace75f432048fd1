package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/classroom-backend/internal/model"
)

// AttendanceRepository persists per-session attendance records.
type AttendanceRepository interface {
	Repository[model.Attendance]
	ListByStudent(ctx context.Context, studentID int) ([]model.Attendance, error)
	ListByClass(ctx context.Context, classID int) ([]model.Attendance, error)
	ListByStudentAndClass(ctx context.Context, studentID, classID int) ([]model.Attendance, error)
	ListByDate(ctx context.Context, date model.Date) ([]model.Attendance, error)
	ListByClassAndDate(ctx context.Context, classID int, date model.Date) ([]model.Attendance, error)
	// ListByClassBetween returns a class's records with from <= date <= to.
	ListByClassBetween(ctx context.Context, classID int, from, to model.Date) ([]model.Attendance, error)
	// DeleteByClassAndDate removes a whole session and returns how many records went.
	DeleteByClassAndDate(ctx context.Context, classID int, date model.Date) (int64, error)
	CountPresent(ctx context.Context, studentID, classID int) (int, error)
	CountTotal(ctx context.Context, studentID, classID int) (int, error)
}

type attendanceRepository struct {
	db DBTX
}

const attendanceColumns = `id, student_id, class_id, date, present, notes`

func scanAttendance(row pgx.CollectableRow) (model.Attendance, error) {
	var a model.Attendance
	err := row.Scan(&a.ID, &a.StudentID, &a.ClassID, &a.Date, &a.Present, &a.Notes)
	return a, err
}

func (r *attendanceRepository) GetByID(ctx context.Context, id int) (*model.Attendance, error) {
	rows, err := r.db.Query(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAttendance)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *attendanceRepository) where(ctx context.Context, cond string, args ...any) ([]model.Attendance, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE `+cond+` ORDER BY date, student_id, id`, args...)
	return collect(rows, err, scanAttendance)
}

func (r *attendanceRepository) List(ctx context.Context) ([]model.Attendance, error) {
	return r.where(ctx, "TRUE")
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attendance, error) {
	return r.where(ctx, "student_id = $1", studentID)
}

func (r *attendanceRepository) ListByClass(ctx context.Context, classID int) ([]model.Attendance, error) {
	return r.where(ctx, "class_id = $1", classID)
}

func (r *attendanceRepository) ListByStudentAndClass(ctx context.Context, studentID, classID int) ([]model.Attendance, error) {
	return r.where(ctx, "student_id = $1 AND class_id = $2", studentID, classID)
}

func (r *attendanceRepository) ListByDate(ctx context.Context, date model.Date) ([]model.Attendance, error) {
	return r.where(ctx, "date = $1", date)
}

func (r *attendanceRepository) ListByClassAndDate(ctx context.Context, classID int, date model.Date) ([]model.Attendance, error) {
	return r.where(ctx, "class_id = $1 AND date = $2", classID, date)
}

func (r *attendanceRepository) ListByClassBetween(ctx context.Context, classID int, from, to model.Date) ([]model.Attendance, error) {
	return r.where(ctx, "class_id = $1 AND date BETWEEN $2 AND $3", classID, from, to)
}

func (r *attendanceRepository) DeleteByClassAndDate(ctx context.Context, classID int, date model.Date) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance WHERE class_id = $1 AND date = $2`, classID, date)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *attendanceRepository) count(ctx context.Context, cond string, studentID, classID int) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance WHERE student_id = $1 AND class_id = $2`+cond,
		studentID, classID,
	).Scan(&n)
	return n, translate(err)
}

func (r *attendanceRepository) CountPresent(ctx context.Context, studentID, classID int) (int, error) {
	return r.count(ctx, " AND present", studentID, classID)
}

func (r *attendanceRepository) CountTotal(ctx context.Context, studentID, classID int) (int, error) {
	return r.count(ctx, "", studentID, classID)
}

func (r *attendanceRepository) Save(ctx context.Context, a *model.Attendance) error {
	if a.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO attendance (student_id, class_id, date, present, notes)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			a.StudentID, a.ClassID, a.Date, a.Present, a.Notes,
		).Scan(&a.ID)
		return translate(err)
	}
	return execOne(ctx, r.db,
		`UPDATE attendance SET student_id = $1, class_id = $2, date = $3, present = $4, notes = $5
		 WHERE id = $6`,
		a.StudentID, a.ClassID, a.Date, a.Present, a.Notes, a.ID,
	)
}

func (r *attendanceRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM attendance WHERE id = $1`, id)
}
