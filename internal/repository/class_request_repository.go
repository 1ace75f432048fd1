package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/classroom-backend/internal/model"
)

// ClassRequestRepository persists enrollment requests.
type ClassRequestRepository interface {
	Repository[model.ClassRequest]
	ListByStudent(ctx context.Context, studentID int) ([]model.ClassRequest, error)
	ListByClass(ctx context.Context, classID int) ([]model.ClassRequest, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.ClassRequest, error)
	ListByStudentAndClass(ctx context.Context, studentID, classID int) ([]model.ClassRequest, error)
	// HasPending reports whether a PENDING request exists for the pair.
	HasPending(ctx context.Context, studentID, classID int) (bool, error)
	// Resolve writes the status, response date and notes of a request that is
	// still PENDING. It returns ErrStale when the request was already resolved.
	Resolve(ctx context.Context, req *model.ClassRequest) error
}

type classRequestRepository struct {
	db DBTX
}

const classRequestColumns = `id, student_id, class_id, request_date, status, response_date, response_notes`

func scanClassRequest(row pgx.CollectableRow) (model.ClassRequest, error) {
	var cr model.ClassRequest
	err := row.Scan(&cr.ID, &cr.StudentID, &cr.ClassID, &cr.RequestDate, &cr.Status, &cr.ResponseDate, &cr.ResponseNotes)
	return cr, err
}

func (r *classRequestRepository) GetByID(ctx context.Context, id int) (*model.ClassRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+classRequestColumns+` FROM class_requests WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	cr, err := pgx.CollectExactlyOneRow(rows, scanClassRequest)
	if err != nil {
		return nil, translate(err)
	}
	return &cr, nil
}

func (r *classRequestRepository) List(ctx context.Context) ([]model.ClassRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+classRequestColumns+` FROM class_requests ORDER BY id`)
	return collect(rows, err, scanClassRequest)
}

func (r *classRequestRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ClassRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classRequestColumns+` FROM class_requests WHERE student_id = $1 ORDER BY id`, studentID)
	return collect(rows, err, scanClassRequest)
}

func (r *classRequestRepository) ListByClass(ctx context.Context, classID int) ([]model.ClassRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classRequestColumns+` FROM class_requests WHERE class_id = $1 ORDER BY id`, classID)
	return collect(rows, err, scanClassRequest)
}

func (r *classRequestRepository) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.ClassRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classRequestColumns+` FROM class_requests WHERE status = $1 ORDER BY id`, status)
	return collect(rows, err, scanClassRequest)
}

func (r *classRequestRepository) ListByStudentAndClass(ctx context.Context, studentID, classID int) ([]model.ClassRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classRequestColumns+` FROM class_requests
		 WHERE student_id = $1 AND class_id = $2 ORDER BY id`, studentID, classID)
	return collect(rows, err, scanClassRequest)
}

func (r *classRequestRepository) HasPending(ctx context.Context, studentID, classID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM class_requests
		   WHERE student_id = $1 AND class_id = $2 AND status = 'PENDING'
		 )`, studentID, classID,
	).Scan(&exists)
	return exists, translate(err)
}

func (r *classRequestRepository) Save(ctx context.Context, cr *model.ClassRequest) error {
	if cr.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO class_requests (student_id, class_id, request_date, status, response_date, response_notes)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			cr.StudentID, cr.ClassID, cr.RequestDate, cr.Status, cr.ResponseDate, cr.ResponseNotes,
		).Scan(&cr.ID)
		return translate(err)
	}
	return execOne(ctx, r.db,
		`UPDATE class_requests SET student_id = $1, class_id = $2, request_date = $3, status = $4,
		 response_date = $5, response_notes = $6 WHERE id = $7`,
		cr.StudentID, cr.ClassID, cr.RequestDate, cr.Status, cr.ResponseDate, cr.ResponseNotes, cr.ID,
	)
}

func (r *classRequestRepository) Resolve(ctx context.Context, cr *model.ClassRequest) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE class_requests SET status = $1, response_date = $2, response_notes = $3
		 WHERE id = $4 AND status = 'PENDING'`,
		cr.Status, cr.ResponseDate, cr.ResponseNotes, cr.ID,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (r *classRequestRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM class_requests WHERE id = $1`, id)
}
