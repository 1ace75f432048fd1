package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/classroom-backend/internal/model"
)

// UserRepository persists login accounts.
type UserRepository interface {
	Repository[model.User]
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByStudentID(ctx context.Context, studentID int) (*model.User, error)
}

type userRepository struct {
	db DBTX
}

const userColumns = `id, username, password_hash, role, student_id`

func scanUser(row pgx.CollectableRow) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.StudentID)
	return u, err
}

func (r *userRepository) one(ctx context.Context, where string, arg any) (*model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	if err != nil {
		return nil, translate(err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return r.one(ctx, "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.one(ctx, "username", username)
}

func (r *userRepository) GetByStudentID(ctx context.Context, studentID int) (*model.User, error) {
	return r.one(ctx, "student_id", studentID)
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	return collect(rows, err, scanUser)
}

func (r *userRepository) Save(ctx context.Context, u *model.User) error {
	if u.ID == 0 {
		err := r.db.QueryRow(ctx,
			`INSERT INTO users (username, password_hash, role, student_id)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			u.Username, u.PasswordHash, u.Role, u.StudentID,
		).Scan(&u.ID)
		return translate(err)
	}
	return execOne(ctx, r.db,
		`UPDATE users SET username = $1, password_hash = $2, role = $3, student_id = $4 WHERE id = $5`,
		u.Username, u.PasswordHash, u.Role, u.StudentID, u.ID,
	)
}

func (r *userRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM users WHERE id = $1`, id)
}
