package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries groups every entity repository bound to one connection or transaction.
type Queries struct {
	Students    StudentRepository
	Classes     ClassRepository
	Users       UserRepository
	Requests    ClassRequestRepository
	Attendance  AttendanceRepository
	Enrollments EnrollmentRepository
}

// Store hands out repositories and runs units of work atomically.
// WithTx commits iff fn returns nil.
type Store interface {
	Queries() *Queries
	WithTx(ctx context.Context, fn func(q *Queries) error) error
}

// NewQueries binds the PostgreSQL repositories to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{
		Students:    &studentRepository{db: db},
		Classes:     &classRepository{db: db},
		Users:       &userRepository{db: db},
		Requests:    &classRequestRepository{db: db},
		Attendance:  &attendanceRepository{db: db},
		Enrollments: &enrollmentRepository{db: db},
	}
}

// PostgresStore is the pgxpool-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    *Queries
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: NewQueries(pool)}
}

func (s *PostgresStore) Queries() *Queries {
	return s.q
}

// WithTx runs fn inside a READ COMMITTED transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewQueries(tx))
	})
}
