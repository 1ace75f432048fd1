// Package memory is an in-process repository.Store used by tests and the
// local demo server. It enforces the same keys and references as the
// PostgreSQL schema.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

type membership struct {
	classID   int
	studentID int
}

type table[T any] map[int]T

// rows returns the rows accepted by keep, ordered by id.
func (t table[T]) rows(keep func(T) bool) []T {
	ids := make([]int, 0, len(t))
	for id, row := range t {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t[id])
	}
	return out
}

type state struct {
	seq        int
	students   table[model.Student]
	classes    table[model.Class]
	users      table[model.User]
	requests   table[model.ClassRequest]
	attendance table[model.Attendance]
	members    map[membership]struct{}
}

func newState() *state {
	return &state{
		students:   table[model.Student]{},
		classes:    table[model.Class]{},
		users:      table[model.User]{},
		requests:   table[model.ClassRequest]{},
		attendance: table[model.Attendance]{},
		members:    map[membership]struct{}{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:        s.seq,
		students:   maps.Clone(s.students),
		classes:    maps.Clone(s.classes),
		users:      maps.Clone(s.users),
		requests:   maps.Clone(s.requests),
		attendance: maps.Clone(s.attendance),
		members:    maps.Clone(s.members),
	}
}

func (s *state) nextID() int {
	s.seq++
	return s.seq
}

// Store implements repository.Store in memory. Transactions are serialised
// and run against a copy of the state that replaces the live one on success.
type Store struct {
	mu sync.Mutex
	st *state
	q  *repository.Queries
}

var _ repository.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	s := &Store{st: newState()}
	s.q = newQueries(&db{store: s})
	return s
}

func (s *Store) Queries() *repository.Queries {
	return s.q
}

func (s *Store) WithTx(ctx context.Context, fn func(q *repository.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(newQueries(&db{tx: tx})); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// db gives repositories access to either the live state, under the store
// lock, or a transaction's private copy.
type db struct {
	store *Store
	tx    *state
}

func (d *db) with(fn func(st *state) error) error {
	if d.tx != nil {
		return fn(d.tx)
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	return fn(d.store.st)
}

func newQueries(d *db) *repository.Queries {
	return &repository.Queries{
		Students:    &studentRepo{d},
		Classes:     &classRepo{d},
		Users:       &userRepo{d},
		Requests:    &requestRepo{d},
		Attendance:  &attendanceRepo{d},
		Enrollments: &enrollmentRepo{d},
	}
}

// get copies a row out of t or reports ErrNotFound.
func get[T any](t table[T], id int) (*T, error) {
	row, ok := t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}
