// Package seed loads demo accounts, students and classes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/service"
)

// Demo credentials. Change them before exposing a seeded instance.
const (
	AdminUsername   = "admin"
	AdminPassword   = "admin123"
	StudentPassword = "student123"
)

type demoStudent struct {
	username, first, last, address, nic, contact string
}

type demoClass struct {
	name, description, schedule string
}

var demoStudents = []demoStudent{
	{"STU001", "John", "Doe", "123 Student Lane", "997654321V", "0771234567"},
	{"STU002", "Jane", "Smith", "456 College Road", "986543219V", "0772345678"},
	{"STU003", "Robert", "Johnson", "789 University Ave", "975432198V", "0773456789"},
}

var demoClasses = []demoClass{
	{"Web Development", "HTML, CSS, JavaScript fundamentals", "Mon, Wed 10:00-12:00"},
	{"Java Programming", "Core Java and object-oriented principles", "Tue, Thu 14:00-16:00"},
	{"Database Design", "SQL and database principles", "Fri 09:00-13:00"},
	{"Mobile App Development", "Android and iOS development", "Mon, Wed 14:00-16:00"},
}

// Seeder inserts demo data. Running it again skips what already exists.
type Seeder struct {
	store    repository.Store
	users    *service.UserService
	students *service.StudentService
	classes  *service.ClassService
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a new Seeder.
func New(store repository.Store, bcryptCost int, log zerolog.Logger) *Seeder {
	return &Seeder{
		store:    store,
		users:    service.NewUserService(store, bcryptCost),
		students: service.NewStudentService(store, 0),
		classes:  service.NewClassService(store),
		log:      log.With().Str("component", "seed").Logger(),
		now:      time.Now,
	}
}

// Run seeds the admin account, the demo students with their logins and the demo classes.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.admin(ctx); err != nil {
		return err
	}
	for _, d := range demoStudents {
		if err := s.student(ctx, d); err != nil {
			return err
		}
	}
	return s.classList(ctx)
}

func (s *Seeder) exists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.Queries().Users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	}
	return false, fmt.Errorf("look up %s: %w", username, err)
}

func (s *Seeder) admin(ctx context.Context) error {
	found, err := s.exists(ctx, AdminUsername)
	if err != nil || found {
		return err
	}
	if _, err := s.users.Create(ctx, model.CreateUserRequest{
		Username: AdminUsername,
		Password: AdminPassword,
		Role:     model.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info().Str("username", AdminUsername).Msg("Seeded admin")
	return nil
}

func (s *Seeder) student(ctx context.Context, d demoStudent) error {
	found, err := s.exists(ctx, d.username)
	if err != nil || found {
		return err
	}

	dob := model.DateOf(s.now().AddDate(-20, 0, 0))
	st := model.NewStudent(d.first, d.last, d.address, &dob, d.nic, d.contact)

	// Student and login go in together so a failed login leaves no orphan.
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := q.Students.Save(ctx, st); err != nil {
			return fmt.Errorf("create student %s: %w", d.username, err)
		}
		hash, err := s.users.HashPassword(StudentPassword)
		if err != nil {
			return err
		}
		user := &model.User{Username: d.username, PasswordHash: hash, Role: model.RoleStudent, StudentID: &st.ID}
		if err := q.Users.Save(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", d.username, err)
		}
		s.log.Info().Str("username", d.username).Int("student_id", st.ID).Msg("Seeded student")
		return nil
	})
}

func (s *Seeder) classList(ctx context.Context) error {
	existing, err := s.classes.List(ctx)
	if err != nil {
		return fmt.Errorf("list classes: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, c := range existing {
		names[c.Name] = true
	}

	now := s.now()
	start := model.DateOf(now.AddDate(0, 0, -30))
	end := model.DateOf(now.AddDate(0, 0, 90))
	for _, d := range demoClasses {
		if names[d.name] {
			continue
		}
		c := model.NewClass(d.name, d.description, d.schedule, &start, &end)
		if err := s.classes.Create(ctx, c); err != nil {
			return fmt.Errorf("create class %q: %w", d.name, err)
		}
		s.log.Info().Str("class", d.name).Int("class_id", c.ID).Msg("Seeded class")
	}
	return nil
}
