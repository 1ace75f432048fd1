package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// ClassService handles class business logic and class membership.
type ClassService struct {
	store repository.Store
}

// NewClassService creates a new ClassService.
func NewClassService(store repository.Store) *ClassService {
	return &ClassService{store: store}
}

// List retrieves all classes.
func (s *ClassService) List(ctx context.Context) ([]model.Class, error) {
	return s.store.Queries().Classes.List(ctx)
}

// GetByID retrieves a class together with its enrolled student ids.
func (s *ClassService) GetByID(ctx context.Context, id int) (*model.ClassDetail, error) {
	q := s.store.Queries()
	c, err := q.Classes.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("class", id, err)
	}
	studentIDs, err := q.Enrollments.ListStudentIDsByClass(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return &model.ClassDetail{Class: *c, StudentIDs: studentIDs}, nil
}

// Create inserts a new class.
func (s *ClassService) Create(ctx context.Context, c *model.Class) error {
	if err := validateClassDates(c); err != nil {
		return err
	}
	c.ID = 0
	return writeErr(s.store.Queries().Classes.Save(ctx, c))
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id int, c *model.Class) error {
	if err := validateClassDates(c); err != nil {
		return err
	}
	c.ID = id
	err := s.store.Queries().Classes.Save(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		return lookup("class", id, err)
	}
	return writeErr(err)
}

// Delete removes a class. Memberships go with it; requests and attendance block it.
func (s *ClassService) Delete(ctx context.Context, id int) error {
	err := s.store.Queries().Classes.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return lookup("class", id, err)
	}
	return writeErr(err)
}

// ListByStudent retrieves the classes a student is enrolled in.
func (s *ClassService) ListByStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	q := s.store.Queries()
	if _, err := q.Students.GetByID(ctx, studentID); err != nil {
		return nil, lookup("student", studentID, err)
	}
	return q.Classes.ListByStudent(ctx, studentID)
}

// ListAvailableForStudent retrieves the classes a student could still join.
func (s *ClassService) ListAvailableForStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	q := s.store.Queries()
	if _, err := q.Students.GetByID(ctx, studentID); err != nil {
		return nil, lookup("student", studentID, err)
	}
	return q.Classes.ListNotEnrolled(ctx, studentID)
}

// ListStudents retrieves the students enrolled in a class.
func (s *ClassService) ListStudents(ctx context.Context, classID int) ([]model.Student, error) {
	q := s.store.Queries()
	if _, err := q.Classes.GetByID(ctx, classID); err != nil {
		return nil, lookup("class", classID, err)
	}
	return q.Students.ListByClass(ctx, classID)
}

// AddStudent enrolls a student directly. Already enrolled is a no-op.
func (s *ClassService) AddStudent(ctx context.Context, classID, studentID int) error {
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := checkMembershipRefs(ctx, q, classID, studentID); err != nil {
			return err
		}
		return writeErr(q.Enrollments.Add(ctx, classID, studentID))
	})
}

// RemoveStudent withdraws a student from a class. Not enrolled is a no-op.
func (s *ClassService) RemoveStudent(ctx context.Context, classID, studentID int) error {
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := checkMembershipRefs(ctx, q, classID, studentID); err != nil {
			return err
		}
		return q.Enrollments.Remove(ctx, classID, studentID)
	})
}

func checkMembershipRefs(ctx context.Context, q *repository.Queries, classID, studentID int) error {
	if _, err := q.Classes.GetByID(ctx, classID); err != nil {
		return lookup("class", classID, err)
	}
	if _, err := q.Students.GetByID(ctx, studentID); err != nil {
		return lookup("student", studentID, err)
	}
	return nil
}

func validateClassDates(c *model.Class) error {
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("%w: start_date must not be after end_date", ErrInvalidInput)
	}
	return nil
}
