package service

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/metrics"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// AttendanceService records class sessions and aggregates attendance percentages.
type AttendanceService struct {
	store  repository.Store
	events EventPublisher
	log    zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(store repository.Store, events EventPublisher, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		store:  store,
		events: events,
		log:    log.With().Str("component", "attendance_service").Logger(),
	}
}

// Mark replaces every record of the (class, date) session with one record per
// entry of presence. An empty map clears the session. The inserted records are
// returned ordered by student id.
func (s *AttendanceService) Mark(ctx context.Context, classID int, date model.Date, presence map[int]bool) ([]model.Attendance, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	studentIDs := slices.Sorted(maps.Keys(presence))
	records := make([]model.Attendance, 0, len(studentIDs))

	err := s.store.WithTx(ctx, func(q *repository.Queries) error {
		if _, err := q.Classes.GetByID(ctx, classID); err != nil {
			return lookup("class", classID, err)
		}
		for _, id := range studentIDs {
			if _, err := q.Students.GetByID(ctx, id); err != nil {
				return lookup("student", id, err)
			}
		}

		if _, err := q.Attendance.DeleteByClassAndDate(ctx, classID, date); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}

		for _, id := range studentIDs {
			a := model.Attendance{
				StudentID: id,
				ClassID:   classID,
				Date:      date,
				Present:   presence[id],
			}
			if err := q.Attendance.Save(ctx, &a); err != nil {
				return fmt.Errorf("insert attendance for student %d: %w", id, writeErr(err))
			}
			records = append(records, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AttendanceMarked.Add(float64(len(records)))
	s.log.Info().Int("class_id", classID).Str("date", date.String()).Int("records", len(records)).Msg("Attendance marked")
	publish(ctx, s.events, s.log, model.Event{
		Type:       model.EventAttendanceMarked,
		ClassID:    classID,
		Date:       &date,
		Count:      len(records),
		OccurredAt: time.Now(),
	})
	return records, nil
}

// PercentageByClass returns, for every class the student is currently enrolled
// in, the share of recorded sessions they attended. Classes without records
// report 0.
func (s *AttendanceService) PercentageByClass(ctx context.Context, studentID int) (map[int]float64, error) {
	q := s.store.Queries()
	if _, err := q.Students.GetByID(ctx, studentID); err != nil {
		return nil, lookup("student", studentID, err)
	}

	classIDs, err := q.Enrollments.ListClassIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	out := make(map[int]float64, len(classIDs))
	for _, classID := range classIDs {
		present, err := q.Attendance.CountPresent(ctx, studentID, classID)
		if err != nil {
			return nil, fmt.Errorf("count present: %w", err)
		}
		total, err := q.Attendance.CountTotal(ctx, studentID, classID)
		if err != nil {
			return nil, fmt.Errorf("count total: %w", err)
		}
		out[classID] = Percentage(present, total)
	}
	return out, nil
}

// Percentage returns present/total as a percentage rounded half away from zero
// to two decimals, or 0 when total is 0.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(present) / float64(total) * 100
	return math.Round(p*100) / 100
}

// GetByID retrieves a single record.
func (s *AttendanceService) GetByID(ctx context.Context, id int) (*model.Attendance, error) {
	a, err := s.store.Queries().Attendance.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("attendance", id, err)
	}
	return a, nil
}

func (s *AttendanceService) List(ctx context.Context) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.List(ctx)
}

func (s *AttendanceService) ListByStudent(ctx context.Context, studentID int) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.ListByStudent(ctx, studentID)
}

func (s *AttendanceService) ListByClass(ctx context.Context, classID int) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.ListByClass(ctx, classID)
}

func (s *AttendanceService) ListByStudentAndClass(ctx context.Context, studentID, classID int) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.ListByStudentAndClass(ctx, studentID, classID)
}

func (s *AttendanceService) ListByDate(ctx context.Context, date model.Date) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.ListByDate(ctx, date)
}

func (s *AttendanceService) ListByClassAndDate(ctx context.Context, classID int, date model.Date) ([]model.Attendance, error) {
	return s.store.Queries().Attendance.ListByClassAndDate(ctx, classID, date)
}

// Create inserts a single record. A second record for the same student,
// class and date is a conflict.
func (s *AttendanceService) Create(ctx context.Context, a *model.Attendance) error {
	a.ID = 0
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := checkAttendanceRefs(ctx, q, a); err != nil {
			return err
		}
		return writeErr(q.Attendance.Save(ctx, a))
	})
}

// Update overwrites the record with the given id.
func (s *AttendanceService) Update(ctx context.Context, id int, a *model.Attendance) error {
	a.ID = id
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		if _, err := q.Attendance.GetByID(ctx, id); err != nil {
			return lookup("attendance", id, err)
		}
		if err := checkAttendanceRefs(ctx, q, a); err != nil {
			return err
		}
		return writeErr(q.Attendance.Save(ctx, a))
	})
}

// Delete removes a single record.
func (s *AttendanceService) Delete(ctx context.Context, id int) error {
	if err := s.store.Queries().Attendance.Delete(ctx, id); err != nil {
		return lookup("attendance", id, err)
	}
	return nil
}

func checkAttendanceRefs(ctx context.Context, q *repository.Queries, a *model.Attendance) error {
	if a.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := q.Students.GetByID(ctx, a.StudentID); err != nil {
		return lookup("student", a.StudentID, err)
	}
	if _, err := q.Classes.GetByID(ctx, a.ClassID); err != nil {
		return lookup("class", a.ClassID, err)
	}
	return nil
}
