package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/metrics"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// ClassRequestService runs the enrollment request workflow:
// PENDING → APPROVED | REJECTED, with approval enrolling the student.
type ClassRequestService struct {
	store  repository.Store
	events EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewClassRequestService creates a new ClassRequestService.
func NewClassRequestService(store repository.Store, events EventPublisher, log zerolog.Logger) *ClassRequestService {
	return &ClassRequestService{
		store:  store,
		events: events,
		log:    log.With().Str("component", "class_request_service").Logger(),
		now:    time.Now,
	}
}

// Create files a PENDING request for the student to join the class.
func (s *ClassRequestService) Create(ctx context.Context, studentID, classID int) (*model.ClassRequest, error) {
	var created *model.ClassRequest
	err := s.store.WithTx(ctx, func(q *repository.Queries) error {
		if _, err := q.Students.GetByID(ctx, studentID); err != nil {
			return lookup("student", studentID, err)
		}
		if _, err := q.Classes.GetByID(ctx, classID); err != nil {
			return lookup("class", classID, err)
		}

		pending, err := q.Requests.HasPending(ctx, studentID, classID)
		if err != nil {
			return fmt.Errorf("check pending request: %w", err)
		}
		if pending {
			return ErrPendingRequestExists
		}

		req := &model.ClassRequest{
			StudentID:   studentID,
			ClassID:     classID,
			RequestDate: s.now(),
			Status:      model.RequestStatusPending,
		}
		if err := q.Requests.Save(ctx, req); err != nil {
			// A concurrent create won the partial unique index.
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrPendingRequestExists
			}
			return fmt.Errorf("insert class request: %w", err)
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestsCreated.Inc()
	s.log.Info().Int("request_id", created.ID).Int("student_id", studentID).Int("class_id", classID).Msg("Class request created")
	publish(ctx, s.events, s.log, model.Event{
		Type:       model.EventRequestCreated,
		RequestID:  created.ID,
		StudentID:  studentID,
		ClassID:    classID,
		OccurredAt: created.RequestDate,
	})
	return created, nil
}

// Approve resolves a pending request as APPROVED and enrolls the student.
func (s *ClassRequestService) Approve(ctx context.Context, requestID int, notes string) (*model.ClassRequest, error) {
	return s.resolve(ctx, requestID, model.RequestStatusApproved, notes)
}

// Reject resolves a pending request as REJECTED.
func (s *ClassRequestService) Reject(ctx context.Context, requestID int, notes string) (*model.ClassRequest, error) {
	return s.resolve(ctx, requestID, model.RequestStatusRejected, notes)
}

func (s *ClassRequestService) resolve(ctx context.Context, requestID int, status model.RequestStatus, notes string) (*model.ClassRequest, error) {
	var resolved *model.ClassRequest
	err := s.store.WithTx(ctx, func(q *repository.Queries) error {
		req, err := q.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookup("class request", requestID, err)
		}
		if !req.IsPending() {
			return ErrRequestResolved
		}

		now := s.now()
		req.Status = status
		req.ResponseDate = &now
		if notes != "" {
			req.ResponseNotes = &notes
		}
		if err := q.Requests.Resolve(ctx, req); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return ErrRequestResolved
			}
			return fmt.Errorf("update class request: %w", err)
		}

		if status == model.RequestStatusApproved {
			if err := q.Enrollments.Add(ctx, req.ClassID, req.StudentID); err != nil {
				return fmt.Errorf("enroll student: %w", writeErr(err))
			}
		}
		resolved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestsResolved.WithLabelValues(string(status)).Inc()
	s.log.Info().Int("request_id", requestID).Str("status", string(status)).Msg("Class request resolved")

	evType := model.EventRequestRejected
	if status == model.RequestStatusApproved {
		evType = model.EventRequestApproved
	}
	publish(ctx, s.events, s.log, model.Event{
		Type:       evType,
		RequestID:  resolved.ID,
		StudentID:  resolved.StudentID,
		ClassID:    resolved.ClassID,
		OccurredAt: *resolved.ResponseDate,
	})
	return resolved, nil
}

// HasExistingRequest reports whether the pair has a PENDING request.
// Resolved requests do not count.
func (s *ClassRequestService) HasExistingRequest(ctx context.Context, studentID, classID int) (bool, error) {
	return s.store.Queries().Requests.HasPending(ctx, studentID, classID)
}

// GetByID retrieves a request by its ID.
func (s *ClassRequestService) GetByID(ctx context.Context, id int) (*model.ClassRequest, error) {
	req, err := s.store.Queries().Requests.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("class request", id, err)
	}
	return req, nil
}

// List retrieves all requests.
func (s *ClassRequestService) List(ctx context.Context) ([]model.ClassRequest, error) {
	return s.store.Queries().Requests.List(ctx)
}

// ListByStudent retrieves the requests filed by a student.
func (s *ClassRequestService) ListByStudent(ctx context.Context, studentID int) ([]model.ClassRequest, error) {
	return s.store.Queries().Requests.ListByStudent(ctx, studentID)
}

// ListByClass retrieves the requests targeting a class.
func (s *ClassRequestService) ListByClass(ctx context.Context, classID int) ([]model.ClassRequest, error) {
	return s.store.Queries().Requests.ListByClass(ctx, classID)
}

// ListPending retrieves the requests awaiting a decision.
func (s *ClassRequestService) ListPending(ctx context.Context) ([]model.ClassRequest, error) {
	return s.store.Queries().Requests.ListByStatus(ctx, model.RequestStatusPending)
}
