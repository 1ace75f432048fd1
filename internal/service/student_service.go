package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// Allowed profile picture MIME types.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// StudentService handles student business logic.
type StudentService struct {
	store          repository.Store
	maxUploadBytes int64
}

// NewStudentService creates a new StudentService.
func NewStudentService(store repository.Store, maxUploadBytes int64) *StudentService {
	return &StudentService{store: store, maxUploadBytes: maxUploadBytes}
}

// List retrieves all students without their pictures.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.store.Queries().Students.List(ctx)
}

// GetByID retrieves a student together with the classes they are enrolled in.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.StudentDetail, error) {
	q := s.store.Queries()
	st, err := q.Students.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("student", id, err)
	}
	classIDs, err := q.Enrollments.ListClassIDsByStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return &model.StudentDetail{Student: *st, ClassIDs: classIDs}, nil
}

// Create inserts a new student.
func (s *StudentService) Create(ctx context.Context, st *model.Student) error {
	st.ID = 0
	return writeErr(s.store.Queries().Students.Save(ctx, st))
}

// Update overwrites a student's fields. A nil picture keeps the stored one.
func (s *StudentService) Update(ctx context.Context, id int, st *model.Student) error {
	st.ID = id
	return s.store.WithTx(ctx, func(q *repository.Queries) error {
		current, err := q.Students.GetByID(ctx, id)
		if err != nil {
			return lookup("student", id, err)
		}
		if st.ProfilePic == nil {
			st.ProfilePic = current.ProfilePic
		}
		return writeErr(q.Students.Save(ctx, st))
	})
}

// Delete removes a student. Students with requests or attendance cannot be deleted.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	err := s.store.Queries().Students.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return lookup("student", id, err)
	}
	return writeErr(err)
}

// Photo returns the stored profile picture and its detected content type.
func (s *StudentService) Photo(ctx context.Context, id int) ([]byte, string, error) {
	st, err := s.store.Queries().Students.GetByID(ctx, id)
	if err != nil {
		return nil, "", lookup("student", id, err)
	}
	if len(st.ProfilePic) == 0 {
		return nil, "", fmt.Errorf("photo of student %d: %w", id, ErrNotFound)
	}
	return st.ProfilePic, http.DetectContentType(st.ProfilePic), nil
}

// ReadPhoto validates an uploaded profile picture and returns its bytes.
func (s *StudentService) ReadPhoto(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.maxUploadBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxUploadBytes)
	}

	// Trust the bytes, not the client's Content-Type header.
	contentType := http.DetectContentType(data)
	if !allowedPhotoTypes[contentType] {
		return nil, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}
	return data, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedPhotoTypes))
	for t := range allowedPhotoTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
