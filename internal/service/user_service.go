package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages login accounts.
type UserService struct {
	store      repository.Store
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, bcryptCost int) *UserService {
	return &UserService{store: store, bcryptCost: bcryptCost}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *UserService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(hash), err
}

// List retrieves all users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.store.Queries().Users.List(ctx)
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	u, err := s.store.Queries().Users.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("user", id, err)
	}
	return u, nil
}

// Create adds a user with a freshly hashed password.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	u := &model.User{Username: req.Username, Role: req.Role, StudentID: req.StudentID}
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	err = s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := checkUserRole(ctx, q, u); err != nil {
			return err
		}
		return writeErr(q.Users.Save(ctx, u))
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Update modifies a user. An empty password keeps the current hash.
func (s *UserService) Update(ctx context.Context, id int, req model.UpdateUserRequest) (*model.User, error) {
	var updated *model.User
	err := s.store.WithTx(ctx, func(q *repository.Queries) error {
		u, err := q.Users.GetByID(ctx, id)
		if err != nil {
			return lookup("user", id, err)
		}
		u.Username = req.Username
		u.Role = req.Role
		u.StudentID = req.StudentID
		if req.Password != "" {
			hash, err := s.HashPassword(req.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.PasswordHash = hash
		}
		if err := checkUserRole(ctx, q, u); err != nil {
			return err
		}
		if err := q.Users.Save(ctx, u); err != nil {
			return writeErr(err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.store.Queries().Users.Delete(ctx, id); err != nil {
		return lookup("user", id, err)
	}
	return nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.store.Queries().Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// checkUserRole enforces that exactly the STUDENT role links to an existing student.
func checkUserRole(ctx context.Context, q *repository.Queries, u *model.User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, u.Role)
	}
	switch {
	case u.Role == model.RoleStudent && u.StudentID == nil:
		return fmt.Errorf("%w: student users require studentId", ErrInvalidInput)
	case u.Role != model.RoleStudent && u.StudentID != nil:
		return fmt.Errorf("%w: only student users may have studentId", ErrInvalidInput)
	}
	if u.StudentID != nil {
		if _, err := q.Students.GetByID(ctx, *u.StudentID); err != nil {
			return lookup("student", *u.StudentID, err)
		}
	}
	return nil
}
