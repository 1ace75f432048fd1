package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
)

// ErrSessionInvalidated is returned for a token superseded by a newer login or a logout.
var ErrSessionInvalidated = errors.New("session invalidated")

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int        `json:"user_id"`
	Role      model.Role `json:"role"`
	StudentID int        `json:"student_id,omitempty"` // Student only
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// AuthService handles login, JWT issuance and session tracking.
// Only the most recent login of a user stays valid.
type AuthService struct {
	users    *UserService
	sessions SessionStore
	secret   []byte
	expiry   time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserService, sessions SessionStore, secret string, expiry time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		expiry:   expiry,
		log:      log.With().Str("component", "auth_service").Logger(),
		now:      time.Now,
	}
}

// Login authenticates the user, issues a token and replaces any previous session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, jti, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Set(ctx, u.ID, jti, s.expiry); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("User logged in")
	return &model.LoginResponse{Token: token, User: *u}, nil
}

func (s *AuthService) issueToken(u *model.User) (string, string, error) {
	jti := uuid.New().String()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		UserID: u.ID,
		Role:   u.Role,
	}
	if u.StudentID != nil {
		claims.StudentID = *u.StudentID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token is still the user's active session.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	jti, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return ErrSessionInvalidated
		}
		return err
	}
	if jti != claims.ID {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout ends the user's active session.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Me returns the account behind the token.
func (s *AuthService) Me(ctx context.Context, claims *Claims) (*model.User, error) {
	return s.users.GetByID(ctx, claims.UserID)
}
