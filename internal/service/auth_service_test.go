package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
)

func newAuth(t *testing.T, f *fixture) (*AuthService, *MemorySessionStore) {
	t.Helper()
	sessions := NewMemorySessionStore()
	return NewAuthService(f.users, sessions, "test-secret", time.Hour, zerolog.Nop()), sessions
}

func TestLoginIssuesValidToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	id := st.ID
	_, err := f.users.Create(ctx, model.CreateUserRequest{Username: "ana", Password: "secret1", Role: model.RoleStudent, StudentID: &id})
	if err != nil {
		t.Fatal(err)
	}
	auth, _ := newAuth(t, f)

	resp, err := auth.Login(ctx, "ana", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != model.RoleStudent || claims.StudentID != st.ID || claims.UserID != resp.User.ID || claims.IsAdmin() {
		t.Errorf("claims = %+v", claims)
	}
	if err := auth.ValidateSession(ctx, claims); err != nil {
		t.Errorf("ValidateSession: %v", err)
	}

	me, err := auth.Me(ctx, claims)
	if err != nil || me.Username != "ana" {
		t.Errorf("Me = %+v, %v", me, err)
	}

	_, err = auth.Login(ctx, "ana", "nope")
	assertErr(t, err, ErrInvalidCredentials)
}

func TestLatestLoginWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.users.Create(ctx, model.CreateUserRequest{Username: "admin", Password: "admin123", Role: model.RoleAdmin})
	auth, _ := newAuth(t, f)

	first, _ := auth.Login(ctx, "admin", "admin123")
	second, _ := auth.Login(ctx, "admin", "admin123")

	c1, _ := auth.ValidateToken(first.Token)
	c2, _ := auth.ValidateToken(second.Token)
	assertErr(t, auth.ValidateSession(ctx, c1), ErrSessionInvalidated)
	if err := auth.ValidateSession(ctx, c2); err != nil {
		t.Fatalf("latest session rejected: %v", err)
	}

	if err := auth.Logout(ctx, c2.UserID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	assertErr(t, auth.ValidateSession(ctx, c2), ErrSessionInvalidated)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.users.Create(ctx, model.CreateUserRequest{Username: "admin", Password: "admin123", Role: model.RoleAdmin})
	auth, _ := newAuth(t, f)
	other := NewAuthService(f.users, NewMemorySessionStore(), "another-secret", time.Hour, zerolog.Nop())

	resp, _ := other.Login(ctx, "admin", "admin123")
	if _, err := auth.ValidateToken(resp.Token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.users.Create(ctx, model.CreateUserRequest{Username: "admin", Password: "admin123", Role: model.RoleAdmin})
	auth, _ := newAuth(t, f)
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := auth.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ValidateToken(resp.Token); err == nil {
		t.Fatal("expired token accepted")
	} else if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unexpected error kind: %v", err)
	}
}
