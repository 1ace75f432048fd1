package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
	"github.com/stemsi/classroom-backend/internal/service"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store, 4, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	for i := 0; i < 2; i++ {
		if err := s.Run(ctx); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	q := store.Queries()
	users, _ := q.Users.List(ctx)
	students, _ := q.Students.List(ctx)
	classes, _ := q.Classes.List(ctx)
	if len(users) != 4 || len(students) != 3 || len(classes) != 4 {
		t.Fatalf("users=%d students=%d classes=%d", len(users), len(students), len(classes))
	}
	if got := classes[0].StartDate.String(); got != "2023-12-16" {
		t.Errorf("start date = %s", got)
	}

	u, err := service.NewUserService(store, 4).Authenticate(ctx, "STU002", StudentPassword)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Role != model.RoleStudent || u.StudentID == nil {
		t.Fatalf("user = %+v", u)
	}
	st, err := q.Students.GetByID(ctx, *u.StudentID)
	if err != nil || st.FirstName != "Jane" {
		t.Fatalf("student = %+v, err = %v", st, err)
	}
}
