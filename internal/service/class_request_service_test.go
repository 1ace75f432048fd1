package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
)

func TestClassRequestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	fixed := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
	f.requests.now = func() time.Time { return fixed }

	req, err := f.requests.Create(ctx, st.ID, c.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.ID == 0 || req.Status != model.RequestStatusPending || !req.RequestDate.Equal(fixed) {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.ResponseDate != nil || req.ResponseNotes != nil {
		t.Errorf("response fields set on new request: %+v", req)
	}

	pending, err := f.requests.HasExistingRequest(ctx, st.ID, c.ID)
	if err != nil || !pending {
		t.Fatalf("HasExistingRequest = %v, %v", pending, err)
	}

	_, err = f.requests.Create(ctx, st.ID, c.ID)
	assertErr(t, err, ErrPendingRequestExists)
	assertErr(t, err, ErrConflict)

	if got := f.events.types(); len(got) != 1 || got[0] != model.EventRequestCreated {
		t.Errorf("events = %v", got)
	}
}

func TestClassRequestCreateUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	_, err := f.requests.Create(ctx, 999, c.ID)
	assertErr(t, err, ErrNotFound)

	_, err = f.requests.Create(ctx, st.ID, 999)
	assertErr(t, err, ErrNotFound)

	all, _ := f.requests.List(ctx)
	if len(all) != 0 {
		t.Errorf("requests persisted after failure: %+v", all)
	}
}

func TestClassRequestApproveEnrolls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	req, _ := f.requests.Create(ctx, st.ID, c.ID)
	approved, err := f.requests.Approve(ctx, req.ID, "welcome")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.RequestStatusApproved || approved.ResponseDate == nil {
		t.Fatalf("unexpected request %+v", approved)
	}
	if approved.ResponseNotes == nil || *approved.ResponseNotes != "welcome" {
		t.Errorf("notes = %v", approved.ResponseNotes)
	}

	enrolled, _ := f.queries().Enrollments.IsEnrolled(ctx, c.ID, st.ID)
	if !enrolled {
		t.Fatal("student not enrolled after approval")
	}

	pending, _ := f.requests.HasExistingRequest(ctx, st.ID, c.ID)
	if pending {
		t.Error("HasExistingRequest true after approval")
	}

	stored, _ := f.requests.GetByID(ctx, req.ID)
	if stored.Status != model.RequestStatusApproved {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestClassRequestApproveAlreadyMemberIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")
	if err := f.classes.AddStudent(ctx, c.ID, st.ID); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	req, _ := f.requests.Create(ctx, st.ID, c.ID)
	if _, err := f.requests.Approve(ctx, req.ID, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	ids, _ := f.queries().Enrollments.ListStudentIDsByClass(ctx, c.ID)
	if len(ids) != 1 || ids[0] != st.ID {
		t.Errorf("members = %v", ids)
	}
}

func TestClassRequestRejectAllowsNewRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	req, _ := f.requests.Create(ctx, st.ID, c.ID)
	rejected, err := f.requests.Reject(ctx, req.ID, "")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.RequestStatusRejected || rejected.ResponseNotes != nil {
		t.Fatalf("unexpected request %+v", rejected)
	}

	enrolled, _ := f.queries().Enrollments.IsEnrolled(ctx, c.ID, st.ID)
	if enrolled {
		t.Fatal("rejection enrolled the student")
	}

	again, err := f.requests.Create(ctx, st.ID, c.ID)
	if err != nil {
		t.Fatalf("Create after reject: %v", err)
	}
	if again.ID == req.ID {
		t.Error("expected a new request")
	}

	history, _ := f.requests.ListByStudent(ctx, st.ID)
	if len(history) != 2 {
		t.Errorf("history = %d requests, want 2", len(history))
	}
}

func TestClassRequestResolveTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	req, _ := f.requests.Create(ctx, st.ID, c.ID)
	if _, err := f.requests.Reject(ctx, req.ID, ""); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	_, err := f.requests.Approve(ctx, req.ID, "")
	assertErr(t, err, ErrRequestResolved)
	_, err = f.requests.Reject(ctx, req.ID, "")
	assertErr(t, err, ErrRequestResolved)

	enrolled, _ := f.queries().Enrollments.IsEnrolled(ctx, c.ID, st.ID)
	if enrolled {
		t.Error("late approval enrolled the student")
	}

	_, err = f.requests.Approve(ctx, 12345, "")
	assertErr(t, err, ErrNotFound)
}

func TestClassRequestPendingIsPerPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.student(t, "Ana")
	b := f.student(t, "Ben")
	math := f.class(t, "Math")
	art := f.class(t, "Art")

	for _, pair := range [][2]int{{a.ID, math.ID}, {a.ID, art.ID}, {b.ID, math.ID}} {
		if _, err := f.requests.Create(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Create(%v): %v", pair, err)
		}
	}

	pending, _ := f.requests.ListPending(ctx)
	if len(pending) != 3 {
		t.Errorf("pending = %d, want 3", len(pending))
	}
	byClass, _ := f.requests.ListByClass(ctx, math.ID)
	if len(byClass) != 2 {
		t.Errorf("by class = %d, want 2", len(byClass))
	}
}

func TestClassRequestPublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.events.err = errors.New("redis down")
	st := f.student(t, "Ana")
	c := f.class(t, "Math")

	if _, err := f.requests.Create(ctx, st.ID, c.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestClassRequestReadsAreEmptyNotNil(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lists := map[string]func() ([]model.ClassRequest, error){
		"List":          func() ([]model.ClassRequest, error) { return f.requests.List(ctx) },
		"ListByStudent": func() ([]model.ClassRequest, error) { return f.requests.ListByStudent(ctx, 1) },
		"ListByClass":   func() ([]model.ClassRequest, error) { return f.requests.ListByClass(ctx, 1) },
		"ListPending":   func() ([]model.ClassRequest, error) { return f.requests.ListPending(ctx) },
	}
	for name, list := range lists {
		got, err := list()
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("%s = %v, %v; want empty slice", name, got, err)
		}
	}
}
