// Package storetest checks that a repository.Store honours the schema's keys,
// references and transaction semantics. Every Store implementation runs it.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// Run executes the suite. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"StudentCRUD", testStudentCRUD},
		{"EmptyListsAreNotNil", testEmptyLists},
		{"PendingRequestUnique", testPendingRequestUnique},
		{"ResolveOnlyPending", testResolveOnlyPending},
		{"DeleteRestrictedByHistory", testDeleteRestricted},
		{"EnrollmentIdempotent", testEnrollment},
		{"AttendanceSession", testAttendanceSession},
		{"WithTxRollback", testWithTxRollback},
		{"UserLookup", testUserLookup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func day(d int) model.Date {
	return model.NewDate(2024, time.March, d)
}

func mustStudent(t *testing.T, s repository.Store, first string) *model.Student {
	t.Helper()
	st := model.NewStudent(first, "Tester", "", nil, "", "")
	if err := s.Queries().Students.Save(context.Background(), st); err != nil {
		t.Fatalf("save student: %v", err)
	}
	return st
}

func mustClass(t *testing.T, s repository.Store, name string) *model.Class {
	t.Helper()
	start, end := day(1), day(31)
	c := model.NewClass(name, "", "Mon 09:00", &start, &end)
	if err := s.Queries().Classes.Save(context.Background(), c); err != nil {
		t.Fatalf("save class: %v", err)
	}
	return c
}

func testStudentCRUD(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()

	dob := model.NewDate(2001, time.May, 4)
	st := model.NewStudent("Ada", "Lovelace", "London", &dob, "NIC1", "0771")
	st.ProfilePic = []byte{0x89, 'P', 'N', 'G'}
	if err := q.Students.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if st.ID == 0 {
		t.Fatal("Save did not assign an id")
	}

	got, err := q.Students.GetByID(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FirstName != "Ada" || got.DateOfBirth == nil || !got.DateOfBirth.Equal(dob) {
		t.Errorf("GetByID = %+v", got)
	}
	if len(got.ProfilePic) != 4 {
		t.Errorf("profile pic length = %d, want 4", len(got.ProfilePic))
	}

	list, err := q.Students.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ProfilePic != nil {
		t.Errorf("List should return one student without picture bytes, got %+v", list)
	}

	got.Contact = "0772"
	if err := q.Students.Save(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := q.Students.GetByID(ctx, st.ID)
	if again.Contact != "0772" {
		t.Errorf("Contact = %q, want 0772", again.Contact)
	}

	missing := *got
	missing.ID = st.ID + 1000
	if err := q.Students.Save(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if err := q.Students.Delete(ctx, st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := q.Students.GetByID(ctx, st.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID after delete: err = %v, want ErrNotFound", err)
	}
	if err := q.Students.Delete(ctx, st.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func testEmptyLists(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()

	students, err := q.Students.List(ctx)
	if err != nil || students == nil {
		t.Errorf("Students.List = %v, %v; want empty slice", students, err)
	}
	requests, err := q.Requests.ListByStatus(ctx, model.RequestStatusPending)
	if err != nil || requests == nil {
		t.Errorf("Requests.ListByStatus = %v, %v; want empty slice", requests, err)
	}
	records, err := q.Attendance.ListByDate(ctx, day(1))
	if err != nil || records == nil {
		t.Errorf("Attendance.ListByDate = %v, %v; want empty slice", records, err)
	}
	ids, err := q.Enrollments.ListClassIDsByStudent(ctx, 1)
	if err != nil || ids == nil {
		t.Errorf("Enrollments.ListClassIDsByStudent = %v, %v; want empty slice", ids, err)
	}
}

func newRequest(studentID, classID int) *model.ClassRequest {
	return &model.ClassRequest{
		StudentID:   studentID,
		ClassID:     classID,
		RequestDate: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
		Status:      model.RequestStatusPending,
	}
}

func testPendingRequestUnique(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Grace")
	c := mustClass(t, s, "Compilers")

	first := newRequest(st.ID, c.ID)
	if err := q.Requests.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	pending, err := q.Requests.HasPending(ctx, st.ID, c.ID)
	if err != nil || !pending {
		t.Fatalf("HasPending = %v, %v; want true", pending, err)
	}

	if err := q.Requests.Save(ctx, newRequest(st.ID, c.ID)); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("second pending: err = %v, want ErrDuplicate", err)
	}

	first.Status = model.RequestStatusRejected
	if err := q.Requests.Resolve(ctx, first); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := q.Requests.Save(ctx, newRequest(st.ID, c.ID)); err != nil {
		t.Fatalf("pending after rejection: %v", err)
	}
	all, _ := q.Requests.ListByStudentAndClass(ctx, st.ID, c.ID)
	if len(all) != 2 {
		t.Errorf("ListByStudentAndClass returned %d requests, want 2", len(all))
	}

	if err := q.Requests.Save(ctx, newRequest(st.ID, c.ID+1000)); !errors.Is(err, repository.ErrReferenced) {
		t.Errorf("unknown class: err = %v, want ErrReferenced", err)
	}
}

func testResolveOnlyPending(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Alan")
	c := mustClass(t, s, "Logic")

	cr := newRequest(st.ID, c.ID)
	if err := q.Requests.Save(ctx, cr); err != nil {
		t.Fatalf("Save: %v", err)
	}

	now := time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC)
	notes := "welcome"
	cr.Status = model.RequestStatusApproved
	cr.ResponseDate = &now
	cr.ResponseNotes = &notes
	if err := q.Requests.Resolve(ctx, cr); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got, err := q.Requests.GetByID(ctx, cr.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.RequestStatusApproved || got.ResponseDate == nil || got.ResponseNotes == nil || *got.ResponseNotes != notes {
		t.Errorf("resolved request = %+v", got)
	}

	cr.Status = model.RequestStatusRejected
	if err := q.Requests.Resolve(ctx, cr); !errors.Is(err, repository.ErrStale) {
		t.Errorf("second Resolve: err = %v, want ErrStale", err)
	}
	approved, _ := q.Requests.ListByStatus(ctx, model.RequestStatusApproved)
	if len(approved) != 1 {
		t.Errorf("approved requests = %d, want 1", len(approved))
	}
}

func testDeleteRestricted(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Barbara")
	c := mustClass(t, s, "Networks")

	if err := q.Requests.Save(ctx, newRequest(st.ID, c.ID)); err != nil {
		t.Fatalf("Save request: %v", err)
	}
	if err := q.Classes.Delete(ctx, c.ID); !errors.Is(err, repository.ErrReferenced) {
		t.Errorf("delete class with requests: err = %v, want ErrReferenced", err)
	}
	if err := q.Students.Delete(ctx, st.ID); !errors.Is(err, repository.ErrReferenced) {
		t.Errorf("delete student with requests: err = %v, want ErrReferenced", err)
	}

	free := mustClass(t, s, "Empty")
	other := mustStudent(t, s, "Edsger")
	if err := q.Enrollments.Add(ctx, free.ID, other.ID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := q.Classes.Delete(ctx, free.ID); err != nil {
		t.Fatalf("delete class with only enrollments: %v", err)
	}
	ids, _ := q.Enrollments.ListClassIDsByStudent(ctx, other.ID)
	if len(ids) != 0 {
		t.Errorf("enrollments survived class deletion: %v", ids)
	}
}

func testEnrollment(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Donald")
	a := mustClass(t, s, "Algorithms")
	b := mustClass(t, s, "Typesetting")

	for range 2 {
		if err := q.Enrollments.Add(ctx, a.ID, st.ID); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	ok, err := q.Enrollments.IsEnrolled(ctx, a.ID, st.ID)
	if err != nil || !ok {
		t.Fatalf("IsEnrolled = %v, %v; want true", ok, err)
	}
	ids, _ := q.Enrollments.ListStudentIDsByClass(ctx, a.ID)
	if len(ids) != 1 || ids[0] != st.ID {
		t.Errorf("ListStudentIDsByClass = %v", ids)
	}

	notEnrolled, err := q.Classes.ListNotEnrolled(ctx, st.ID)
	if err != nil {
		t.Fatalf("ListNotEnrolled: %v", err)
	}
	if len(notEnrolled) != 1 || notEnrolled[0].ID != b.ID {
		t.Errorf("ListNotEnrolled = %+v, want only %d", notEnrolled, b.ID)
	}
	enrolled, _ := q.Students.ListByClass(ctx, a.ID)
	if len(enrolled) != 1 || enrolled[0].ID != st.ID {
		t.Errorf("Students.ListByClass = %+v", enrolled)
	}

	if err := q.Enrollments.Remove(ctx, a.ID, st.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := q.Enrollments.IsEnrolled(ctx, a.ID, st.ID); ok {
		t.Error("still enrolled after Remove")
	}
	if err := q.Enrollments.Add(ctx, a.ID, st.ID+1000); !errors.Is(err, repository.ErrReferenced) {
		t.Errorf("Add unknown student: err = %v, want ErrReferenced", err)
	}
}

func testAttendanceSession(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Frances")
	other := mustStudent(t, s, "Margaret")
	c := mustClass(t, s, "Fortran")

	records := []model.Attendance{
		{StudentID: st.ID, ClassID: c.ID, Date: day(4), Present: true},
		{StudentID: other.ID, ClassID: c.ID, Date: day(4), Present: false},
		{StudentID: st.ID, ClassID: c.ID, Date: day(11), Present: false},
	}
	for i := range records {
		if err := q.Attendance.Save(ctx, &records[i]); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	dup := model.Attendance{StudentID: st.ID, ClassID: c.ID, Date: day(4), Present: false}
	if err := q.Attendance.Save(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate session row: err = %v, want ErrDuplicate", err)
	}

	present, _ := q.Attendance.CountPresent(ctx, st.ID, c.ID)
	total, _ := q.Attendance.CountTotal(ctx, st.ID, c.ID)
	if present != 1 || total != 2 {
		t.Errorf("counts = %d/%d, want 1/2", present, total)
	}

	session, _ := q.Attendance.ListByClassAndDate(ctx, c.ID, day(4))
	if len(session) != 2 {
		t.Errorf("ListByClassAndDate returned %d, want 2", len(session))
	}
	between, _ := q.Attendance.ListByClassBetween(ctx, c.ID, day(5), day(11))
	if len(between) != 1 || !between[0].Date.Equal(day(11)) {
		t.Errorf("ListByClassBetween = %+v", between)
	}

	n, err := q.Attendance.DeleteByClassAndDate(ctx, c.ID, day(4))
	if err != nil || n != 2 {
		t.Errorf("DeleteByClassAndDate = %d, %v; want 2", n, err)
	}
	n, _ = q.Attendance.DeleteByClassAndDate(ctx, c.ID, day(4))
	if n != 0 {
		t.Errorf("second DeleteByClassAndDate = %d, want 0", n)
	}
	left, _ := q.Attendance.ListByStudent(ctx, st.ID)
	if len(left) != 1 {
		t.Errorf("ListByStudent after delete = %d records, want 1", len(left))
	}
}

func testWithTxRollback(t *testing.T, s repository.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(q *repository.Queries) error {
		st := model.NewStudent("Rolled", "Back", "", nil, "", "")
		if err := q.Students.Save(ctx, st); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx err = %v, want boom", err)
	}
	list, _ := s.Queries().Students.List(ctx)
	if len(list) != 0 {
		t.Errorf("rolled back insert is visible: %+v", list)
	}

	err = s.WithTx(ctx, func(q *repository.Queries) error {
		return q.Students.Save(ctx, model.NewStudent("Kept", "", "", nil, "", ""))
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}
	list, _ = s.Queries().Students.List(ctx)
	if len(list) != 1 || list[0].FirstName != "Kept" {
		t.Errorf("committed insert missing: %+v", list)
	}
}

func testUserLookup(t *testing.T, s repository.Store) {
	ctx := context.Background()
	q := s.Queries()
	st := mustStudent(t, s, "Linus")

	admin := &model.User{Username: "root", PasswordHash: "x", Role: model.RoleAdmin}
	if err := q.Users.Save(ctx, admin); err != nil {
		t.Fatalf("save admin: %v", err)
	}
	sid := st.ID
	student := &model.User{Username: "linus", PasswordHash: "x", Role: model.RoleStudent, StudentID: &sid}
	if err := q.Users.Save(ctx, student); err != nil {
		t.Fatalf("save student user: %v", err)
	}

	dup := &model.User{Username: "root", PasswordHash: "y", Role: model.RoleAdmin}
	if err := q.Users.Save(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate username: err = %v, want ErrDuplicate", err)
	}

	got, err := q.Users.GetByUsername(ctx, "linus")
	if err != nil || got.ID != student.ID {
		t.Errorf("GetByUsername = %+v, %v", got, err)
	}
	got, err = q.Users.GetByStudentID(ctx, st.ID)
	if err != nil || got.Username != "linus" {
		t.Errorf("GetByStudentID = %+v, %v", got, err)
	}
	if _, err := q.Users.GetByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown username: err = %v, want ErrNotFound", err)
	}
}
