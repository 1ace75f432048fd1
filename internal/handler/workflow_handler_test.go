package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stemsi/classroom-backend/internal/model"
)

func TestEnrollmentAndAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	st, studentToken := s.studentAccount("Nimal", "nimal")
	other, _ := s.studentAccount("Kamal", "kamal")
	class := s.class("Physics")

	create := model.CreateClassRequest{StudentID: st.ID, ClassID: class.ID}

	w, _ := s.do(http.MethodPost, "/api/v1/requests", studentToken,
		model.CreateClassRequest{StudentID: other.ID, ClassID: class.ID})
	wantStatus(t, w, http.StatusForbidden)

	w, env := s.do(http.MethodPost, "/api/v1/requests", studentToken, create)
	wantStatus(t, w, http.StatusCreated)
	var req model.ClassRequest
	decode(t, env, &req)
	if req.Status != model.RequestStatusPending {
		t.Fatalf("status = %s", req.Status)
	}

	w, env = s.do(http.MethodPost, "/api/v1/requests", studentToken, create)
	wantStatus(t, w, http.StatusConflict)
	wantCode(t, env, "PENDING_REQUEST_EXISTS")

	pendingPath := fmt.Sprintf("/api/v1/requests/student/%d/class/%d/pending", st.ID, class.ID)
	w, env = s.do(http.MethodGet, pendingPath, studentToken, nil)
	wantStatus(t, w, http.StatusOK)
	var pending bool
	decode(t, env, &pending)
	if !pending {
		t.Fatal("pending = false before approval")
	}

	// Students cannot resolve requests.
	approvePath := fmt.Sprintf("/api/v1/requests/%d/approve", req.ID)
	w, env = s.do(http.MethodPut, approvePath, studentToken, nil)
	wantStatus(t, w, http.StatusForbidden)
	wantCode(t, env, "ADMIN_ACCESS_ONLY")

	w, env = s.do(http.MethodPut, approvePath, admin, model.ResolveClassRequest{Notes: "welcome"})
	wantStatus(t, w, http.StatusOK)
	decode(t, env, &req)
	if req.Status != model.RequestStatusApproved || req.ResponseNotes == nil || *req.ResponseNotes != "welcome" {
		t.Fatalf("approved request = %+v", req)
	}

	w, env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/reject", req.ID), admin, nil)
	wantStatus(t, w, http.StatusConflict)
	wantCode(t, env, "REQUEST_ALREADY_RESOLVED")

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/classes/student/%d", st.ID), studentToken, nil)
	wantStatus(t, w, http.StatusOK)
	var enrolled []model.Class
	decode(t, env, &enrolled)
	if len(enrolled) != 1 || enrolled[0].ID != class.ID {
		t.Fatalf("enrolled classes = %+v", enrolled)
	}

	w, env = s.do(http.MethodGet, pendingPath, studentToken, nil)
	wantStatus(t, w, http.StatusOK)
	decode(t, env, &pending)
	if pending {
		t.Fatal("pending = true after approval")
	}

	for date, present := range map[string]bool{"2024-01-10": true, "2024-01-11": false} {
		w, _ = s.do(http.MethodPost, "/api/v1/attendance/mark", admin, model.MarkAttendanceRequest{
			ClassID:           class.ID,
			Date:              date,
			StudentAttendance: map[int]bool{st.ID: present},
		})
		wantStatus(t, w, http.StatusOK)
	}

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance/student/%d/percentage", st.ID), studentToken, nil)
	wantStatus(t, w, http.StatusOK)
	var percentages map[string]float64
	decode(t, env, &percentages)
	if got := percentages[fmt.Sprint(class.ID)]; got != 50 || len(percentages) != 1 {
		t.Fatalf("percentages = %v, want {%d: 50}", percentages, class.ID)
	}

	// Another student's ledger is off limits.
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance/student/%d", other.ID), studentToken, nil)
	wantStatus(t, w, http.StatusForbidden)
}

func TestMarkAttendanceReplacesSession(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	a, _ := s.studentAccount("Amal", "amal")
	b, _ := s.studentAccount("Bimal", "bimal")
	class := s.class("Chemistry")

	mark := func(presence map[int]bool) {
		t.Helper()
		w, _ := s.do(http.MethodPost, "/api/v1/attendance/mark", admin, model.MarkAttendanceRequest{
			ClassID: class.ID, Date: "2024-03-01", StudentAttendance: presence,
		})
		wantStatus(t, w, http.StatusOK)
	}
	mark(map[int]bool{a.ID: true, b.ID: false})
	mark(map[int]bool{a.ID: true})

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance/class/%d/date?date=2024-03-01", class.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)
	var records []model.Attendance
	decode(t, env, &records)
	if len(records) != 1 || records[0].StudentID != a.ID || !records[0].Present {
		t.Fatalf("session = %+v", records)
	}
}

func TestMarkAttendanceValidation(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	class := s.class("Biology")

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing date", map[string]any{"classId": class.ID, "studentAttendance": map[string]bool{}}, "VALIDATION_ERROR"},
		{"missing class", map[string]any{"date": "2024-01-10", "studentAttendance": map[string]bool{}}, "VALIDATION_ERROR"},
		{"bad date", map[string]any{"classId": class.ID, "date": "10/01/2024", "studentAttendance": map[string]bool{}}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(http.MethodPost, "/api/v1/attendance/mark", admin, tt.body)
			wantStatus(t, w, http.StatusBadRequest)
			wantCode(t, env, tt.want)
		})
	}

	w, env := s.do(http.MethodPost, "/api/v1/attendance/mark", admin, model.MarkAttendanceRequest{
		ClassID: class.ID + 100, Date: "2024-01-10", StudentAttendance: map[int]bool{},
	})
	wantStatus(t, w, http.StatusNotFound)
	wantCode(t, env, "NOT_FOUND")
}

func TestSingleAttendanceRecords(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	st, _ := s.studentAccount("Sunil", "sunil")
	class := s.class("History")

	payload := model.AttendancePayload{StudentID: st.ID, ClassID: class.ID, Date: "2024-02-02", Present: true}
	w, env := s.do(http.MethodPost, "/api/v1/attendance", admin, payload)
	wantStatus(t, w, http.StatusCreated)
	var rec model.Attendance
	decode(t, env, &rec)

	w, env = s.do(http.MethodPost, "/api/v1/attendance", admin, payload)
	wantStatus(t, w, http.StatusConflict)
	wantCode(t, env, "CONFLICT")

	payload.Present = false
	payload.Notes = "sick"
	w, env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/attendance/%d", rec.ID), admin, payload)
	wantStatus(t, w, http.StatusOK)
	decode(t, env, &rec)
	if rec.Present || rec.Notes != "sick" {
		t.Fatalf("updated record = %+v", rec)
	}

	w, env = s.do(http.MethodGet, "/api/v1/attendance/date?date=2024-02-02", admin, nil)
	wantStatus(t, w, http.StatusOK)
	var byDate []model.Attendance
	decode(t, env, &byDate)
	if len(byDate) != 1 {
		t.Fatalf("records on date = %d", len(byDate))
	}

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/attendance/%d", rec.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)
	w, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/attendance/%d", rec.ID), admin, nil)
	wantStatus(t, w, http.StatusNotFound)
	wantCode(t, env, "NOT_FOUND")
}

func TestDeleteClassWithRequests(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	st, token := s.studentAccount("Ruwan", "ruwan")
	class := s.class("Art")

	w, _ := s.do(http.MethodPost, "/api/v1/requests", token, model.CreateClassRequest{StudentID: st.ID, ClassID: class.ID})
	wantStatus(t, w, http.StatusCreated)

	w, env := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/classes/%d", class.ID), admin, nil)
	wantStatus(t, w, http.StatusConflict)
	wantCode(t, env, "DEPENDENCY_EXISTS")
}
