package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func TestAuthSession(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "wrong"})
	wantStatus(t, w, http.StatusUnauthorized)
	wantCode(t, env, "INVALID_CREDENTIALS")

	w, env = s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	wantStatus(t, w, http.StatusUnauthorized)
	wantCode(t, env, "TOKEN_REQUIRED")

	w, env = s.do(http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	wantStatus(t, w, http.StatusUnauthorized)
	wantCode(t, env, "TOKEN_INVALID")

	first := s.adminToken()
	second := s.adminToken()

	w, env = s.do(http.MethodGet, "/api/v1/auth/me", first, nil)
	wantStatus(t, w, http.StatusUnauthorized)
	wantCode(t, env, "SESSION_INVALIDATED")

	w, env = s.do(http.MethodGet, "/api/v1/auth/me", second, nil)
	wantStatus(t, w, http.StatusOK)
	var me model.User
	decode(t, env, &me)
	if me.Username != "admin" || me.Role != model.RoleAdmin {
		t.Fatalf("me = %+v", me)
	}

	w, _ = s.do(http.MethodPost, "/api/v1/auth/logout", second, nil)
	wantStatus(t, w, http.StatusOK)
	w, env = s.do(http.MethodGet, "/api/v1/auth/me", second, nil)
	wantStatus(t, w, http.StatusUnauthorized)
	wantCode(t, env, "SESSION_INVALIDATED")
}

func TestInvalidPathID(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	for _, path := range []string{"/api/v1/classes/abc", "/api/v1/requests/0", "/api/v1/users/-3"} {
		w, env := s.do(http.MethodGet, path, admin, nil)
		wantStatus(t, w, http.StatusBadRequest)
		wantCode(t, env, "INVALID_ID")
	}
}

func TestClassCRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	st, token := s.studentAccount("Dilani", "dilani")

	w, env := s.do(http.MethodPost, "/api/v1/classes", admin, model.ClassPayload{
		Name: "Maths", Schedule: "Mon 08:00", StartDate: "2024-02-01", EndDate: "2024-01-01",
	})
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, env, "VALIDATION_ERROR")

	w, env = s.do(http.MethodPost, "/api/v1/classes", admin, model.ClassPayload{
		Name: "Maths", Schedule: "Mon 08:00", StartDate: "2024-01-01", EndDate: "2024-06-30",
	})
	wantStatus(t, w, http.StatusCreated)
	var class model.Class
	decode(t, env, &class)
	if class.StartDate == nil || class.StartDate.String() != "2024-01-01" {
		t.Fatalf("start date = %v", class.StartDate)
	}

	w, _ = s.do(http.MethodPost, "/api/v1/classes", token, model.ClassPayload{Name: "X", Schedule: "Y"})
	wantStatus(t, w, http.StatusForbidden)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/classes/%d/students/%d", class.ID, st.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/classes/%d", class.ID), token, nil)
	wantStatus(t, w, http.StatusOK)
	var detail model.ClassDetail
	decode(t, env, &detail)
	if len(detail.StudentIDs) != 1 || detail.StudentIDs[0] != st.ID {
		t.Fatalf("student ids = %v", detail.StudentIDs)
	}

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/classes/student/%d/available", st.ID), token, nil)
	wantStatus(t, w, http.StatusOK)
	var available []model.Class
	decode(t, env, &available)
	if len(available) != 0 {
		t.Fatalf("available = %+v", available)
	}

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/classes/%d/students/%d", class.ID, st.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/classes/%d", class.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)
	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/classes/%d", class.ID), admin, nil)
	wantStatus(t, w, http.StatusNotFound)
	wantCode(t, env, "NOT_FOUND")
}

func multipartStudent(t *testing.T, payload model.StudentPayload, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("student", string(raw)); err != nil {
		t.Fatal(err)
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("profilePic", "me.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(photo); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestStudentMultipartPhoto(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	body, contentType := multipartStudent(t, model.StudentPayload{FirstName: "Saman", DateOfBirth: "2005-04-01"}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", body)
	req.Header.Set("Content-Type", contentType)
	w, env := s.serve(req, admin)
	wantStatus(t, w, http.StatusCreated)
	var st model.Student
	decode(t, env, &st)

	photoPath := fmt.Sprintf("/api/v1/students/%d/photo", st.ID)
	w, _ = s.do(http.MethodGet, photoPath, admin, nil)
	wantStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "private, max-age=300" {
		t.Errorf("cache control = %q", got)
	}
	if !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Error("photo bytes differ")
	}

	// A JSON update keeps the stored picture.
	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d", st.ID), admin, model.StudentPayload{FirstName: "Saman", LastName: "Perera"})
	wantStatus(t, w, http.StatusOK)
	w, _ = s.do(http.MethodGet, photoPath, admin, nil)
	wantStatus(t, w, http.StatusOK)

	body, contentType = multipartStudent(t, model.StudentPayload{FirstName: "Text"}, []byte("plain text is not an image"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/students", body)
	req.Header.Set("Content-Type", contentType)
	w, env = s.serve(req, admin)
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, env, "UNSUPPORTED_FILE_TYPE")

	body, contentType = multipartStudent(t, model.StudentPayload{}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/students", body)
	req.Header.Set("Content-Type", contentType)
	w, env = s.serve(req, admin)
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, env, "VALIDATION_ERROR")
}

func TestStudentSelfAccess(t *testing.T) {
	s := newTestServer(t)
	st, token := s.studentAccount("Chamari", "chamari")
	other, _ := s.studentAccount("Upul", "upul")

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", st.ID), token, nil)
	wantStatus(t, w, http.StatusOK)
	var detail model.StudentDetail
	decode(t, env, &detail)
	if detail.ID != st.ID || detail.ClassIDs == nil {
		t.Fatalf("detail = %+v", detail)
	}

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", other.ID), token, nil)
	wantStatus(t, w, http.StatusForbidden)
	w, _ = s.do(http.MethodGet, "/api/v1/students", token, nil)
	wantStatus(t, w, http.StatusForbidden)
}

func TestUserManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	w, env := s.do(http.MethodPost, "/api/v1/users", admin, model.CreateUserRequest{
		Username: "tutor", Password: "secret1", Role: model.RoleAdmin,
	})
	wantStatus(t, w, http.StatusCreated)
	var u model.User
	decode(t, env, &u)

	w, env = s.do(http.MethodPost, "/api/v1/users", admin, model.CreateUserRequest{
		Username: "tutor", Password: "secret1", Role: model.RoleAdmin,
	})
	wantStatus(t, w, http.StatusConflict)
	wantCode(t, env, "CONFLICT")

	w, env = s.do(http.MethodPost, "/api/v1/users", admin, map[string]any{
		"username": "ghost", "password": "secret1", "role": "TEACHER",
	})
	wantStatus(t, w, http.StatusBadRequest)
	if env.Error == nil || env.Error.Fields["role"] == "" {
		t.Fatalf("role field error missing: %s", w.Body.String())
	}

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%d", u.ID), admin, model.UpdateUserRequest{
		Username: "head-tutor", Role: model.RoleAdmin,
	})
	wantStatus(t, w, http.StatusOK)
	// The password survived the update.
	s.login("head-tutor", "secret1")

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", u.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)
}

func TestExportAttendance(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	st, _ := s.studentAccount("Nuwan", "nuwan")
	class := s.class("Geography")

	w, _ := s.do(http.MethodPost, "/api/v1/attendance/mark", admin, model.MarkAttendanceRequest{
		ClassID: class.ID, Date: "2024-01-10", StudentAttendance: map[int]bool{st.ID: true},
	})
	wantStatus(t, w, http.StatusOK)

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance/class/%d/export?from=2024-01-01", class.ID), admin, nil)
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, env, "VALIDATION_ERROR")

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance/class/%d/export?from=2024-01-01&to=2024-01-31", class.ID), admin, nil)
	wantStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
}
