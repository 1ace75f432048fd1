package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/events"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
	"github.com/stemsi/classroom-backend/internal/router"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

const adminPassword = "admin-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	bus      *events.LocalBus
	activity *events.MemoryActivityLog
	students *service.StudentService
	classes  *service.ClassService
	users    *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		GinMode:            gin.TestMode,
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		MaxUploadBytes:     1 << 20,
		LoginRatePerMinute: 1000,
	}
	log := zerolog.Nop()
	store := memory.New()
	bus := events.NewLocalBus()
	activity := events.NewMemoryActivityLog(events.DefaultActivityCapacity)

	users := service.NewUserService(store, 4)
	students := service.NewStudentService(store, cfg.MaxUploadBytes)
	classes := service.NewClassService(store)
	authService := service.NewAuthService(users, service.NewMemorySessionStore(), cfg.JWTSecret, cfg.JWTExpiry, log)
	attendance := service.NewAttendanceService(store, bus, log)

	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Student:    handler.NewStudentHandler(students),
		Class:      handler.NewClassHandler(classes),
		Request:    handler.NewClassRequestHandler(service.NewClassRequestService(store, bus, log)),
		Attendance: handler.NewAttendanceHandler(attendance, service.NewReportService(store)),
		User:       handler.NewUserHandler(users),
		WS:         handler.NewWSHandler(bus, log, nil),
		Activity:   handler.NewActivityHandler(activity),
	}

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)
	t.Cleanup(limiter.Stop)

	if _, err := users.Create(context.Background(), model.CreateUserRequest{
		Username: "admin", Password: adminPassword, Role: model.RoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	return &testServer{
		t:        t,
		engine:   router.SetupRouter(authService, handlers, limiter, cfg, log),
		bus:      bus,
		activity: activity,
		students: students,
		classes:  classes,
		users:    users,
	}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, token)
}

func (s *testServer) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if json.Valid(w.Body.Bytes()) {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: username, Password: password})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var res model.LoginResponse
	decode(s.t, env, &res)
	return res.Token
}

func (s *testServer) adminToken() string {
	return s.login("admin", adminPassword)
}

// studentAccount creates a student with a STUDENT login and returns both.
func (s *testServer) studentAccount(first, username string) (*model.Student, string) {
	s.t.Helper()
	ctx := context.Background()
	st := model.NewStudent(first, "Tester", "", nil, "", "")
	if err := s.students.Create(ctx, st); err != nil {
		s.t.Fatalf("create student: %v", err)
	}
	if _, err := s.users.Create(ctx, model.CreateUserRequest{
		Username: username, Password: "student-pass", Role: model.RoleStudent, StudentID: &st.ID,
	}); err != nil {
		s.t.Fatalf("create student user: %v", err)
	}
	return st, s.login(username, "student-pass")
}

func (s *testServer) class(name string) *model.Class {
	s.t.Helper()
	c := model.NewClass(name, "", "Tue 09:00", nil, nil)
	if err := s.classes.Create(context.Background(), c); err != nil {
		s.t.Fatalf("create class: %v", err)
	}
	return c
}

// decode unwraps a single-key payload such as {"class": {...}} into dst,
// or the whole data object when it has several keys.
func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && len(wrapped) == 1 {
		for _, v := range wrapped {
			if err := json.Unmarshal(v, dst); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			return
		}
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func wantCode(t *testing.T, env envelope, want string) {
	t.Helper()
	if env.Error == nil {
		t.Fatalf("error code missing, want %s", want)
	}
	if env.Error.Code != want {
		t.Fatalf("error code = %s, want %s", env.Error.Code, want)
	}
}
