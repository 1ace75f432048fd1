package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestFailCarriesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		Fail(c, http.StatusConflict, ErrRequestResolved)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID header = %q", got)
	}
	body := decode(t, w)
	if body.Error == nil || body.Error.Code != ErrRequestResolved {
		t.Fatalf("error = %+v", body.Error)
	}
	if body.Error.Message != GetMessage(ErrRequestResolved) {
		t.Errorf("message = %q", body.Error.Message)
	}
	if body.Metadata.RequestID != "req-123" {
		t.Errorf("metadata.request_id = %q", body.Metadata.RequestID)
	}
}

func TestSuccessGeneratesRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decode(t, w)
	if body.Error != nil {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Metadata.RequestID == "" || body.Metadata.Timestamp == "" {
		t.Errorf("metadata not filled: %+v", body.Metadata)
	}
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		Success(c, http.StatusOK, nil)
	})

	for _, header := range []string{"bad id\nwith newline", strings.Repeat("a", 65)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", header)
		r.ServeHTTP(w, req)

		got := w.Header().Get("X-Request-ID")
		if got == header || got == "" {
			t.Errorf("header %q was echoed back as %q", header, got)
		}
		if body := decode(t, w); body.Metadata.RequestID != got {
			t.Errorf("metadata.request_id = %q, header = %q", body.Metadata.RequestID, got)
		}
	}
}
