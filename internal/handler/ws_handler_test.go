package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/classroom-backend/internal/model"
	ws "github.com/stemsi/classroom-backend/internal/websocket"
)

func dialEvents(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/events?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	admin := s.adminToken()
	st, studentToken := s.studentAccount("Kasun", "kasun")
	physics := s.class("Physics")
	music := s.class("Music")

	if _, resp, err := dialEvents(t, srv, studentToken); err == nil {
		t.Fatal("student connected to the admin event stream")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student dial: %v", err)
	}

	conn, _, err := dialEvents(t, srv, admin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(ws.Request{Action: ws.ActionPing}); err != nil {
		t.Fatal(err)
	}
	var pong ws.PongResponse
	if err := conn.ReadJSON(&pong); err != nil || pong.Event != ws.EventPong {
		t.Fatalf("pong = %+v, err = %v", pong, err)
	}

	classID := physics.ID
	if err := conn.WriteJSON(ws.Request{Action: ws.ActionFilter, ClassID: &classID}); err != nil {
		t.Fatal(err)
	}
	var filtered ws.FilteredResponse
	if err := conn.ReadJSON(&filtered); err != nil || filtered.ClassID != physics.ID {
		t.Fatalf("filtered = %+v, err = %v", filtered, err)
	}

	// Only the second mark matches the filter.
	for _, classID := range []int{music.ID, physics.ID} {
		w, _ := s.do(http.MethodPost, "/api/v1/attendance/mark", admin, model.MarkAttendanceRequest{
			ClassID: classID, Date: "2024-01-10", StudentAttendance: map[int]bool{st.ID: true},
		})
		wantStatus(t, w, http.StatusOK)
	}

	var msg ws.WorkflowResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Event != ws.EventWorkflow || msg.Data.Type != model.EventAttendanceMarked || msg.Data.ClassID != physics.ID {
		t.Fatalf("event = %+v", msg)
	}
	if msg.Data.Count != 1 || msg.Data.Date == nil || msg.Data.Date.String() != "2024-01-10" {
		t.Fatalf("event data = %+v", msg.Data)
	}
}
