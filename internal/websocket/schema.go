package websocket

import "github.com/stemsi/classroom-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionFilter Action = "filter"
)

// Request is any client message. ClassID is only read by ActionFilter;
// a null or zero ClassID removes the filter.
type Request struct {
	Action  Action `json:"action"`
	ClassID *int   `json:"class_id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventPong     Event = "pong"
	EventFiltered Event = "filtered"
	EventWorkflow Event = "event"
)

// WorkflowResponse carries one committed workflow change.
type WorkflowResponse struct {
	Event Event       `json:"event"`
	Data  model.Event `json:"data"`
}

// FilteredResponse confirms the class filter now in effect. Zero means none.
type FilteredResponse struct {
	Event   Event `json:"event"`
	ClassID int   `json:"class_id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
