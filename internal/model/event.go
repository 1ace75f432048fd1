package model

import "time"

// EventType names a committed workflow change.
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestApproved  EventType = "request.approved"
	EventRequestRejected  EventType = "request.rejected"
	EventAttendanceMarked EventType = "attendance.marked"
)

// Event is broadcast to live subscribers after a workflow operation commits.
// ID is unique per published event.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	RequestID  int       `json:"request_id,omitempty"`
	StudentID  int       `json:"student_id,omitempty"`
	ClassID    int       `json:"class_id"`
	Date       *Date     `json:"date,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
