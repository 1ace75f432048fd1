package model

import "time"

// RequestStatus is the lifecycle state of a class request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// ClassRequest is a student's request to join a class.
type ClassRequest struct {
	ID            int           `json:"id" db:"id"`
	StudentID     int           `json:"student_id" db:"student_id"`
	ClassID       int           `json:"class_id" db:"class_id"`
	RequestDate   time.Time     `json:"request_date" db:"request_date"`
	Status        RequestStatus `json:"status" db:"status"`
	ResponseDate  *time.Time    `json:"response_date,omitempty" db:"response_date"`
	ResponseNotes *string       `json:"response_notes,omitempty" db:"response_notes"`
}

// IsPending reports whether the request still awaits a decision.
func (r *ClassRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// CreateClassRequest is the payload for POST /requests.
type CreateClassRequest struct {
	StudentID int `json:"studentId" binding:"required,min=1"`
	ClassID   int `json:"classId" binding:"required,min=1"`
}

// ResolveClassRequest is the optional payload for approve/reject.
type ResolveClassRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=2000"`
}
