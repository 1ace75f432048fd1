package model

// Attendance records whether a student was present at one class session.
type Attendance struct {
	ID        int    `json:"id" db:"id"`
	StudentID int    `json:"student_id" db:"student_id"`
	ClassID   int    `json:"class_id" db:"class_id"`
	Date      Date   `json:"date" db:"date"`
	Present   bool   `json:"present" db:"present"`
	Notes     string `json:"notes" db:"notes"`
}

// AttendancePayload is the body for creating or updating a single record.
type AttendancePayload struct {
	StudentID int    `json:"studentId" binding:"required,min=1"`
	ClassID   int    `json:"classId" binding:"required,min=1"`
	Date      string `json:"date" binding:"required,date"`
	Present   bool   `json:"present"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
}

// MarkAttendanceRequest replaces every record of one class session.
// StudentAttendance is keyed by student id.
type MarkAttendanceRequest struct {
	ClassID           int          `json:"classId" binding:"required,min=1"`
	Date              string       `json:"date" binding:"required,date"`
	StudentAttendance map[int]bool `json:"studentAttendance" binding:"required"`
}
