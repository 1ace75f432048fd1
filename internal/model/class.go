package model

// Class is a course offering students can enrol in.
type Class struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Schedule    string `json:"schedule" db:"schedule"`
	StartDate   *Date  `json:"start_date" db:"start_date"`
	EndDate     *Date  `json:"end_date" db:"end_date"`
}

// NewClass builds a class running between start and end.
func NewClass(name, description, schedule string, start, end *Date) *Class {
	return &Class{
		Name:        name,
		Description: description,
		Schedule:    schedule,
		StartDate:   start,
		EndDate:     end,
	}
}

// ClassDetail is a class together with the ids of its enrolled students.
type ClassDetail struct {
	Class
	StudentIDs []int `json:"student_ids"`
}

// ClassPayload is the JSON body for creating or updating a class.
type ClassPayload struct {
	Name        string `json:"name" binding:"required,min=1,max=150"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Schedule    string `json:"schedule" binding:"required,min=1,max=150"`
	StartDate   string `json:"start_date" binding:"omitempty,date"`
	EndDate     string `json:"end_date" binding:"omitempty,date"`
}
