package model

// Student is a learner record. Class membership is held in the
// class_students join relation, not on the student.
type Student struct {
	ID          int    `json:"id" db:"id"`
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	Address     string `json:"address" db:"address"`
	DateOfBirth *Date  `json:"dob" db:"dob"`
	NIC         string `json:"nic" db:"nic"`
	Contact     string `json:"contact" db:"contact"`
	ProfilePic  []byte `json:"-" db:"profile_pic"`
}

// NewStudent builds a student without a profile picture.
func NewStudent(firstName, lastName, address string, dob *Date, nic, contact string) *Student {
	return &Student{
		FirstName:   firstName,
		LastName:    lastName,
		Address:     address,
		DateOfBirth: dob,
		NIC:         nic,
		Contact:     contact,
	}
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// StudentDetail is a student together with the ids of the classes they are enrolled in.
type StudentDetail struct {
	Student
	ClassIDs []int `json:"class_ids"`
}

// StudentPayload is the JSON body for creating or updating a student.
type StudentPayload struct {
	FirstName   string `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string `json:"last_name" binding:"omitempty,max=100"`
	Address     string `json:"address" binding:"omitempty,max=255"`
	DateOfBirth string `json:"dob" binding:"omitempty,date"`
	NIC         string `json:"nic" binding:"omitempty,max=20"`
	Contact     string `json:"contact" binding:"omitempty,max=20"`
}
