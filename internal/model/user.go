package model

// Role is the authorization role of a user account.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User is a login account. StudentID is set iff Role is STUDENT.
type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	StudentID    *int   `json:"student_id,omitempty" db:"student_id"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=100"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Role      Role   `json:"role" binding:"required,oneof=ADMIN STUDENT"`
	StudentID *int   `json:"studentId" binding:"omitempty,min=1"`
}

// UpdateUserRequest is the payload for updating a user. An empty password keeps the current one.
type UpdateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=100"`
	Password  string `json:"password" binding:"omitempty,min=6,max=128"`
	Role      Role   `json:"role" binding:"required,oneof=ADMIN STUDENT"`
	StudentID *int   `json:"studentId" binding:"omitempty,min=1"`
}
