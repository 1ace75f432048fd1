package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

// Multipart field names for student create/update.
const (
	formStudent    = "student"
	formProfilePic = "profilePic"
)

// StudentHandler handles student records and their profile pictures.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// ListStudents godoc
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// GetStudent godoc
// GET /api/v1/students/:id
// Returns the student with the ids of the classes they are enrolled in.
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/students
// Accepts a JSON body, or multipart with a "student" JSON part and an optional "profilePic" file.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	student, ok := h.bindStudent(c)
	if !ok {
		return
	}

	if err := h.studentService.Create(c.Request.Context(), student); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/students/:id
// Same body as CreateStudent. Without a new picture the stored one is kept.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	student, ok := h.bindStudent(c)
	if !ok {
		return
	}

	if err := h.studentService.Update(c.Request.Context(), id, student); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/students/:id
// Fails with DEPENDENCY_EXISTS while requests or attendance reference the student.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// GetStudentPhoto godoc
// GET /api/v1/students/:id/photo
// Streams the stored profile picture with its detected content type.
func (h *StudentHandler) GetStudentPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	data, contentType, err := h.studentService.Photo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// bindStudent reads a student from either body format. On failure the
// response has already been written.
func (h *StudentHandler) bindStudent(c *gin.Context) (*model.Student, bool) {
	var payload model.StudentPayload
	var photo []byte

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		raw := c.PostForm(formStudent)
		if raw == "" {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{formStudent: formStudent + " is a required field"})
			return nil, false
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload,
				map[string]string{formStudent: err.Error()})
			return nil, false
		}
		if fields := validator.Struct(&payload); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return nil, false
		}

		header, err := c.FormFile(formProfilePic)
		switch {
		case err == nil:
			photo, err = h.studentService.ReadPhoto(header)
			if err != nil {
				respondError(c, err)
				return nil, false
			}
		case !errors.Is(err, http.ErrMissingFile):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return nil, false
		}
	} else if fields := validator.Bind(c, &payload); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return nil, false
	}

	student := model.NewStudent(
		payload.FirstName,
		payload.LastName,
		payload.Address,
		optionalDate(payload.DateOfBirth),
		payload.NIC,
		payload.Contact,
	)
	student.ProfilePic = photo
	return student, true
}
