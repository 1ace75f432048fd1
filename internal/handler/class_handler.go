package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

// ClassHandler handles classes and their membership.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// ListClasses godoc
// GET /api/v1/classes
// Lists all classes without pagination.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.classService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetClass godoc
// GET /api/v1/classes/:id
// Returns the class with the ids of its enrolled students.
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// CreateClass godoc
// POST /api/v1/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.ClassPayload
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class := classFromPayload(req)
	if err := h.classService.Create(c.Request.Context(), class); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// UpdateClass godoc
// PUT /api/v1/classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.ClassPayload
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class := classFromPayload(req)
	if err := h.classService.Update(c.Request.Context(), id, class); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/v1/classes/:id
// Memberships are removed with the class. Fails while requests or attendance reference it.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "class deleted successfully"})
}

// ListClassStudents godoc
// GET /api/v1/classes/:id/students
func (h *ClassHandler) ListClassStudents(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	students, err := h.classService.ListStudents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// AddStudent godoc
// POST /api/v1/classes/:id/students/:studentId
// Enrolls a student directly, bypassing the request workflow.
func (h *ClassHandler) AddStudent(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	if err := h.classService.AddStudent(c.Request.Context(), classID, studentID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student added to class"})
}

// RemoveStudent godoc
// DELETE /api/v1/classes/:id/students/:studentId
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	if err := h.classService.RemoveStudent(c.Request.Context(), classID, studentID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student removed from class"})
}

// ListStudentClasses godoc
// GET /api/v1/classes/student/:studentId
// Lists the classes the student is enrolled in.
func (h *ClassHandler) ListStudentClasses(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	classes, err := h.classService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// ListAvailableClasses godoc
// GET /api/v1/classes/student/:studentId/available
// Lists the classes the student is not enrolled in yet.
func (h *ClassHandler) ListAvailableClasses(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	classes, err := h.classService.ListAvailableForStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

func classFromPayload(req model.ClassPayload) *model.Class {
	return model.NewClass(
		req.Name,
		req.Description,
		req.Schedule,
		optionalDate(req.StartDate),
		optionalDate(req.EndDate),
	)
}
