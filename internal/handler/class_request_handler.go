package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

// ClassRequestHandler handles the enrollment request workflow.
type ClassRequestHandler struct {
	requestService *service.ClassRequestService
}

// NewClassRequestHandler creates a new ClassRequestHandler.
func NewClassRequestHandler(requestService *service.ClassRequestService) *ClassRequestHandler {
	return &ClassRequestHandler{requestService: requestService}
}

// CreateRequest godoc
// POST /api/v1/requests
// Files a PENDING request. Students may only file requests for themselves.
func (h *ClassRequestHandler) CreateRequest(c *gin.Context) {
	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !middleware.CanActAsStudent(c, req.StudentID) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	created, err := h.requestService.Create(c.Request.Context(), req.StudentID, req.ClassID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"request": created})
}

// ListRequests godoc
// GET /api/v1/requests
func (h *ClassRequestHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// ListPendingRequests godoc
// GET /api/v1/requests/pending
func (h *ClassRequestHandler) ListPendingRequests(c *gin.Context) {
	requests, err := h.requestService.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// GetRequest godoc
// GET /api/v1/requests/:id
func (h *ClassRequestHandler) GetRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	req, err := h.requestService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": req})
}

// ListClassRequests godoc
// GET /api/v1/requests/class/:classId
func (h *ClassRequestHandler) ListClassRequests(c *gin.Context) {
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}

	requests, err := h.requestService.ListByClass(c.Request.Context(), classID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// ListStudentRequests godoc
// GET /api/v1/requests/student/:studentId
func (h *ClassRequestHandler) ListStudentRequests(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	requests, err := h.requestService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// HasPendingRequest godoc
// GET /api/v1/requests/student/:studentId/class/:classId/pending
// Reports whether a PENDING request exists for the pair.
func (h *ClassRequestHandler) HasPendingRequest(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}

	pending, err := h.requestService.HasExistingRequest(c.Request.Context(), studentID, classID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pending": pending})
}

// ApproveRequest godoc
// PUT /api/v1/requests/:id/approve
// Approves a PENDING request and enrolls the student. Body {"notes"} is optional.
func (h *ClassRequestHandler) ApproveRequest(c *gin.Context) {
	h.resolve(c, h.requestService.Approve)
}

// RejectRequest godoc
// PUT /api/v1/requests/:id/reject
// Rejects a PENDING request. Body {"notes"} is optional.
func (h *ClassRequestHandler) RejectRequest(c *gin.Context) {
	h.resolve(c, h.requestService.Reject)
}

type resolveFunc func(ctx context.Context, requestID int, notes string) (*model.ClassRequest, error)

func (h *ClassRequestHandler) resolve(c *gin.Context, fn resolveFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var body model.ResolveClassRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &body); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	resolved, err := fn(c.Request.Context(), id, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": resolved})
}
