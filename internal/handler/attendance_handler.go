package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler handles the attendance ledger.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	reportService     *service.ReportService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService, reportService *service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		reportService:     reportService,
	}
}

// MarkAttendance godoc
// POST /api/v1/attendance/mark
// Replaces the whole (class, date) session with the submitted presence map.
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req model.MarkAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// The binding tag has already checked the format.
	date, _ := model.ParseDate(req.Date)
	records, err := h.attendanceService.Mark(c.Request.Context(), req.ClassID, date, req.StudentAttendance)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": records})
}

// GetPercentages godoc
// GET /api/v1/attendance/student/:studentId/percentage
// Returns {classId: percentage} for every class the student is enrolled in.
func (h *AttendanceHandler) GetPercentages(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	percentages, err := h.attendanceService.PercentageByClass(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"percentages": percentages})
}

// ExportClassAttendance godoc
// GET /api/v1/attendance/class/:classId/export?from=YYYY-MM-DD&to=YYYY-MM-DD
// Downloads the class's records in the range as an XLSX workbook.
func (h *AttendanceHandler) ExportClassAttendance(c *gin.Context) {
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	f, err := h.reportService.AttendanceWorkbook(c.Request.Context(), classID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, fmt.Errorf("write workbook: %w", err))
		return
	}

	filename := fmt.Sprintf("attendance-class-%d-%s-%s.xlsx", classID, from, to)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}

// ─── Single records ─────────────────────────────────────────────────

// ListAttendance godoc
// GET /api/v1/attendance
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.List(c.Request.Context())
	})
}

// GetAttendance godoc
// GET /api/v1/attendance/:id
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	record, err := h.attendanceService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": record})
}

// CreateAttendance godoc
// POST /api/v1/attendance
func (h *AttendanceHandler) CreateAttendance(c *gin.Context) {
	record, ok := bindAttendance(c)
	if !ok {
		return
	}

	if err := h.attendanceService.Create(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attendance": record})
}

// UpdateAttendance godoc
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) UpdateAttendance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	record, ok := bindAttendance(c)
	if !ok {
		return
	}

	if err := h.attendanceService.Update(c.Request.Context(), id, record); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": record})
}

// DeleteAttendance godoc
// DELETE /api/v1/attendance/:id
func (h *AttendanceHandler) DeleteAttendance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.attendanceService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "attendance deleted successfully"})
}

// ─── Filtered reads ─────────────────────────────────────────────────

// ListClassAttendance godoc
// GET /api/v1/attendance/class/:classId
func (h *AttendanceHandler) ListClassAttendance(c *gin.Context) {
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.ListByClass(c.Request.Context(), classID)
	})
}

// ListDateAttendance godoc
// GET /api/v1/attendance/date?date=YYYY-MM-DD
func (h *AttendanceHandler) ListDateAttendance(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.ListByDate(c.Request.Context(), date)
	})
}

// ListSessionAttendance godoc
// GET /api/v1/attendance/class/:classId/date?date=YYYY-MM-DD
func (h *AttendanceHandler) ListSessionAttendance(c *gin.Context) {
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.ListByClassAndDate(c.Request.Context(), classID, date)
	})
}

// ListStudentAttendance godoc
// GET /api/v1/attendance/student/:studentId
func (h *AttendanceHandler) ListStudentAttendance(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.ListByStudent(c.Request.Context(), studentID)
	})
}

// ListStudentClassAttendance godoc
// GET /api/v1/attendance/student/:studentId/class/:classId
func (h *AttendanceHandler) ListStudentClassAttendance(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}
	h.list(c, func() ([]model.Attendance, error) {
		return h.attendanceService.ListByStudentAndClass(c.Request.Context(), studentID, classID)
	})
}

func (h *AttendanceHandler) list(c *gin.Context, fetch func() ([]model.Attendance, error)) {
	records, err := fetch()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attendance": records})
}

func bindAttendance(c *gin.Context) (*model.Attendance, bool) {
	var req model.AttendancePayload
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return nil, false
	}

	date, _ := model.ParseDate(req.Date)
	return &model.Attendance{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      date,
		Present:   req.Present,
		Notes:     req.Notes,
	}, true
}
