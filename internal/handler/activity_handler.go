package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/events"
	"github.com/stemsi/classroom-backend/internal/response"
)

const defaultActivityLimit = 50

// ActivityHandler serves the recent workflow activity feed.
type ActivityHandler struct {
	activity events.ActivityLog
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activity events.ActivityLog) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// ListActivity godoc
// GET /api/v1/activity?limit=
// Returns the most recent request and attendance events, newest first.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > events.DefaultActivityCapacity {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"limit": "limit must be between 1 and " + strconv.Itoa(events.DefaultActivityCapacity)})
			return
		}
		limit = n
	}

	recent, err := h.activity.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": recent})
}
