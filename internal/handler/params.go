package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
)

// paramID parses a positive integer path parameter. On failure it has
// already written a 400 INVALID_ID response.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// queryDate parses a required YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (model.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{name: name + " is a required field"})
		return model.Date{}, false
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{name: name + " must be a date in YYYY-MM-DD format"})
		return model.Date{}, false
	}
	return d, true
}

// optionalDate parses a YYYY-MM-DD string, returning nil when it is empty.
// Callers validate the format with the "date" binding tag first.
func optionalDate(raw string) *model.Date {
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}
