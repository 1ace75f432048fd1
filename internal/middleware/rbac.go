package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/response"
)

// RequireAdmin only lets ADMIN tokens through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if !claims.IsAdmin() {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin lets admins through, and students only when the student
// id in the named path parameter is their own.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.IsAdmin() {
			c.Next()
			return
		}

		id, err := strconv.Atoi(c.Param(param))
		if err != nil {
			response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		if claims.StudentID == 0 || claims.StudentID != id {
			response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CanActAsStudent reports whether the caller may act on behalf of studentID.
// Handlers use it when the student id arrives in the body instead of the path.
func CanActAsStudent(c *gin.Context, studentID int) bool {
	claims := GetClaims(c)
	if claims == nil {
		return false
	}
	return claims.IsAdmin() || (claims.StudentID != 0 && claims.StudentID == studentID)
}
