package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// PrivateCache lets browsers, but not shared caches, reuse authenticated responses.
func PrivateCache(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}
