package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

// APIKeyAuth guards admin/ops routes with the shared X-API-Key header.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "error.unauthorized", "missing or invalid API key")
			c.Abort()
			return
		}
		c.Next()
	}
}
