package middleware

import (
	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/shared/apperr"
)

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		Fail(c, apperr.UnauthorizedErr("Authentication credentials were not provided."))
	}
}
