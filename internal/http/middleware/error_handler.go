package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/shared/apperr"
)

// Fail records err for ErrorHandler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last recorded error as
// {"error", "request_id", "fields"} unless a response was already written.
func ErrorHandler(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		writeError(c, l, c.Errors.Last().Err)
	}
}

func writeError(c *gin.Context, l *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	rid := GetRequestID(c)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	l.LogAttrs(c.Request.Context(), level, "request_failed",
		slog.String("request_id", rid),
		slog.Int("status", status),
		slog.Any("err", err),
	)

	payload := gin.H{
		"error":      apperr.PublicMessage(err),
		"request_id": rid,
	}
	if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
		payload["fields"] = ae.Fields
	}
	c.AbortWithStatusJSON(status, payload)
}
