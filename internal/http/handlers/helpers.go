package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/http/validation"
	"alxtravel.com/app/internal/shared/apperr"
)

const maxPageSize = 100

// bind decodes the request into dst and records a 400 with field errors on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", validation.FromBindError(err, dst)))
		return false
	}
	return true
}

// page reads ?limit and ?offset, capping limit.
func page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// caller is only valid behind RequireAuth.
func caller(c *gin.Context) middleware.ContextUser {
	u, _ := middleware.CurrentUser(c)
	return u
}
