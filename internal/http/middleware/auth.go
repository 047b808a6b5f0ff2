package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/modules/users"
)

const ctxKeyUser = "current_user"

// ContextUser is the authenticated caller.
type ContextUser struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool
}

type TokenParser interface {
	Parse(token string) (string, error)
}

type UserLoader interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// Authenticate loads the bearer token's user into the context when present.
// Anonymous requests pass through; RequireAuth enforces a login.
func Authenticate(tokens TokenParser, loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.Next()
			return
		}
		userID, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
		if err != nil {
			c.Next()
			return
		}
		u, err := loader.Get(c.Request.Context(), userID)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ctxKeyUser, ContextUser{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			IsStaff:   u.IsStaff,
		})
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (ContextUser, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return ContextUser{}, false
	}
	u, ok := v.(ContextUser)
	return u, ok && u.ID != ""
}
