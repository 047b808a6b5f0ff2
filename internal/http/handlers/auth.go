package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/auth"
	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/users"
	"alxtravel.com/app/internal/shared/apperr"
)

type AuthHandler struct {
	Users  *users.Service
	Tokens *auth.Issuer
}

type registerInput struct {
	Email     string `json:"email" form:"email" binding:"required,email,max=255"`
	Password  string `json:"password" form:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" form:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" form:"last_name" binding:"max=100"`
}

type loginInput struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type userJSON struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	IsStaff   bool       `json:"is_staff"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if !bind(c, &in) {
		return
	}
	u, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			middleware.Fail(c, apperr.ConflictErr("A user with that email already exists."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":       toUserJSON(u),
		"token":      token,
		"expires_in": int(h.Tokens.TTL().Seconds()),
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if !bind(c, &in) {
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			middleware.Fail(c, apperr.UnauthorizedErr("Invalid email or password."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(h.Tokens.TTL().Seconds())})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u := caller(c)
	c.JSON(http.StatusOK, userJSON{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
	})
}

func toUserJSON(u users.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		CreatedAt: &u.CreatedAt,
	}
}
