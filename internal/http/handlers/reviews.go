package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/reviews"
	"alxtravel.com/app/internal/shared/apperr"
)

type ReviewHandler struct {
	Svc *reviews.Service
}

type reviewInput struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string `json:"comment" binding:"max=5000"`
}

type reviewPatch struct {
	Rating  *int    `json:"rating" binding:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" binding:"omitempty,max=5000"`
}

type reviewJSON struct {
	ID        string    `json:"review_id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewJSON(r reviews.Review) reviewJSON {
	return reviewJSON{
		ID:        r.ID,
		ListingID: r.ListingID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// GET /api/reviews?listing_id=
func (h *ReviewHandler) List(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.Svc.List(c.Request.Context(), c.Query("listing_id"), limit, offset)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	out := make([]reviewJSON, 0, len(items))
	for _, r := range items {
		out = append(out, toReviewJSON(r))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	r, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, reviewError(err))
		return
	}
	c.JSON(http.StatusOK, toReviewJSON(r))
}

// POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var in reviewInput
	if !bind(c, &in) {
		return
	}
	r, err := h.Svc.Create(c.Request.Context(), reviewActor(c), in.ListingID, in.Rating, in.Comment)
	if err != nil {
		middleware.Fail(c, reviewError(err))
		return
	}
	c.JSON(http.StatusCreated, toReviewJSON(r))
}

// PUT|PATCH /api/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	var in reviewPatch
	if !bind(c, &in) {
		return
	}
	r, err := h.Svc.Update(c.Request.Context(), reviewActor(c), c.Param("id"), in.Rating, in.Comment)
	if err != nil {
		middleware.Fail(c, reviewError(err))
		return
	}
	c.JSON(http.StatusOK, toReviewJSON(r))
}

// DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), reviewActor(c), c.Param("id")); err != nil {
		middleware.Fail(c, reviewError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewActor(c *gin.Context) reviews.Actor {
	u := caller(c)
	return reviews.Actor{UserID: u.ID, IsStaff: u.IsStaff}
}

func reviewError(err error) error {
	switch {
	case errors.Is(err, reviews.ErrNotFound):
		return apperr.NotFoundErr("Review not found.")
	case errors.Is(err, reviews.ErrListingNotFound):
		return apperr.InvalidErr("Invalid input.", map[string]string{"listing_id": "Listing does not exist."})
	case errors.Is(err, reviews.ErrInvalidRating):
		return apperr.InvalidErr("Invalid input.", map[string]string{"rating": "Must be between 1 and 5."})
	case errors.Is(err, reviews.ErrForbidden):
		return apperr.ForbiddenErr("Only the author can change this review.")
	case errors.Is(err, reviews.ErrAlreadyReviewed):
		return apperr.ConflictErr("You have already reviewed this listing.")
	default:
		return apperr.Wrap(err)
	}
}
