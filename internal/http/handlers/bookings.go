package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/shared/apperr"
)

type BookingHandler struct {
	Svc *bookings.Service
}

type bookingInput struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

type rescheduleInput struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

type bookingJSON struct {
	ID         string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	ListingID  string    `json:"listing_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBookingJSON(b bookings.Booking) bookingJSON {
	return bookingJSON{
		ID:         b.ID,
		UserID:     b.UserID,
		ListingID:  b.ListingID,
		StartDate:  b.StartDate.Format(time.DateOnly),
		EndDate:    b.EndDate.Format(time.DateOnly),
		TotalPrice: b.TotalPrice.StringFixed(2),
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// GET /api/bookings
func (h *BookingHandler) List(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.Svc.List(c.Request.Context(), bookingActor(c), limit, offset)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	out := make([]bookingJSON, 0, len(items))
	for _, b := range items {
		out = append(out, toBookingJSON(b))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), bookingActor(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, bookingError(err))
		return
	}
	c.JSON(http.StatusOK, toBookingJSON(b))
}

// POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var in bookingInput
	if !bind(c, &in) {
		return
	}
	start, _ := time.Parse(time.DateOnly, in.StartDate)
	end, _ := time.Parse(time.DateOnly, in.EndDate)

	b, err := h.Svc.Create(c.Request.Context(), bookingActor(c), bookings.CreateInput{
		ListingID: in.ListingID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		middleware.Fail(c, bookingError(err))
		return
	}
	c.JSON(http.StatusCreated, toBookingJSON(b))
}

// PUT|PATCH /api/bookings/:id
func (h *BookingHandler) Update(c *gin.Context) {
	var in rescheduleInput
	if !bind(c, &in) {
		return
	}
	start, _ := time.Parse(time.DateOnly, in.StartDate)
	end, _ := time.Parse(time.DateOnly, in.EndDate)

	b, err := h.Svc.Reschedule(c.Request.Context(), bookingActor(c), c.Param("id"), start, end)
	if err != nil {
		middleware.Fail(c, bookingError(err))
		return
	}
	c.JSON(http.StatusOK, toBookingJSON(b))
}

// POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	b, err := h.Svc.Cancel(c.Request.Context(), bookingActor(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, bookingError(err))
		return
	}
	c.JSON(http.StatusOK, toBookingJSON(b))
}

// DELETE /api/bookings/:id
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), bookingActor(c), c.Param("id")); err != nil {
		middleware.Fail(c, bookingError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func bookingActor(c *gin.Context) bookings.Actor {
	u := caller(c)
	return bookings.Actor{UserID: u.ID, Email: u.Email, IsStaff: u.IsStaff}
}

func bookingError(err error) error {
	switch {
	case errors.Is(err, bookings.ErrNotFound):
		return apperr.NotFoundErr("Booking not found.")
	case errors.Is(err, bookings.ErrListingNotFound):
		return apperr.InvalidErr("Invalid input.", map[string]string{"listing_id": "Listing does not exist."})
	case errors.Is(err, bookings.ErrInvalidDates):
		return apperr.InvalidErr("Invalid input.", map[string]string{"end_date": "Must be after start_date."})
	case errors.Is(err, bookings.ErrNotPending):
		return apperr.ConflictErr("Only pending bookings can be changed.")
	case errors.Is(err, bookings.ErrHasPayment):
		return apperr.ConflictErr("Booking has a payment and can no longer be changed.")
	case errors.Is(err, bookings.ErrPaymentInProgress):
		return apperr.ConflictErr("Booking has a payment in progress and cannot be canceled.")
	default:
		return apperr.Wrap(err)
	}
}
