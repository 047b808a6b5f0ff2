package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/payments"
	"alxtravel.com/app/internal/shared/apperr"
)

const verifyPath = "/api/payments/verify/"

type PaymentHandler struct {
	Svc *payments.Service
	// BaseURL is the public origin for the gateway callback; empty derives it from the request.
	BaseURL string
}

type initiateInput struct {
	BookingID string `json:"booking_id" form:"booking_id"`
}

// POST /api/payments/initiate/
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var in initiateInput
	_ = c.ShouldBind(&in)
	in.BookingID = strings.TrimSpace(in.BookingID)
	if in.BookingID == "" {
		middleware.Fail(c, apperr.InvalidErr("Booking ID is required.", nil))
		return
	}

	u := caller(c)
	res, err := h.Svc.Initiate(c.Request.Context(), payments.InitiateInput{
		BookingID: in.BookingID,
		Payer: payments.Payer{
			UserID:    u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
		CallbackURL: h.callbackURL(c),
	})
	if err != nil {
		middleware.Fail(c, initiateError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":   res.PaymentID,
		"payment_link": res.PaymentLink,
		"status":       res.Status,
	})
}

// GET /api/payments/verify/?transaction_id=&tx_ref=
func (h *PaymentHandler) Verify(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Query("transaction_id"))
	txRef := strings.TrimSpace(c.Query("tx_ref"))
	if transactionID == "" || txRef == "" {
		middleware.Fail(c, apperr.InvalidErr("Missing transaction_id or tx_ref parameter.", nil))
		return
	}

	res, err := h.Svc.Verify(c.Request.Context(), transactionID, txRef)
	if err != nil {
		middleware.Fail(c, verifyError(err))
		return
	}

	switch res.Status {
	case payments.StatusCompleted:
		c.JSON(http.StatusOK, gin.H{"message": "Payment verified and booking confirmed."})
	case payments.StatusFailed:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payment verification unsuccessful."})
	default:
		middleware.Fail(c, apperr.Wrap(errors.New("payment still pending after verification")))
	}
}

func (h *PaymentHandler) callbackURL(c *gin.Context) string {
	base := strings.TrimRight(h.BaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if p := c.GetHeader("X-Forwarded-Proto"); p == "http" || p == "https" {
			scheme = p
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + verifyPath
}

func initiateError(err error) error {
	switch {
	case errors.Is(err, payments.ErrBookingNotFound):
		return apperr.NotFoundErr("Booking not found.")
	case errors.Is(err, payments.ErrAlreadyPaid):
		return apperr.ConflictErr("Payment already completed.")
	case errors.Is(err, payments.ErrPaymentClosed):
		return apperr.ConflictErr("Payment has failed and cannot be re-initiated.")
	case errors.Is(err, payments.ErrBookingNotPending):
		return apperr.ConflictErr("Booking is not pending.")
	case errors.Is(err, payments.ErrGatewayNotConfigured):
		return apperr.InternalErr("Chapa secret key not configured.", err)
	case errors.Is(err, payments.ErrGatewayInvalidResponse):
		return apperr.UpstreamErr("Invalid response from Chapa.", err)
	case errors.Is(err, payments.ErrGatewayFailed):
		return apperr.UpstreamErr("Failed to initiate payment with Chapa.", err)
	default:
		return apperr.Wrap(err)
	}
}

func verifyError(err error) error {
	switch {
	case errors.Is(err, payments.ErrPaymentNotFound):
		return apperr.NotFoundErr("Payment record not found.")
	case errors.Is(err, payments.ErrBookingNotPending):
		return apperr.ConflictErr("Booking is no longer pending.")
	case errors.Is(err, payments.ErrGatewayNotConfigured):
		return apperr.InternalErr("Chapa secret key not configured.", err)
	case errors.Is(err, payments.ErrGatewayFailed), errors.Is(err, payments.ErrGatewayInvalidResponse):
		return apperr.UpstreamErr("Payment verification failed with Chapa.", err)
	default:
		return apperr.Wrap(err)
	}
}
