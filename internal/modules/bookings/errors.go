package bookings

import "errors"

var (
	ErrNotFound        = errors.New("booking not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidDates    = errors.New("end date must be after start date")
	ErrNotPending      = errors.New("booking is not pending")
	ErrHasPayment      = errors.New("booking has a payment")
	// ErrPaymentInProgress means a checkout was opened at the gateway.
	ErrPaymentInProgress = errors.New("booking has a payment in progress")
)
