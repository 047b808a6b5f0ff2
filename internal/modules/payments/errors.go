package payments

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyPaid     = errors.New("payment already completed")
	ErrPaymentClosed   = errors.New("payment failed and cannot be re-initiated")

	// ErrBookingNotPending means the booking was canceled or settled elsewhere.
	ErrBookingNotPending = errors.New("booking is not pending")

	ErrGatewayNotConfigured   = errors.New("gateway secret key not configured")
	ErrGatewayFailed          = errors.New("gateway request failed")
	ErrGatewayInvalidResponse = errors.New("invalid gateway response")
)
