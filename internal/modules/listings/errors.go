package listings

import "errors"

var (
	ErrNotFound    = errors.New("listing not found")
	ErrForbidden   = errors.New("not the listing host")
	ErrHasBookings = errors.New("listing has bookings")
)
