package reviews

import "errors"

var (
	ErrNotFound        = errors.New("review not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrForbidden       = errors.New("not the review author")
	ErrAlreadyReviewed = errors.New("listing already reviewed by user")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)
