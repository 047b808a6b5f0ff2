package bookings

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

// paymentPending mirrors the payments package status; that package imports
// this one.
const paymentPending = "pending"

type Booking struct {
	ID         string          `gorm:"type:char(36);primaryKey"`
	UserID     string          `gorm:"type:char(36);not null;index:ix_bookings_user_id"`
	ListingID  string          `gorm:"type:char(36);not null;index:ix_bookings_listing_id"`
	StartDate  time.Time       `gorm:"type:date;not null"`
	EndDate    time.Time       `gorm:"type:date;not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status     string          `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

// Nights counts whole days between start and end.
func Nights(start, end time.Time) int {
	s := truncateDay(start)
	e := truncateDay(end)
	return int(e.Sub(s).Hours() / 24)
}

// TotalFor is nights × price per night, rounded to cents.
func TotalFor(pricePerNight decimal.Decimal, start, end time.Time) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(int64(Nights(start, end)))).Round(2)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
