package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Payment struct {
	ID            string          `gorm:"type:char(36);primaryKey"`
	BookingID     string          `gorm:"type:char(36);not null;uniqueIndex:ux_payments_booking_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency      string          `gorm:"type:char(3);not null"`
	TransactionID *string         `gorm:"type:varchar(128)"`
	CheckoutURL   *string         `gorm:"type:varchar(1024)"`
	Status        string          `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// IsTerminal reports whether status is final. Only pending payments change.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
