package email

import (
	"time"

	"gorm.io/datatypes"
)

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobSent       = "sent"
	JobDead       = "dead"
)

const KindBookingConfirmation = "booking_confirmation"

type OutboxJob struct {
	ID            string         `gorm:"type:char(36);primaryKey"`
	Kind          string         `gorm:"type:varchar(64);not null"`
	Recipient     string         `gorm:"type:varchar(255);not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Status        string         `gorm:"type:varchar(16);not null;index:ix_outbox_jobs_due,priority:1"`
	Attempts      int            `gorm:"not null;default:0"`
	MaxAttempts   int            `gorm:"not null"`
	NextAttemptAt time.Time      `gorm:"not null;index:ix_outbox_jobs_due,priority:2"`
	LockedUntil   *time.Time
	LastError     *string        `gorm:"type:varchar(512)"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
	SentAt        *time.Time
}

func (OutboxJob) TableName() string { return "outbox_jobs" }

// BookingConfirmation is the payload of KindBookingConfirmation jobs.
type BookingConfirmation struct {
	BookingID    string `json:"booking_id"`
	UserEmail    string `json:"user_email"`
	ListingTitle string `json:"listing_title"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	TotalPrice   string `json:"total_price,omitempty"`
	Currency     string `json:"currency,omitempty"`
	// Paid is set once the booking's payment has been verified.
	Paid bool `json:"paid"`
}
