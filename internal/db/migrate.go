package db

import (
	"fmt"

	"gorm.io/gorm"

	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/email"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/modules/payments"
	"alxtravel.com/app/internal/modules/reviews"
	"alxtravel.com/app/internal/modules/users"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&users.User{},
		&listings.Listing{},
		&listings.Photo{},
		&bookings.Booking{},
		&reviews.Review{},
		&payments.Payment{},
		&email.OutboxJob{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
