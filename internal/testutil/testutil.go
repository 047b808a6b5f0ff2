// Package testutil provisions an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"alxtravel.com/app/internal/config"
	"alxtravel.com/app/internal/db"
	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/modules/users"
)

// NewDB opens a fresh migrated SQLite database. A single connection keeps
// the in-memory database alive and shared for the whole test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, email string, staff bool) users.User {
	t.Helper()
	now := time.Now().UTC()
	u := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    "Abebe",
		LastName:     "Bikila",
		PasswordHash: "-",
		IsStaff:      staff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedListing(t *testing.T, gdb *gorm.DB, hostID, title, price string) listings.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := listings.Listing{
		ID:            uuid.NewString(),
		HostID:        hostID,
		Title:         title,
		Description:   "A quiet place by the lake.",
		Location:      "Bahir Dar",
		PricePerNight: decimal.RequireFromString(price),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := gdb.Create(&l).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

// SeedBooking inserts a pending booking with an explicit total.
func SeedBooking(t *testing.T, gdb *gorm.DB, userID, listingID, total string) bookings.Booking {
	t.Helper()
	now := time.Now().UTC()
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	b := bookings.Booking{
		ID:         uuid.NewString(),
		UserID:     userID,
		ListingID:  listingID,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 3),
		TotalPrice: decimal.RequireFromString(total),
		Status:     bookings.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := gdb.Create(&b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}
