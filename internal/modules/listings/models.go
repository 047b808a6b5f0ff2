package listings

import (
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID            string          `gorm:"type:char(36);primaryKey"`
	HostID        string          `gorm:"type:char(36);not null;index:ix_listings_host_id"`
	Title         string          `gorm:"type:varchar(255);not null"`
	Description   string          `gorm:"type:text;not null"`
	Location      string          `gorm:"type:varchar(255);not null;default:''"`
	PricePerNight decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`

	Photos []Photo `gorm:"foreignKey:ListingID"`
}

func (Listing) TableName() string { return "listings" }

type Photo struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	ListingID  string    `gorm:"type:char(36);not null;index:ix_listing_photos_listing_id"`
	StorageKey string    `gorm:"type:varchar(512);not null"`
	URL        string    `gorm:"type:varchar(1024);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (Photo) TableName() string { return "listing_photos" }
