package reviews

import "time"

type Review struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	ListingID string    `gorm:"type:char(36);not null;uniqueIndex:ux_reviews_listing_user,priority:1"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_reviews_listing_user,priority:2"`
	Rating    int       `gorm:"not null"`
	Comment   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Review) TableName() string { return "reviews" }
