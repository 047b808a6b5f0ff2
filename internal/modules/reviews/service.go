package reviews

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alxtravel.com/app/internal/shared/dberr"
)

type Actor struct {
	UserID  string
	IsStaff bool
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(ctx context.Context, listingID string, limit, offset int) ([]Review, error) {
	q := s.db.WithContext(ctx).Model(&Review{})
	if listingID != "" {
		q = q.Where("listing_id = ?", listingID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var items []Review
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *Service) Get(ctx context.Context, id string) (Review, error) {
	var r Review
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if dberr.IsNotFound(err) {
		return Review{}, ErrNotFound
	}
	return r, err
}

func (s *Service) Create(ctx context.Context, actor Actor, listingID string, rating int, comment string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, ErrInvalidRating
	}

	var n int64
	if err := s.db.WithContext(ctx).Table("listings").Where("id = ?", listingID).Count(&n).Error; err != nil {
		return Review{}, err
	}
	if n == 0 {
		return Review{}, ErrListingNotFound
	}

	now := time.Now().UTC()
	r := Review{
		ID:        uuid.NewString(),
		ListingID: listingID,
		UserID:    actor.UserID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return Review{}, ErrAlreadyReviewed
		}
		return Review{}, err
	}
	return r, nil
}

// Update applies non-nil fields.
func (s *Service) Update(ctx context.Context, actor Actor, id string, rating *int, comment *string) (Review, error) {
	r, err := s.authored(ctx, actor, id)
	if err != nil {
		return Review{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if rating != nil {
		if *rating < 1 || *rating > 5 {
			return Review{}, ErrInvalidRating
		}
		fields["rating"] = *rating
	}
	if comment != nil {
		fields["comment"] = strings.TrimSpace(*comment)
	}
	if err := s.db.WithContext(ctx).Model(&Review{}).Where("id = ?", r.ID).Updates(fields).Error; err != nil {
		return Review{}, err
	}
	return s.Get(ctx, r.ID)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	r, err := s.authored(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Review{}, "id = ?", r.ID).Error
}

func (s *Service) authored(ctx context.Context, actor Actor, id string) (Review, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if r.UserID != actor.UserID && !actor.IsStaff {
		return Review{}, ErrForbidden
	}
	return r, nil
}
