package listings

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListFilter struct {
	HostID string
	Limit  int
	Offset int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Listing, error) {
	q := r.db.WithContext(ctx).Model(&Listing{})
	if f.HostID != "" {
		q = q.Where("host_id = ?", f.HostID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []Listing
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *Repo) Get(ctx context.Context, id string) (Listing, error) {
	var l Listing
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&l, "id = ?", id).Error
	return l, err
}

func (r *Repo) Create(ctx context.Context, l *Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Repo) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteIfUnbooked removes a listing with its photo and review rows unless a booking
// references it. It returns the photos so the caller can drop the objects.
func (r *Repo) DeleteIfUnbooked(ctx context.Context, id string) ([]Photo, error) {
	var photos []Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("bookings").Where("listing_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrHasBookings
		}
		if err := tx.Where("listing_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM reviews WHERE listing_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Listing{}, "id = ?", id).Error
	})
	return photos, err
}

func (r *Repo) AddPhoto(ctx context.Context, p *Photo) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetPhoto(ctx context.Context, listingID, photoID string) (Photo, error) {
	var p Photo
	err := r.db.WithContext(ctx).First(&p, "id = ? AND listing_id = ?", photoID, listingID).Error
	return p, err
}

func (r *Repo) DeletePhoto(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Photo{}, "id = ?", id).Error
}
