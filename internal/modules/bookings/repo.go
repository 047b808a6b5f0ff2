package bookings

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListFilter struct {
	// UserID restricts results to one guest; empty lists every booking.
	UserID string
	Limit  int
	Offset int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	q := r.db.WithContext(ctx).Model(&Booking{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var items []Booking
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *Repo) Get(ctx context.Context, id string) (Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return b, err
}

// GetForUser only finds bookings owned by userID.
func (r *Repo) GetForUser(ctx context.Context, id, userID string) (Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).First(&b, "id = ? AND user_id = ?", id, userID).Error
	return b, err
}

// ConfirmTx moves a pending booking to confirmed inside the caller's
// transaction and reports how many rows changed.
func ConfirmTx(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	res := tx.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":     StatusConfirmed,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
