package bookings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alxtravel.com/app/internal/modules/email"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/shared/dberr"
)

type Actor struct {
	UserID  string
	Email   string
	IsStaff bool
}

type Service struct {
	db       *gorm.DB
	repo     *Repo
	outbox   *email.OutboxService
	currency string
	logger   *slog.Logger
}

func NewService(db *gorm.DB, outbox *email.OutboxService, currency string) *Service {
	return &Service{
		db:       db,
		repo:     NewRepo(db),
		outbox:   outbox,
		currency: currency,
		logger:   slog.Default(),
	}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

type CreateInput struct {
	ListingID string
	StartDate time.Time
	EndDate   time.Time
}

func (s *Service) List(ctx context.Context, actor Actor, limit, offset int) ([]Booking, error) {
	f := ListFilter{UserID: actor.UserID, Limit: limit, Offset: offset}
	if actor.IsStaff {
		f.UserID = ""
	}
	return s.repo.List(ctx, f)
}

// Get hides bookings of other guests behind ErrNotFound unless actor is staff.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (Booking, error) {
	var (
		b   Booking
		err error
	)
	if actor.IsStaff {
		b, err = s.repo.Get(ctx, id)
	} else {
		b, err = s.repo.GetForUser(ctx, id, actor.UserID)
	}
	if dberr.IsNotFound(err) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (Booking, error) {
	if !in.EndDate.After(in.StartDate) || Nights(in.StartDate, in.EndDate) < 1 {
		return Booking{}, ErrInvalidDates
	}

	var b Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l listings.Listing
		if err := tx.First(&l, "id = ?", in.ListingID).Error; err != nil {
			if dberr.IsNotFound(err) {
				return ErrListingNotFound
			}
			return err
		}

		now := time.Now().UTC()
		b = Booking{
			ID:         uuid.NewString(),
			UserID:     actor.UserID,
			ListingID:  l.ID,
			StartDate:  truncateDay(in.StartDate),
			EndDate:    truncateDay(in.EndDate),
			TotalPrice: TotalFor(l.PricePerNight, in.StartDate, in.EndDate),
			Status:     StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}

		_, err := s.outbox.EnqueueTx(ctx, tx, email.Job{
			Kind: email.KindBookingConfirmation,
			To:   actor.Email,
			Payload: email.BookingConfirmation{
				BookingID:    b.ID,
				UserEmail:    actor.Email,
				ListingTitle: l.Title,
				StartDate:    b.StartDate.Format(time.DateOnly),
				EndDate:      b.EndDate.Format(time.DateOnly),
				TotalPrice:   b.TotalPrice.StringFixed(2),
				Currency:     s.currency,
			},
		})
		return err
	})
	if err != nil {
		return Booking{}, err
	}

	s.logger.InfoContext(ctx, "booking_created", "booking_id", b.ID, "listing_id", b.ListingID, "user_id", b.UserID)
	return b, nil
}

// Reschedule changes the dates of a pending booking and reprices it. Once a
// payment row exists its amount is fixed, so the booking can no longer move.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id string, start, end time.Time) (Booking, error) {
	if !end.After(start) || Nights(start, end) < 1 {
		return Booking{}, ErrInvalidDates
	}
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return Booking{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockBooking(tx, b.ID)
		if err != nil {
			return err
		}
		if locked.Status != StatusPending {
			return ErrNotPending
		}
		n, err := countPayments(tx, b.ID, false)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasPayment
		}

		var l listings.Listing
		if err := tx.First(&l, "id = ?", b.ListingID).Error; err != nil {
			return err
		}
		return tx.Model(&Booking{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{
				"start_date":  truncateDay(start),
				"end_date":    truncateDay(end),
				"total_price": TotalFor(l.PricePerNight, start, end),
				"updated_at":  time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return Booking{}, err
	}
	return s.repo.Get(ctx, b.ID)
}

// Cancel moves a pending booking to canceled. It is refused while a gateway
// checkout for the booking is open.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (Booking, error) {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return Booking{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockBooking(tx, b.ID)
		if err != nil {
			return err
		}
		if locked.Status != StatusPending {
			return ErrNotPending
		}
		n, err := countPayments(tx, b.ID, true)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrPaymentInProgress
		}
		return tx.Model(&Booking{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{"status": StatusCanceled, "updated_at": time.Now().UTC()}).Error
	})
	if err != nil {
		return Booking{}, err
	}
	s.logger.InfoContext(ctx, "booking_canceled", "booking_id", b.ID)
	return s.repo.Get(ctx, b.ID)
}

// Delete refuses bookings that already have a payment row.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockBooking(tx, b.ID); err != nil {
			return err
		}
		n, err := countPayments(tx, b.ID, false)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasPayment
		}
		return tx.Delete(&Booking{}, "id = ?", b.ID).Error
	})
}

// lockBooking reads the booking FOR UPDATE so payment writes for it serialize
// behind the caller's transaction.
func lockBooking(tx *gorm.DB, id string) (Booking, error) {
	var b Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error
	if dberr.IsNotFound(err) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

// countPayments counts payment rows for a booking. With openOnly it only
// counts pending payments that already hold a gateway transaction.
func countPayments(tx *gorm.DB, bookingID string, openOnly bool) (int64, error) {
	q := tx.Table("payments").Where("booking_id = ?", bookingID)
	if openOnly {
		q = q.Where("status = ? AND transaction_id IS NOT NULL", paymentPending)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
