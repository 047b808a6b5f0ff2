package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/email"
	"alxtravel.com/app/internal/shared/dberr"
)

type Service struct {
	db       *gorm.DB
	gateway  Gateway
	outbox   *email.OutboxService
	currency string
	logger   *slog.Logger
}

func NewService(db *gorm.DB, gw Gateway, outbox *email.OutboxService, currency string) *Service {
	if currency == "" {
		currency = "ETB"
	}
	return &Service{db: db, gateway: gw, outbox: outbox, currency: currency, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

// Payer identifies the authenticated caller.
type Payer struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

type InitiateInput struct {
	BookingID   string
	Payer       Payer
	CallbackURL string
}

type InitiateResult struct {
	PaymentID   string
	PaymentLink string
	Status      string
}

// Initiate opens a hosted checkout for one of the payer's bookings.
//
// The payment row is created first so its id can serve as tx_ref. The gateway
// is called outside any transaction and the result is written back only while
// the payment is still pending without a transaction id.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	var b bookings.Booking
	err := s.db.WithContext(ctx).First(&b, "id = ? AND user_id = ?", in.BookingID, in.Payer.UserID).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return InitiateResult{}, ErrBookingNotFound
		}
		return InitiateResult{}, err
	}
	switch b.Status {
	case bookings.StatusConfirmed:
		return InitiateResult{}, ErrAlreadyPaid
	case bookings.StatusCanceled:
		return InitiateResult{}, ErrBookingNotPending
	}

	p, err := s.getOrCreate(ctx, b)
	if err != nil {
		return InitiateResult{}, err
	}
	if res, done, err := s.resumable(p); done {
		return res, err
	}

	resp, err := s.gateway.Initialize(ctx, InitializeRequest{
		Amount:      p.Amount,
		Currency:    p.Currency,
		Email:       in.Payer.Email,
		FirstName:   in.Payer.FirstName,
		LastName:    in.Payer.LastName,
		TxRef:       p.ID,
		CallbackURL: in.CallbackURL,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "payment_initiate_failed", "payment_id", p.ID, "booking_id", b.ID, "err", err)
		return InitiateResult{}, err
	}

	upd := s.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status = ? AND transaction_id IS NULL", p.ID, StatusPending).
		Where("EXISTS (SELECT 1 FROM bookings WHERE bookings.id = ? AND bookings.status = ?)", b.ID, bookings.StatusPending).
		Updates(map[string]any{
			"transaction_id": resp.TransactionID,
			"checkout_url":   resp.CheckoutURL,
			"updated_at":     time.Now().UTC(),
		})
	if upd.Error != nil {
		return InitiateResult{}, upd.Error
	}
	if upd.RowsAffected == 0 {
		// Lost a race with another initiation, a verification or a cancel.
		cur, err := s.get(ctx, p.ID)
		if err != nil {
			return InitiateResult{}, err
		}
		s.logger.WarnContext(ctx, "payment_initiate_superseded", "payment_id", p.ID, "discarded_transaction_id", resp.TransactionID)
		if res, done, err := s.resumable(cur); done {
			return res, err
		}
		return InitiateResult{}, ErrBookingNotPending
	}

	s.logger.InfoContext(ctx, "payment_initiated",
		"payment_id", p.ID, "booking_id", b.ID, "transaction_id", resp.TransactionID, "amount", p.Amount.StringFixed(2))

	return InitiateResult{PaymentID: p.ID, PaymentLink: resp.CheckoutURL, Status: StatusPending}, nil
}

// resumable decides whether an existing payment short-circuits initiation.
func (s *Service) resumable(p Payment) (InitiateResult, bool, error) {
	switch p.Status {
	case StatusCompleted:
		return InitiateResult{}, true, ErrAlreadyPaid
	case StatusFailed:
		return InitiateResult{}, true, ErrPaymentClosed
	}
	if p.TransactionID != nil {
		link := ""
		if p.CheckoutURL != nil {
			link = *p.CheckoutURL
		}
		return InitiateResult{PaymentID: p.ID, PaymentLink: link, Status: p.Status}, true, nil
	}
	return InitiateResult{}, false, nil
}

func (s *Service) getOrCreate(ctx context.Context, b bookings.Booking) (Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).First(&p, "booking_id = ?", b.ID).Error
	if err == nil {
		return p, nil
	}
	if !dberr.IsNotFound(err) {
		return Payment{}, err
	}

	now := time.Now().UTC()
	p = Payment{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Amount:    b.TotalPrice,
		Currency:  s.currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			var winner Payment
			if err := s.db.WithContext(ctx).First(&winner, "booking_id = ?", b.ID).Error; err != nil {
				return Payment{}, err
			}
			return winner, nil
		}
		return Payment{}, err
	}
	return p, nil
}

type VerifyResult struct {
	PaymentID string
	Status    string
}

// Verify settles a pending payment from the gateway's verdict. Terminal
// payments are returned as they are without contacting the gateway.
func (s *Service) Verify(ctx context.Context, transactionID, txRef string) (VerifyResult, error) {
	if _, err := uuid.Parse(txRef); err != nil {
		return VerifyResult{}, ErrPaymentNotFound
	}
	p, err := s.get(ctx, txRef)
	if err != nil {
		return VerifyResult{}, err
	}
	if IsTerminal(p.Status) {
		return VerifyResult{PaymentID: p.ID, Status: p.Status}, nil
	}
	if p.TransactionID != nil && *p.TransactionID != transactionID {
		s.logger.WarnContext(ctx, "payment_transaction_mismatch", "payment_id", p.ID, "stored", *p.TransactionID, "given", transactionID)
	}

	resp, err := s.gateway.Verify(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrGatewayNotConfigured) {
			return VerifyResult{}, err
		}
		moved, ferr := s.markFailed(ctx, p.ID)
		if ferr != nil {
			return VerifyResult{}, ferr
		}
		if !moved {
			return s.current(ctx, p.ID)
		}
		s.logger.WarnContext(ctx, "payment_failed", "payment_id", p.ID, "reason", "gateway_error", "err", err)
		if !errors.Is(err, ErrGatewayFailed) {
			err = errors.Join(ErrGatewayFailed, err)
		}
		return VerifyResult{}, err
	}

	if resp.Status != GatewaySuccessful {
		moved, err := s.markFailed(ctx, p.ID)
		if err != nil {
			return VerifyResult{}, err
		}
		if !moved {
			return s.current(ctx, p.ID)
		}
		s.logger.InfoContext(ctx, "payment_failed", "payment_id", p.ID, "reason", "gateway_status", "gateway_status", resp.Status)
		return VerifyResult{PaymentID: p.ID, Status: StatusFailed}, nil
	}

	moved, err := s.complete(ctx, p)
	if errors.Is(err, ErrBookingNotPending) {
		failed, ferr := s.markFailed(ctx, p.ID)
		if ferr != nil {
			return VerifyResult{}, ferr
		}
		if !failed {
			return s.current(ctx, p.ID)
		}
		s.logger.WarnContext(ctx, "payment_failed", "payment_id", p.ID, "reason", "booking_not_pending")
		return VerifyResult{PaymentID: p.ID, Status: StatusFailed}, err
	}
	if err != nil {
		return VerifyResult{}, err
	}
	if !moved {
		return s.current(ctx, p.ID)
	}
	s.logger.InfoContext(ctx, "payment_verified", "payment_id", p.ID, "booking_id", p.BookingID)
	return VerifyResult{PaymentID: p.ID, Status: StatusCompleted}, nil
}

// complete runs pending→completed, confirms the booking and queues the
// confirmation email in one transaction. It reports false when the payment
// was no longer pending, and rolls back with ErrBookingNotPending when the
// booking can no longer be confirmed.
func (s *Service) complete(ctx context.Context, p Payment) (bool, error) {
	moved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]any{"status": StatusCompleted, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		moved = true

		n, err := bookings.ConfirmTx(ctx, tx, p.BookingID)
		if err != nil {
			return err
		}
		if n == 0 {
			moved = false
			return ErrBookingNotPending
		}

		var info struct {
			Email     string
			Title     string
			StartDate time.Time
			EndDate   time.Time
		}
		err = tx.Table("bookings AS b").
			Select("u.email AS email, l.title AS title, b.start_date AS start_date, b.end_date AS end_date").
			Joins("JOIN users AS u ON u.id = b.user_id").
			Joins("JOIN listings AS l ON l.id = b.listing_id").
			Where("b.id = ?", p.BookingID).
			Take(&info).Error
		if err != nil {
			if dberr.IsNotFound(err) {
				s.logger.WarnContext(ctx, "booking_confirmation_skipped", "booking_id", p.BookingID, "reason", "no_recipient")
				return nil
			}
			return err
		}

		_, err = s.outbox.EnqueueTx(ctx, tx, email.Job{
			Kind: email.KindBookingConfirmation,
			To:   info.Email,
			Payload: email.BookingConfirmation{
				BookingID:    p.BookingID,
				UserEmail:    info.Email,
				ListingTitle: info.Title,
				StartDate:    info.StartDate.Format(time.DateOnly),
				EndDate:      info.EndDate.Format(time.DateOnly),
				TotalPrice:   p.Amount.StringFixed(2),
				Currency:     p.Currency,
				Paid:         true,
			},
		})
		return err
	})
	return moved, err
}

func (s *Service) markFailed(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{"status": StatusFailed, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

func (s *Service) current(ctx context.Context, id string) (VerifyResult, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{PaymentID: p.ID, Status: p.Status}, nil
}

func (s *Service) get(ctx context.Context, id string) (Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if dberr.IsNotFound(err) {
		return Payment{}, ErrPaymentNotFound
	}
	return p, err
}
