package listings

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"alxtravel.com/app/internal/shared/dberr"
	"alxtravel.com/app/internal/storage"
)

// Actor is the caller performing a write.
type Actor struct {
	UserID  string
	IsStaff bool
}

type Service struct {
	repo   *Repo
	store  storage.Storage
	logger *slog.Logger
}

func NewService(repo *Repo, store storage.Storage) *Service {
	return &Service{repo: repo, store: store, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

type Input struct {
	Title         string
	Description   string
	Location      string
	PricePerNight decimal.Decimal
}

// Patch carries optional fields; nil means unchanged.
type Patch struct {
	Title         *string
	Description   *string
	Location      *string
	PricePerNight *decimal.Decimal
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Listing, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if dberr.IsNotFound(err) {
		return Listing{}, ErrNotFound
	}
	return l, err
}

func (s *Service) Create(ctx context.Context, hostID string, in Input) (Listing, error) {
	now := time.Now().UTC()
	l := Listing{
		ID:            uuid.NewString(),
		HostID:        hostID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Location:      strings.TrimSpace(in.Location),
		PricePerNight: in.PricePerNight.Round(2),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &l); err != nil {
		return Listing{}, err
	}
	s.logger.InfoContext(ctx, "listing_created", "listing_id", l.ID, "host_id", hostID)
	return l, nil
}

func (s *Service) Update(ctx context.Context, actor Actor, id string, p Patch) (Listing, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return Listing{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		fields["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		fields["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		fields["location"] = strings.TrimSpace(*p.Location)
	}
	if p.PricePerNight != nil {
		fields["price_per_night"] = p.PricePerNight.Round(2)
	}
	if err := s.repo.Update(ctx, l.ID, fields); err != nil {
		return Listing{}, err
	}
	return s.Get(ctx, l.ID)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	photos, err := s.repo.DeleteIfUnbooked(ctx, l.ID)
	if err != nil {
		return err
	}
	for _, p := range photos {
		if err := s.store.Delete(ctx, p.StorageKey); err != nil {
			s.logger.WarnContext(ctx, "photo_object_delete_failed", "key", p.StorageKey, "err", err)
		}
	}
	s.logger.InfoContext(ctx, "listing_deleted", "listing_id", l.ID)
	return nil
}

type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) AddPhoto(ctx context.Context, actor Actor, listingID string, up PhotoUpload) (Photo, error) {
	l, err := s.owned(ctx, actor, listingID)
	if err != nil {
		return Photo{}, err
	}

	res, err := s.store.Put(ctx, up.Body, storage.PutInput{
		Folder:      "listings/" + l.ID,
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        up.Size,
	})
	if err != nil {
		return Photo{}, err
	}

	p := Photo{
		ID:         uuid.NewString(),
		ListingID:  l.ID,
		StorageKey: res.Key,
		URL:        res.URL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.AddPhoto(ctx, &p); err != nil {
		_ = s.store.Delete(ctx, res.Key)
		return Photo{}, err
	}
	return p, nil
}

func (s *Service) DeletePhoto(ctx context.Context, actor Actor, listingID, photoID string) error {
	l, err := s.owned(ctx, actor, listingID)
	if err != nil {
		return err
	}
	p, err := s.repo.GetPhoto(ctx, l.ID, photoID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.DeletePhoto(ctx, p.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.StorageKey); err != nil {
		s.logger.WarnContext(ctx, "photo_object_delete_failed", "key", p.StorageKey, "err", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, actor Actor, id string) (Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if l.HostID != actor.UserID && !actor.IsStaff {
		return Listing{}, ErrForbidden
	}
	return l, nil
}
