package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/shared/apperr"
	"alxtravel.com/app/internal/storage"
)

const maxPhotoBytes = 10 << 20

type ListingHandler struct {
	Svc *listings.Service
}

type listingInput struct {
	Title         *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string          `json:"description" binding:"omitempty,max=10000"`
	Location      *string          `json:"location" binding:"omitempty,max=255"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
}

type photoJSON struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type listingJSON struct {
	ID            string      `json:"listing_id"`
	HostID        string      `json:"host_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Location      string      `json:"location"`
	PricePerNight string      `json:"price_per_night"`
	Photos        []photoJSON `json:"photos,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toListingJSON(l listings.Listing) listingJSON {
	out := listingJSON{
		ID:            l.ID,
		HostID:        l.HostID,
		Title:         l.Title,
		Description:   l.Description,
		Location:      l.Location,
		PricePerNight: l.PricePerNight.StringFixed(2),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	for _, p := range l.Photos {
		out.Photos = append(out.Photos, toPhotoJSON(p))
	}
	return out
}

func toPhotoJSON(p listings.Photo) photoJSON {
	return photoJSON{ID: p.ID, URL: p.URL, CreatedAt: p.CreatedAt}
}

// GET /api/listings
func (h *ListingHandler) List(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.Svc.List(c.Request.Context(), listings.ListFilter{HostID: c.Query("host_id"), Limit: limit, Offset: offset})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	out := make([]listingJSON, 0, len(items))
	for _, l := range items {
		out = append(out, toListingJSON(l))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	l, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, listingError(err))
		return
	}
	c.JSON(http.StatusOK, toListingJSON(l))
}

// POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var in listingInput
	if !bind(c, &in) {
		return
	}
	fields := map[string]string{}
	if in.Title == nil || *in.Title == "" {
		fields["title"] = "This field is required."
	}
	if in.PricePerNight == nil {
		fields["price_per_night"] = "This field is required."
	} else if !in.PricePerNight.IsPositive() {
		fields["price_per_night"] = "Must be greater than 0."
	}
	if len(fields) > 0 {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", fields))
		return
	}

	l, err := h.Svc.Create(c.Request.Context(), caller(c).ID, listings.Input{
		Title:         *in.Title,
		Description:   deref(in.Description),
		Location:      deref(in.Location),
		PricePerNight: *in.PricePerNight,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, toListingJSON(l))
}

// PUT|PATCH /api/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	var in listingInput
	if !bind(c, &in) {
		return
	}
	if in.PricePerNight != nil && !in.PricePerNight.IsPositive() {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"price_per_night": "Must be greater than 0."}))
		return
	}

	l, err := h.Svc.Update(c.Request.Context(), listingActor(c), c.Param("id"), listings.Patch{
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		PricePerNight: in.PricePerNight,
	})
	if err != nil {
		middleware.Fail(c, listingError(err))
		return
	}
	c.JSON(http.StatusOK, toListingJSON(l))
}

// DELETE /api/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), listingActor(c), c.Param("id")); err != nil {
		middleware.Fail(c, listingError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/listings/:id/photos (multipart "file")
func (h *ListingHandler) AddPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"file": "This field is required."}))
		return
	}
	if fh.Size > maxPhotoBytes {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"file": "File is too large."}))
		return
	}
	if _, err := storage.ImageExt(fh.Filename); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"file": "Allowed types: png, jpg, jpeg, webp, gif."}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	p, err := h.Svc.AddPhoto(c.Request.Context(), listingActor(c), c.Param("id"), listings.PhotoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		middleware.Fail(c, listingError(err))
		return
	}
	c.JSON(http.StatusCreated, toPhotoJSON(p))
}

// DELETE /api/listings/:id/photos/:photo_id
func (h *ListingHandler) DeletePhoto(c *gin.Context) {
	if err := h.Svc.DeletePhoto(c.Request.Context(), listingActor(c), c.Param("id"), c.Param("photo_id")); err != nil {
		middleware.Fail(c, listingError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func listingActor(c *gin.Context) listings.Actor {
	u := caller(c)
	return listings.Actor{UserID: u.ID, IsStaff: u.IsStaff}
}

func listingError(err error) error {
	switch {
	case errors.Is(err, listings.ErrNotFound):
		return apperr.NotFoundErr("Listing not found.")
	case errors.Is(err, listings.ErrForbidden):
		return apperr.ForbiddenErr("Only the host can change this listing.")
	case errors.Is(err, listings.ErrHasBookings):
		return apperr.ConflictErr("Listing has bookings and cannot be deleted.")
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperr.InvalidErr("Invalid input.", map[string]string{"file": "Allowed types: png, jpg, jpeg, webp, gif."})
	default:
		return apperr.Wrap(err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
