package listings_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/storage"
	"alxtravel.com/app/internal/testutil"
)

func TestListingLifecycle(t *testing.T) {
	gdb := testutil.NewDB(t)
	host := testutil.SeedUser(t, gdb, "host@example.com", false)
	other := testutil.SeedUser(t, gdb, "other@example.com", false)
	svc := listings.NewService(listings.NewRepo(gdb), storage.NewLocal(t.TempDir(), "/uploads"))
	ctx := context.Background()

	l, err := svc.Create(ctx, host.ID, listings.Input{
		Title:         " Lakeside Cabin ",
		Description:   "Two rooms",
		PricePerNight: decimal.RequireFromString("75.505"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Title != "Lakeside Cabin" || l.PricePerNight.StringFixed(2) != "75.51" {
		t.Fatalf("listing = %+v", l)
	}

	title := "Hijacked"
	if _, err := svc.Update(ctx, listings.Actor{UserID: other.ID}, l.ID, listings.Patch{Title: &title}); !errors.Is(err, listings.ErrForbidden) {
		t.Fatalf("update by stranger err = %v", err)
	}

	title = "Lakeside Cabin Deluxe"
	updated, err := svc.Update(ctx, listings.Actor{UserID: host.ID}, l.ID, listings.Patch{Title: &title})
	if err != nil || updated.Title != title {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	p, err := svc.AddPhoto(ctx, listings.Actor{UserID: host.ID}, l.ID, listings.PhotoUpload{Filename: "porch.jpg", Body: strings.NewReader("jpeg")})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	got, _ := svc.Get(ctx, l.ID)
	if len(got.Photos) != 1 || got.Photos[0].ID != p.ID {
		t.Fatalf("photos = %+v", got.Photos)
	}

	mine, _ := svc.List(ctx, listings.ListFilter{HostID: host.ID})
	if len(mine) != 1 {
		t.Fatalf("host listings = %d", len(mine))
	}

	if err := svc.Delete(ctx, listings.Actor{UserID: host.ID}, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, l.ID); !errors.Is(err, listings.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestDeleteListingWithBookings(t *testing.T) {
	gdb := testutil.NewDB(t)
	host := testutil.SeedUser(t, gdb, "host@example.com", false)
	guest := testutil.SeedUser(t, gdb, "guest@example.com", false)
	l := testutil.SeedListing(t, gdb, host.ID, "Cabin", "10")
	testutil.SeedBooking(t, gdb, guest.ID, l.ID, "30")

	svc := listings.NewService(listings.NewRepo(gdb), storage.NewLocal(t.TempDir(), "/uploads"))
	if err := svc.Delete(context.Background(), listings.Actor{UserID: host.ID}, l.ID); !errors.Is(err, listings.ErrHasBookings) {
		t.Fatalf("err = %v, want ErrHasBookings", err)
	}
}

func TestStaffMayEditAnyListing(t *testing.T) {
	gdb := testutil.NewDB(t)
	host := testutil.SeedUser(t, gdb, "host@example.com", false)
	staff := testutil.SeedUser(t, gdb, "staff@example.com", true)
	l := testutil.SeedListing(t, gdb, host.ID, "Cabin", "10")

	svc := listings.NewService(listings.NewRepo(gdb), storage.NewLocal(t.TempDir(), "/uploads"))
	if err := svc.DeletePhoto(context.Background(), listings.Actor{UserID: staff.ID, IsStaff: true}, l.ID, "missing"); !errors.Is(err, listings.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
