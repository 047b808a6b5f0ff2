package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"alxtravel.com/app/internal/auth"
	"alxtravel.com/app/internal/http/router"
	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/email"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/modules/payments"
	"alxtravel.com/app/internal/modules/reviews"
	"alxtravel.com/app/internal/modules/users"
	"alxtravel.com/app/internal/storage"
	"alxtravel.com/app/internal/testutil"
)

type stubGateway struct {
	initResp payments.InitializeResponse
	initErr  error
	verResp  payments.VerifyResponse
	verErr   error
	calls    int
}

func (g *stubGateway) Initialize(ctx context.Context, req payments.InitializeRequest) (payments.InitializeResponse, error) {
	g.calls++
	return g.initResp, g.initErr
}

func (g *stubGateway) Verify(ctx context.Context, id string) (payments.VerifyResponse, error) {
	g.calls++
	return g.verResp, g.verErr
}

type env struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	gw     *stubGateway
	tokens *auth.Issuer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outbox := email.NewOutboxService(gdb, 3)
	gw := &stubGateway{
		initResp: payments.InitializeResponse{TransactionID: "tx123", CheckoutURL: "https://pay/x"},
		verResp:  payments.VerifyResponse{Status: payments.GatewaySuccessful},
	}
	tokens := auth.NewIssuer("test-secret", time.Hour)
	usersSvc := users.NewService(users.NewRepo(gdb))

	engine := router.NewRouter(router.Deps{
		Logger:   logger,
		DB:       gdb,
		Tokens:   tokens,
		Users:    usersSvc,
		Listings: listings.NewService(listings.NewRepo(gdb), storage.NewLocal(t.TempDir(), "/uploads")),
		Bookings: bookings.NewService(gdb, outbox, "ETB"),
		Reviews:  reviews.NewService(gdb),
		Payments: payments.NewService(gdb, gw, outbox, "ETB"),
	})
	return &env{t: t, engine: engine, db: gdb, gw: gw, tokens: tokens}
}

func (e *env) token(u users.User) string {
	tok, err := e.tokens.Issue(u.ID)
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *env) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

type seeded struct {
	guest   users.User
	booking bookings.Booking
}

func (e *env) seed() seeded {
	guest := testutil.SeedUser(e.t, e.db, "guest@example.com", false)
	host := testutil.SeedUser(e.t, e.db, "host@example.com", false)
	l := testutil.SeedListing(e.t, e.db, host.ID, "Lakeside Cabin", "50.00")
	return seeded{guest: guest, booking: testutil.SeedBooking(e.t, e.db, guest.ID, l.ID, "150.00")}
}

func TestInitiatePayment(t *testing.T) {
	e := newEnv(t)
	s := e.seed()

	w, body := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if body["payment_link"] != "https://pay/x" || body["status"] != "pending" || body["payment_id"] == "" {
		t.Fatalf("body = %v", body)
	}

	var p payments.Payment
	e.db.First(&p, "booking_id = ?", s.booking.ID)
	if p.ID != body["payment_id"] || *p.TransactionID != "tx123" || p.Amount.StringFixed(2) != "150.00" {
		t.Fatalf("payment = %+v", p)
	}
}

func TestInitiatePaymentErrors(t *testing.T) {
	e := newEnv(t)
	s := e.seed()
	stranger := testutil.SeedUser(t, e.db, "stranger@example.com", false)

	if w, _ := e.do(http.MethodPost, "/api/payments/initiate/", "", map[string]string{"booking_id": s.booking.ID}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}

	w, body := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{})
	if w.Code != http.StatusBadRequest || body["error"] != "Booking ID is required." {
		t.Fatalf("missing booking id = %d %v", w.Code, body)
	}

	w, _ = e.do(http.MethodPost, "/api/payments/initiate/", e.token(stranger), map[string]string{"booking_id": s.booking.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("stranger status = %d", w.Code)
	}

	e.gw.initErr = payments.ErrGatewayFailed
	w, body = e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	if w.Code != http.StatusBadRequest || body["error"] != "Failed to initiate payment with Chapa." {
		t.Fatalf("gateway failure = %d %v", w.Code, body)
	}

	e.gw.initErr = payments.ErrGatewayInvalidResponse
	w, body = e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	if w.Code != http.StatusBadRequest || body["error"] != "Invalid response from Chapa." {
		t.Fatalf("invalid response = %d %v", w.Code, body)
	}

	e.gw.initErr = payments.ErrGatewayNotConfigured
	w, body = e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	if w.Code != http.StatusInternalServerError || body["error"] != "Chapa secret key not configured." {
		t.Fatalf("not configured = %d %v", w.Code, body)
	}

	var p payments.Payment
	e.db.First(&p, "booking_id = ?", s.booking.ID)
	if p.Status != payments.StatusPending || p.TransactionID != nil {
		t.Fatalf("payment mutated by failures: %+v", p)
	}
}

func TestVerifyPayment(t *testing.T) {
	e := newEnv(t)
	s := e.seed()
	_, started := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	ref := started["payment_id"].(string)

	w, body := e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref="+ref, "", nil)
	if w.Code != http.StatusOK || body["message"] != "Payment verified and booking confirmed." {
		t.Fatalf("verify = %d %v", w.Code, body)
	}

	var b bookings.Booking
	e.db.First(&b, "id = ?", s.booking.ID)
	if b.Status != bookings.StatusConfirmed {
		t.Fatalf("booking status = %s", b.Status)
	}
	var jobs int64
	e.db.Model(&email.OutboxJob{}).Count(&jobs)
	if jobs != 1 {
		t.Fatalf("outbox jobs = %d", jobs)
	}

	// Replay is idempotent.
	w, _ = e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref="+ref, "", nil)
	e.db.Model(&email.OutboxJob{}).Count(&jobs)
	if w.Code != http.StatusOK || jobs != 1 {
		t.Fatalf("replay = %d jobs=%d", w.Code, jobs)
	}
}

func TestVerifyPaymentFailures(t *testing.T) {
	e := newEnv(t)
	s := e.seed()
	_, started := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	ref := started["payment_id"].(string)

	w, body := e.do(http.MethodGet, "/api/payments/verify/?tx_ref="+ref, "", nil)
	if w.Code != http.StatusBadRequest || body["error"] != "Missing transaction_id or tx_ref parameter." {
		t.Fatalf("missing param = %d %v", w.Code, body)
	}

	w, body = e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref=6f1c7c1e-8a53-4c55-9d8f-3b0c1bd7c0aa", "", nil)
	if w.Code != http.StatusNotFound || body["error"] != "Payment record not found." {
		t.Fatalf("unknown ref = %d %v", w.Code, body)
	}

	e.gw.verResp = payments.VerifyResponse{Status: "failed"}
	w, body = e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref="+ref, "", nil)
	if w.Code != http.StatusBadRequest || body["message"] != "Payment verification unsuccessful." {
		t.Fatalf("unsuccessful = %d %v", w.Code, body)
	}

	var b bookings.Booking
	e.db.First(&b, "id = ?", s.booking.ID)
	if b.Status != bookings.StatusPending {
		t.Fatalf("booking status = %s", b.Status)
	}
}

func TestVerifyGatewayError(t *testing.T) {
	e := newEnv(t)
	s := e.seed()
	_, started := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	ref := started["payment_id"].(string)

	e.gw.verErr = payments.ErrGatewayFailed
	w, body := e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref="+ref, "", nil)
	if w.Code != http.StatusBadRequest || body["error"] != "Payment verification failed with Chapa." {
		t.Fatalf("gateway error = %d %v", w.Code, body)
	}
	var p payments.Payment
	e.db.First(&p, "id = ?", ref)
	if p.Status != payments.StatusFailed {
		t.Fatalf("payment status = %s", p.Status)
	}
}

func TestBookingLockedByOpenCheckout(t *testing.T) {
	e := newEnv(t)
	s := e.seed()
	_, started := e.do(http.MethodPost, "/api/payments/initiate/", e.token(s.guest), map[string]string{"booking_id": s.booking.ID})
	ref := started["payment_id"].(string)

	w, body := e.do(http.MethodPatch, "/api/bookings/"+s.booking.ID, e.token(s.guest), map[string]string{
		"start_date": "2026-12-01", "end_date": "2026-12-11",
	})
	if w.Code != http.StatusConflict || body["error"] != "Booking has a payment and can no longer be changed." {
		t.Fatalf("reschedule = %d %v", w.Code, body)
	}
	w, body = e.do(http.MethodPost, "/api/bookings/"+s.booking.ID+"/cancel", e.token(s.guest), nil)
	if w.Code != http.StatusConflict || body["error"] != "Booking has a payment in progress and cannot be canceled." {
		t.Fatalf("cancel = %d %v", w.Code, body)
	}

	// A booking canceled behind the checkout's back cannot be confirmed.
	e.db.Model(&bookings.Booking{}).Where("id = ?", s.booking.ID).Update("status", bookings.StatusCanceled)
	w, body = e.do(http.MethodGet, "/api/payments/verify/?transaction_id=tx123&tx_ref="+ref, "", nil)
	if w.Code != http.StatusConflict || body["error"] != "Booking is no longer pending." {
		t.Fatalf("verify = %d %v", w.Code, body)
	}
	var jobs int64
	e.db.Model(&email.OutboxJob{}).Where("kind = ?", email.KindBookingConfirmation).Count(&jobs)
	if jobs != 0 {
		t.Fatalf("confirmation jobs = %d", jobs)
	}
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "long-enough", "first_name": "Sara",
	})
	if w.Code != http.StatusCreated || body["token"] == "" {
		t.Fatalf("register = %d %v", w.Code, body)
	}

	w, _ = e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "long-enough", "first_name": "Sara",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d", w.Code)
	}

	w, body = e.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad", "password": "x"})
	if w.Code != http.StatusBadRequest || body["fields"] == nil {
		t.Fatalf("invalid register = %d %v", w.Code, body)
	}

	w, body = e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "long-enough"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %v", w.Code, body)
	}
	tok := body["token"].(string)

	w, body = e.do(http.MethodGet, "/api/auth/me", tok, nil)
	if w.Code != http.StatusOK || body["email"] != "new@example.com" {
		t.Fatalf("me = %d %v", w.Code, body)
	}

	if w, _ := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "wrong-pass"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", w.Code)
	}
	if w, _ := e.do(http.MethodGet, "/api/auth/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d", w.Code)
	}
}

func TestListingBookingReviewEndpoints(t *testing.T) {
	e := newEnv(t)
	host := testutil.SeedUser(t, e.db, "host@example.com", false)
	guest := testutil.SeedUser(t, e.db, "guest@example.com", false)

	w, body := e.do(http.MethodPost, "/api/listings", e.token(host), map[string]any{
		"title": "Lakeside Cabin", "description": "Quiet", "price_per_night": "50.00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create listing = %d %s", w.Code, w.Body.String())
	}
	listingID := body["listing_id"].(string)

	if w, _ := e.do(http.MethodPatch, "/api/listings/"+listingID, e.token(guest), map[string]any{"title": "Mine now"}); w.Code != http.StatusForbidden {
		t.Fatalf("guest patch = %d", w.Code)
	}
	if w, _ := e.do(http.MethodGet, "/api/listings/"+listingID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("public get = %d", w.Code)
	}

	w, body = e.do(http.MethodPost, "/api/bookings", e.token(guest), map[string]any{
		"listing_id": listingID, "start_date": "2026-12-01", "end_date": "2026-12-04",
	})
	if w.Code != http.StatusCreated || body["total_price"] != "150.00" || body["status"] != "pending" {
		t.Fatalf("create booking = %d %v", w.Code, body)
	}
	bookingID := body["booking_id"].(string)

	if w, _ := e.do(http.MethodGet, "/api/bookings/"+bookingID, e.token(host), nil); w.Code != http.StatusNotFound {
		t.Fatalf("host sees guest booking: %d", w.Code)
	}
	if w, _ := e.do(http.MethodDelete, "/api/listings/"+listingID, e.token(host), nil); w.Code != http.StatusConflict {
		t.Fatalf("delete booked listing = %d", w.Code)
	}

	w, body = e.do(http.MethodPost, "/api/bookings", e.token(guest), map[string]any{
		"listing_id": listingID, "start_date": "2026-12-04", "end_date": "2026-12-01",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted dates = %d %v", w.Code, body)
	}

	w, body = e.do(http.MethodPost, "/api/reviews", e.token(guest), map[string]any{"listing_id": listingID, "rating": 5, "comment": "Lovely"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create review = %d %s", w.Code, w.Body.String())
	}
	reviewID := body["review_id"].(string)
	if w, _ := e.do(http.MethodPost, "/api/reviews", e.token(guest), map[string]any{"listing_id": listingID, "rating": 4}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate review = %d", w.Code)
	}
	if w, _ := e.do(http.MethodPost, "/api/reviews", e.token(guest), map[string]any{"listing_id": listingID, "rating": 9}); w.Code != http.StatusBadRequest {
		t.Fatalf("rating 9 = %d", w.Code)
	}

	w, _ = e.do(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", e.token(guest), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel = %d", w.Code)
	}
	if w, _ := e.do(http.MethodDelete, "/api/bookings/"+bookingID, e.token(guest), nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete booking = %d", w.Code)
	}
	if w, _ := e.do(http.MethodDelete, "/api/listings/"+listingID, e.token(host), nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete listing = %d", w.Code)
	}
	if w, _ := e.do(http.MethodGet, "/api/reviews/"+reviewID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("review outlived its listing: %d", w.Code)
	}
}

func TestPhotoUpload(t *testing.T) {
	e := newEnv(t)
	host := testutil.SeedUser(t, e.db, "host@example.com", false)
	l := testutil.SeedListing(t, e.db, host.ID, "Cabin", "10")

	upload := func(name string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("file", name)
		_, _ = fw.Write([]byte("\x89PNG fake"))
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/listings/"+l.ID+"/photos", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+e.token(host))
		w := httptest.NewRecorder()
		e.engine.ServeHTTP(w, req)
		return w
	}

	if w := upload("porch.png"); w.Code != http.StatusCreated {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}
	if w := upload("payload.exe"); w.Code != http.StatusBadRequest {
		t.Fatalf("exe upload = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz = %d %v", w.Code, body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}
