package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"alxtravel.com/app/internal/auth"
	"alxtravel.com/app/internal/http/handlers"
	"alxtravel.com/app/internal/http/middleware"
	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/modules/payments"
	"alxtravel.com/app/internal/modules/reviews"
	"alxtravel.com/app/internal/modules/users"
)

type Deps struct {
	Logger *slog.Logger
	DB     *gorm.DB
	Tokens *auth.Issuer

	Users    *users.Service
	Listings *listings.Service
	Bookings *bookings.Service
	Reviews  *reviews.Service
	Payments *payments.Service

	// BaseURL overrides the public origin used in gateway callbacks.
	BaseURL string
	// UploadDir/UploadURLPrefix serve locally stored photos when set.
	UploadDir       string
	UploadURLPrefix string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
		middleware.Authenticate(d.Tokens, d.Users),
	)

	health := &handlers.HealthHandler{DB: d.DB}
	r.GET("/healthz", health.Get)

	if d.UploadDir != "" && d.UploadURLPrefix != "" {
		r.Static(d.UploadURLPrefix, d.UploadDir)
	}

	api := r.Group("/api")
	authed := middleware.RequireAuth()

	authH := &handlers.AuthHandler{Users: d.Users, Tokens: d.Tokens}
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.GET("/auth/me", authed, authH.Me)

	listingH := &handlers.ListingHandler{Svc: d.Listings}
	api.GET("/listings", listingH.List)
	api.GET("/listings/:id", listingH.Get)
	api.POST("/listings", authed, listingH.Create)
	api.PUT("/listings/:id", authed, listingH.Update)
	api.PATCH("/listings/:id", authed, listingH.Update)
	api.DELETE("/listings/:id", authed, listingH.Delete)
	api.POST("/listings/:id/photos", authed, listingH.AddPhoto)
	api.DELETE("/listings/:id/photos/:photo_id", authed, listingH.DeletePhoto)

	bookingH := &handlers.BookingHandler{Svc: d.Bookings}
	b := api.Group("/bookings", authed)
	b.GET("", bookingH.List)
	b.POST("", bookingH.Create)
	b.GET("/:id", bookingH.Get)
	b.PUT("/:id", bookingH.Update)
	b.PATCH("/:id", bookingH.Update)
	b.DELETE("/:id", bookingH.Delete)
	b.POST("/:id/cancel", bookingH.Cancel)

	reviewH := &handlers.ReviewHandler{Svc: d.Reviews}
	api.GET("/reviews", reviewH.List)
	api.GET("/reviews/:id", reviewH.Get)
	api.POST("/reviews", authed, reviewH.Create)
	api.PUT("/reviews/:id", authed, reviewH.Update)
	api.PATCH("/reviews/:id", authed, reviewH.Update)
	api.DELETE("/reviews/:id", authed, reviewH.Delete)

	payH := &handlers.PaymentHandler{Svc: d.Payments, BaseURL: d.BaseURL}
	for _, p := range []string{"/payments/initiate/", "/payments/initiate"} {
		api.POST(p, authed, payH.Initiate)
	}
	for _, p := range []string{"/payments/verify/", "/payments/verify"} {
		api.GET(p, payH.Verify)
	}

	return r
}
