package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"alxtravel.com/app/internal/auth"
	"alxtravel.com/app/internal/config"
	"alxtravel.com/app/internal/db"
	"alxtravel.com/app/internal/http/router"
	"alxtravel.com/app/internal/mailer"
	"alxtravel.com/app/internal/modules/bookings"
	"alxtravel.com/app/internal/modules/email"
	"alxtravel.com/app/internal/modules/listings"
	"alxtravel.com/app/internal/modules/payments"
	"alxtravel.com/app/internal/modules/reviews"
	"alxtravel.com/app/internal/modules/users"
	"alxtravel.com/app/internal/storage"
)

func main() {
	// .env is optional; prod uses real env vars
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server_exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema_migrated", "driver", cfg.DB.Driver)
	}

	store, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	logger.Info("storage_ready", "backend", fmt.Sprint(store))

	if cfg.Chapa.SecretKey == "" {
		logger.Warn("chapa_secret_missing")
	}

	outbox := email.NewOutboxService(gdb, cfg.Outbox.MaxAttempts)

	usersSvc := users.NewService(users.NewRepo(gdb))

	listingsSvc := listings.NewService(listings.NewRepo(gdb), store)
	listingsSvc.SetLogger(logger)

	bookingsSvc := bookings.NewService(gdb, outbox, cfg.Chapa.Currency)
	bookingsSvc.SetLogger(logger)

	paymentsSvc := payments.NewService(gdb, payments.NewChapaGateway(cfg.Chapa), outbox, cfg.Chapa.Currency)
	paymentsSvc.SetLogger(logger)

	deps := router.Deps{
		Logger:   logger,
		DB:       gdb,
		Tokens:   auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		Users:    usersSvc,
		Listings: listingsSvc,
		Bookings: bookingsSvc,
		Reviews:  reviews.NewService(gdb),
		Payments: paymentsSvc,
		BaseURL:  cfg.BaseURL,
	}
	if cfg.Storage.Driver == "local" {
		deps.UploadDir = cfg.Storage.LocalDir
		deps.UploadURLPrefix = cfg.Storage.LocalURLPrefix
	}

	renderer, err := email.NewRenderer()
	if err != nil {
		return fmt.Errorf("email templates: %w", err)
	}
	worker := email.NewWorker(gdb,
		email.NewSender(mailer.NewSMTPMailer(cfg.SMTP), cfg.Mail.From, cfg.Mail.FromName),
		renderer,
		email.WorkerConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Lease:        cfg.Outbox.Lease,
		},
	)
	worker.SetLogger(logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_server_listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("http_server_shutdown")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
