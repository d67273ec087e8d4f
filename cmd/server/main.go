package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice-journal-api/internal/api"
	"practice-journal-api/internal/billing"
	"practice-journal-api/internal/config"
	"practice-journal-api/internal/database"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/services"
	"practice-journal-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config:", err)
	}

	// Initialize logging
	logging.InitLogging(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Logger.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	rdb, err := database.OpenRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	tokens, err := services.NewTokenService(cfg.Auth)
	if err != nil {
		return err
	}
	storage, err := services.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		return err
	}

	users := database.NewUserStore(db)
	practice := database.NewPracticeStore(db)
	events := billing.NewMemoryEventLog(cfg.Stripe.EventCacheTTL, database.NewWebhookEventStore(db))
	defer events.Stop()
	handler := api.NewHandler(api.Deps{
		Config:       cfg,
		Users:        users,
		Practice:     practice,
		Goals:        database.NewGoalStore(db),
		Diary:        database.NewDiaryStore(db),
		Recordings:   database.NewRecordingStore(db),
		Tokens:       tokens,
		Passwords:    services.NewPasswordService(),
		EmailTokens:  services.NewTokenStore(rdb),
		Email:        services.NewEmailService(services.NewSender(cfg.Brevo), database.NewNotificationStore(db), cfg.FrontendURL, cfg.ServiceName),
		Storage:      storage,
		Achievements: services.NewAchievementService(practice),
		Verifier:     billing.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance),
		Reconciler:   billing.NewReconciler(users, events),
		Processor:    billing.NewStripeProcessor(cfg.Stripe, cfg.FrontendURL),
	})

	if err := api.RegisterValidators(); err != nil {
		return err
	}

	// Set Gin mode
	gin.SetMode(cfg.HTTP.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// Setup routes
	handler.SetupRoutes(r)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("Starting server on %s", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
