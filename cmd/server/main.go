package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ursuslabs/connect-gateway/internal/config"
	"github.com/ursuslabs/connect-gateway/internal/database"
	"github.com/ursuslabs/connect-gateway/internal/fees"
	"github.com/ursuslabs/connect-gateway/internal/handler"
	"github.com/ursuslabs/connect-gateway/internal/middleware"
	"github.com/ursuslabs/connect-gateway/internal/processor"
	"github.com/ursuslabs/connect-gateway/internal/repository"
	"github.com/ursuslabs/connect-gateway/internal/service"
	"github.com/ursuslabs/connect-gateway/internal/store"
	"github.com/ursuslabs/connect-gateway/internal/webhook"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	log.Info().
		Str("platform", cfg.PlatformName).
		Str("connected", cfg.ConnectedName).
		Str("ledger", cfg.LedgerBackend).
		Msg("starting connect gateway")

	ledger, cleanup, err := openLedger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open settlement ledger")
	}
	defer cleanup()

	client := processor.NewStripeClient(cfg.StripeSecretKey)
	calc := fees.NewCalculator(cfg.FeePercentBPS, cfg.FeeFixedCents, cfg.CommissionBPS)
	verifier := webhook.NewVerifier(cfg.WebhookSecret, time.Duration(cfg.ToleranceSeconds)*time.Second)

	dispatcher := service.NewDispatcher(ledger, client, calc,
		cfg.ConnectedAccountID, cfg.PlatformName, cfg.ConnectedName)
	intentService := service.NewIntentService(client, calc, cfg.MinAmountCents, cfg.MaxAmountCents)

	webhookHandler := handler.NewWebhookHandler(verifier, dispatcher)
	intentHandler := handler.NewIntentHandler(intentService)
	healthHandler := handler.NewHealthHandler(client, ledger, cfg.ConnectedAccountID)

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	router.POST("/webhook", webhookHandler.Handle)
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAPIKey(cfg.APIKey))
	{
		api.POST("/payment-intents", intentHandler.Create)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func openLedger(cfg *config.Config) (store.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := database.NewPool(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repository.NewLedgerRepository(pool), pool.Close, nil

	case "bolt":
		ledger, err := store.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return ledger, func() { ledger.Close() }, nil

	default:
		ledger := store.NewMemory()
		return ledger, func() {}, nil
	}
}
