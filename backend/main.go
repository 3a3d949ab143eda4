package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lifelessons/backend/access"
	"lifelessons/backend/config"
	"lifelessons/backend/entitlement"
	"lifelessons/backend/identity"
	"lifelessons/backend/payment"
	"lifelessons/backend/routes"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	// Initialize database
	db, err := store.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	repo := store.New(db)

	verifier, err := newVerifier(cfg)
	if err != nil {
		logger.Fatal("Error initializing identity verifier", zap.String("mode", cfg.AuthMode), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := utils.NewMetrics(registry)

	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		logger.Warn("Stripe is not fully configured; checkout and webhooks will fail")
	}

	app := routes.NewApp(routes.Deps{
		Config:       cfg,
		Store:        repo,
		Verifier:     verifier,
		Identifier:   access.NewIdentifier(repo.Users, cfg.AdminEmails, logger.Named("identify")),
		Checkout:     payment.NewStripeCheckout(cfg),
		Entitlements: entitlement.NewHandler(repo.Users, repo.Payments, metrics, logger.Named("entitlement")),
		Metrics:      metrics,
		Gatherer:     registry,
		Logger:       logger,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	// Start server
	logger.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("auth_mode", cfg.AuthMode))
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func newVerifier(cfg *config.Config) (identity.Verifier, error) {
	if cfg.AuthMode == config.AuthModeLocal {
		return identity.NewJWTVerifier(cfg.JWTSecret), nil
	}
	return identity.NewOIDCVerifier(context.Background(), cfg.OIDCIssuerURL, cfg.OIDCClientID)
}
