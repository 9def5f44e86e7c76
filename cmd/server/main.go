// Package main is the entry point for the ShieldHer API server.
// It loads configuration, connects to PostgreSQL, applies migrations and
// serves the JSON API until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/chatbot"
	"github.com/VeeCC-T/ShieldHer/internal/config"
	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
	"github.com/VeeCC-T/ShieldHer/internal/handlers"
	"github.com/VeeCC-T/ShieldHer/internal/privacy"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
)

func main() {
	// Missing or malformed secrets stop the process here, before any listener exists
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	securityLogger := security.NewLogger()
	securityConfig := security.DefaultSecurityConfig()

	cipher, err := fieldcrypt.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid encryption key: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = database.Connect(connectCtx, database.DefaultConfig(cfg.DatabaseURL))
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if cfg.AutoMigrate {
		logf := func(format string, args ...interface{}) {
			securityLogger.Info(fmt.Sprintf(format, args...))
		}
		if err := database.RunMigrations(cfg.DatabaseURL, logf); err != nil {
			securityLogger.Critical("Failed to run migrations", err)
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Failure counters are cleared on every monitoring tick
	monitor := security.NewSecurityMonitor(securityLogger, securityConfig, security.NewLogAlerter(securityLogger))
	go monitor.Run(ctx)

	registry := privacy.MustDefaultRegistry()
	validator := security.NewValidationService(securityConfig)

	bot, err := chatbot.New()
	if err != nil {
		log.Fatalf("Failed to load chatbot rules: %v", err)
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	limiters := handlers.NewLimiters(securityConfig)
	defer limiters.Stop()

	app := handlers.NewApp(&handlers.Server{
		Auth: services.NewAuthService(tokens, securityConfig, monitor, securityLogger),
		Reports: services.NewReportService(
			cipher,
			security.NewSubmissionValidator(securityConfig, privacy.NewPipeline(registry, privacy.ScopeReport)),
			monitor,
			securityLogger,
		),
		Donations: services.NewDonationService(
			services.NewMockGateway(),
			validator,
			privacy.NewPipeline(registry, privacy.ScopeDonationMessage),
			securityConfig,
			securityLogger,
		),
		Content:    services.NewContentService(validator, securityLogger),
		Bot:        bot,
		Security:   securityConfig,
		Logger:     securityLogger,
		Limiters:   limiters,
		TrustProxy: cfg.TrustProxy,
	})

	go func() {
		<-ctx.Done()
		securityLogger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			securityLogger.Error("Graceful shutdown failed", err)
		}
	}()

	securityLogger.InfoWith("Server starting", map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	})
	if err := app.Listen(":" + cfg.Port); err != nil {
		securityLogger.Critical("Failed to start server", err)
		log.Fatalf("Failed to start server: %v", err)
	}
}
