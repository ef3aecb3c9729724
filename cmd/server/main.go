package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/doable/api/internal/adapters/handler/http"
	"github.com/doable/api/internal/adapters/mailer"
	"github.com/doable/api/internal/adapters/queue"
	"github.com/doable/api/internal/adapters/repository/postgres"
	"github.com/doable/api/internal/config"
	"github.com/doable/api/internal/core/services"
	"github.com/doable/api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatalw("migrations failed", "error", err)
	}

	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	todoRepo := postgres.NewTodoRepository(db)

	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.EmailFrom,
			FrontendURL: cfg.FrontendURL,
		}, logger)
	} else {
		sender = mailer.NewNoopSender(cfg.FrontendURL, logger)
	}

	emailQueue := queue.NewEmailQueue(sender, 64, logger)
	emailQueue.Start(ctx)

	tokenService := services.NewTokenService(tokenRepo, services.TokenServiceConfig{
		Secret:               []byte(cfg.JWTSecret),
		AccessTTL:            cfg.JWTAccessTTL,
		EmailVerificationTTL: cfg.EmailVerificationTTL,
		Issuer:               cfg.JWTIssuer,
		Audience:             cfg.JWTAudience,
	}, logger)
	hasher := services.NewBcryptHasher(cfg.BcryptCost, logger)
	authService := services.NewAuthService(
		userRepo, tokenService, hasher, emailQueue, cfg.EmailVerificationRequired, logger)
	todoService := services.NewTodoService(todoRepo, logger)

	handler := http.NewHandler(http.RouterDeps{
		Auth:      http.NewAuthHandler(authService, cfg.JWTAccessTTL, cfg.Env == "production"),
		Todos:     http.NewTodoHandler(todoService),
		Health:    http.NewHealthHandler(db),
		Users:     userRepo,
		JWTSecret: cfg.JWTSecret,
		Audit:     logging.Audit(logger),
	})

	server := &stdhttp.Server{Addr: "0.0.0.0:" + cfg.Port, Handler: handler}

	go func() {
		logger.Infow("server listening", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown error", "error", err)
	}
	emailQueue.Stop()
}
