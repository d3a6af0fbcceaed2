package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"bizdesk/docs"
	"bizdesk/internal/auth"
	"bizdesk/internal/cache"
	"bizdesk/internal/config"
	"bizdesk/internal/db"
	"bizdesk/internal/handler"
	"bizdesk/internal/logger"
	"bizdesk/internal/mailer"
	"bizdesk/internal/repository"
	"bizdesk/internal/router"
	"bizdesk/internal/service"
	"bizdesk/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Bizdesk API
// @version 1.0
// @description Accounts, CRM leads, invoices and a file vault for small businesses.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (err error) {
	gormDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer func() { err = multierr.Append(err, sqlDB.Close()) }()

	if cfg.Database.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.DropAll(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { err = multierr.Append(err, cacheClient.Close()) }()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	crmRepo := repository.NewCrmRepository(gormDB)
	invoiceRepo := repository.NewInvoiceRepository(gormDB)
	dataStoreRepo := repository.NewDataStoreRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient.Redis())
	resetTokens := auth.NewResetTokenGenerator(cfg.Auth.JWTSecret, cfg.Auth.PasswordResetTTL)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, resetTokens, newMailer(cfg, log), cacheClient, service.AuthOptions{
		TokenTTL:    cfg.Auth.TokenTTL,
		FrontendURL: cfg.FrontendURL,
	})
	userService := service.NewUserService(userRepo, cacheClient, blobs)
	crmService := service.NewCrmService(crmRepo)
	invoiceService := service.NewInvoiceService(invoiceRepo)
	fileService := service.NewFileService(dataStoreRepo, blobs, cfg.Storage.MaxUploadBytes)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, router.Dependencies{
		AuthService: authService,
		Tokens:      jwtService,
		Redis:       cacheClient.Redis(),
		Ready:       readiness(gormDB, cacheClient),
		Logger:      log,
	}, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Crm:     handler.NewCrmHandler(crmService),
		Invoice: handler.NewInvoiceHandler(invoiceService),
		File:    handler.NewFileHandler(fileService),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server start: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCredentials)
		if err != nil {
			return nil, fmt.Errorf("gcs storage: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewLocalStore(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return store, nil
	}
}

func newMailer(cfg *config.Config, log zerolog.Logger) mailer.Mailer {
	if cfg.Mail.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, password reset mail is only logged")
		return mailer.NewLogMailer(log)
	}
	return mailer.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword, cfg.Mail.From, cfg.Mail.SMTPTimeout)
}

func readiness(gormDB *gorm.DB, cacheClient *cache.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs error
		if sqlDB, err := gormDB.DB(); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			errs = multierr.Append(errs, sqlDB.PingContext(ctx))
		}
		return multierr.Append(errs, cacheClient.Ping(ctx))
	}
}
