package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/config"
	"github.com/mikepea/filebox/pkg/filebox/database"
	"github.com/mikepea/filebox/pkg/filebox/logger"
	"github.com/mikepea/filebox/pkg/filebox/models"
	"github.com/mikepea/filebox/pkg/filebox/oidc"
	"github.com/mikepea/filebox/pkg/filebox/server"
	"github.com/mikepea/filebox/pkg/filebox/storage"
	"github.com/mikepea/filebox/pkg/filebox/users"
)

// @title Filebox API
// @version 1.0
// @description Organization-scoped file sharing: upload, list, search, favorite and delete files.

// @contact.name Filebox Support
// @contact.url https://github.com/mikepea/filebox

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT session token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		logger.Flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.Configure(cfg.JWTSecret, cfg.JWTExpiry)

	db, err := database.Connect(cfg.DBDriver, cfg.DBConnection, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := models.AutoMigrate(db); err != nil {
		return err
	}
	slog.Info("database migrations completed")

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.IdentityWebhookSecret == "" {
		slog.Warn("IDENTITY_WEBHOOK_SECRET not set, identity webhooks are accepted unsigned")
	}

	var oidcHandler *oidc.Handler
	if cfg.OIDCIssuer != "" && cfg.OIDCClientID != "" {
		oidcHandler, err = oidc.NewHandler(ctx, users.NewService(db), oidc.Config{
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			BaseURL:      cfg.BaseURL,
		})
		if err != nil {
			return err
		}
		slog.Info("OIDC sign-in enabled", "issuer", cfg.OIDCIssuer)
	}

	router, err := server.NewRouter(server.Options{
		DB:                      db,
		Storage:                 store,
		LegacyOrgSubstringMatch: cfg.LegacyOrgSubstringMatch,
		IdentityIssuer:          cfg.IdentityIssuer,
		IdentityWebhookSecret:   cfg.IdentityWebhookSecret,
		OIDC:                    oidcHandler,
	})
	if err != nil {
		return err
	}

	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", cfg.BaseURL)
	return server.Run(ctx, ":"+cfg.Port, router)
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			UploadExpiry:   cfg.UploadURLExpiry,
			DownloadExpiry: cfg.DownloadURLExpiry,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	slog.Warn("using in-memory storage, uploaded files are lost on restart")
	return storage.NewMemoryStorage(cfg.BaseURL, cfg.UploadURLExpiry), nil
}
