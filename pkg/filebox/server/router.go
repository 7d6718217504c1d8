// Package server assembles the HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/access"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/files"
	"github.com/mikepea/filebox/pkg/filebox/logger"
	"github.com/mikepea/filebox/pkg/filebox/oidc"
	"github.com/mikepea/filebox/pkg/filebox/storage"
	"github.com/mikepea/filebox/pkg/filebox/users"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "github.com/mikepea/filebox/api/swagger"
)

// Options holds everything the router needs
type Options struct {
	DB      *gorm.DB
	Storage storage.Storage

	// LegacyOrgSubstringMatch grants org access on a substring match
	// against the caller's token identifier.
	LegacyOrgSubstringMatch bool

	IdentityIssuer        string
	IdentityWebhookSecret string

	// OIDC is optional; sign-in routes are only registered when set
	OIDC *oidc.Handler
}

// routeRegistrar is implemented by storage drivers that serve blobs
// themselves
type routeRegistrar interface {
	RegisterRoutes(r gin.IRoutes)
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogging())
	r.HandleMethodNotAllowed = true

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if rr, ok := opts.Storage.(routeRegistrar); ok {
		rr.RegisterRoutes(r)
	}

	userService := users.NewService(opts.DB)
	checker := access.NewChecker(userService, opts.LegacyOrgSubstringMatch)
	fileService := files.NewService(opts.DB, checker, opts.Storage)

	webhookHandler, err := users.NewWebhookHandler(userService, opts.IdentityIssuer, opts.IdentityWebhookSecret)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(auth.IdentityMiddleware())
	{
		api.GET("/health", func(c *gin.Context) {
			if err := ping(c.Request.Context(), opts.DB); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "filebox"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "filebox"})
		})

		auth.NewHandler(userService).RegisterRoutes(api.Group("/auth"))

		users.NewHandler(userService).RegisterRoutes(api)
		webhookHandler.RegisterRoutes(api)

		files.NewHandler(fileService).RegisterRoutes(api)

		if opts.OIDC != nil {
			opts.OIDC.RegisterRoutes(api.Group("/oidc"))
		}
	}

	return r, nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Run serves handler on addr until ctx is done, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
