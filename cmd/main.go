package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "catalogsync/docs"
	"catalogsync/internal/apiclient"
	"catalogsync/internal/caching"
	"catalogsync/internal/config"
	"catalogsync/internal/handlers"
	"catalogsync/internal/jobs/background"
	"catalogsync/internal/logger"
	"catalogsync/internal/middleware"
	"catalogsync/internal/repositories"
	"catalogsync/internal/services"
	"catalogsync/internal/tracker"
	"catalogsync/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Role:      cfg.Role,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Namespace, log)

	storage, err := services.NewStorageService(services.StorageOptions{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		UseSSL:        cfg.Storage.UseSSL,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Warn("object storage bucket unavailable", "bucket", cfg.Storage.Bucket, "error", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(logger.RequestLogger(log))

	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandlers(pool, cacheSvc, storage, version))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	versions := middleware.NewVersionMiddleware()
	e.GET("/versions", versions.ListVersions)
	var cleanup func()

	switch cfg.Role {
	case config.RoleProvider:
		wireProvider(e, cfg, pool, cacheSvc, storage, versions, log)
		cleanup = func() {}
	case config.RoleClient:
		cleanup, err = wireClient(e, cfg, pool, cacheSvc, storage, versions, log)
		if err != nil {
			return err
		}
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("catalog sync server starting", "version", version, "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func wireProvider(e *echo.Echo, cfg *config.Config, pool *pgxpool.Pool, cacheSvc caching.CacheService, storage services.StorageService, versions *middleware.VersionMiddleware, log *slog.Logger) {
	attributeRepo := repositories.NewAttributeRepo(pool)
	termRepo := repositories.NewTermRepo(pool)
	assetRepo := repositories.NewImageAssetRepo(pool)
	credentialRepo := repositories.NewCredentialRepo(pool)

	stamps := tracker.New(repositories.NewModificationRepo(pool), log)
	catalogSvc := services.NewCatalogService(attributeRepo, termRepo, assetRepo, storage, stamps, log)
	listingSvc := services.NewListingService(attributeRepo, termRepo, assetRepo, stamps, storage, log)
	authSvc := services.NewAuthService(credentialRepo, cfg.Auth.JWTSecret, log)

	handlers.RegisterProviderRoutes(e, handlers.ProviderRoutes{
		Protocol:   handlers.NewProtocolHandlers(listingSvc, log),
		Catalog:    handlers.NewCatalogHandlers(catalogSvc, listingSvc, log),
		Auth:       middleware.BasicAuth(authSvc, cacheSvc, log),
		Capability: cfg.Provider.RequiredCapability,
		Audit:      middleware.NewAuditMiddleware(log),
		Version:    versions,
	})
}

func wireClient(e *echo.Echo, cfg *config.Config, pool *pgxpool.Pool, cacheSvc caching.CacheService, storage services.StorageService, versions *middleware.VersionMiddleware, log *slog.Logger) (func(), error) {
	if !cfg.Client.Configured() {
		log.Warn("provider endpoint or credentials missing, sync runs will be refused")
	}

	client := apiclient.New(apiclient.Options{
		BaseURL:  cfg.Client.SourceAPIURL,
		Username: cfg.Client.AppUsername,
		Password: cfg.Client.AppPassword,
		Timeout:  cfg.Client.Timeout(),
		Logger:   log,
	})
	assets := services.NewAssetService(repositories.NewImageAssetRepo(pool), storage, cacheSvc, services.AssetOptions{
		Timeout:       cfg.Client.Timeout(),
		MaxImageBytes: cfg.Client.MaxImageBytes,
	}, log)
	syncSvc := services.NewSyncService(
		client,
		repositories.NewAttributeRepo(pool),
		repositories.NewTermRepo(pool),
		repositories.NewSyncLinkRepo(pool),
		assets,
		cacheSvc,
		log,
	)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" && cfg.Auth.JWKSURL == "" {
		jwtSecret = random.String(32)
		log.Warn("JWT_SECRET not set, using a generated secret; admin tokens will not survive a restart")
	}
	adminAuth, stopJWKS, err := middleware.AdminJWT(middleware.AdminJWTConfig{
		Secret:  jwtSecret,
		JWKSURL: cfg.Auth.JWKSURL,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure admin auth: %w", err)
	}

	interval := time.Duration(cfg.Client.SyncIntervalMinutes) * time.Minute
	scheduler, err := background.NewJobScheduler(syncSvc, interval, log)
	if err != nil {
		stopJWKS()
		return nil, err
	}

	handlers.RegisterClientRoutes(e, handlers.ClientRoutes{
		Sync:            handlers.NewSyncHandlers(syncSvc, log),
		Jobs:            handlers.NewJobHandlers(scheduler, log),
		AdminAuth:       adminAuth,
		AdminCapability: cfg.Auth.AdminCapability,
		Version:         versions,
	})

	scheduler.Start()

	return func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn("scheduler shutdown failed", "error", err)
		}
		stopJWKS()
	}, nil
}
