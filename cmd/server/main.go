package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/shopbot/catalog-service/config"
	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/catalog"
	"github.com/shopbot/catalog-service/internal/fetch"
	"github.com/shopbot/catalog-service/internal/handlers"
	"github.com/shopbot/catalog-service/internal/middleware"
	"github.com/shopbot/catalog-service/internal/refresher"
	"github.com/shopbot/catalog-service/internal/resolver"
	"github.com/shopbot/catalog-service/internal/source"
	"github.com/shopbot/catalog-service/internal/telemetry"
	"github.com/shopbot/catalog-service/internal/users"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	ctx := context.Background()

	telemetryCleanup, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer telemetryCleanup(ctx)

	store, err := cache.New(cache.Policy(cfg.Cache.Policy), cfg.Cache.Capacity)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache store")
	}

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create catalog source")
	}
	cached := source.NewCachedSource(src, store, cfg.Source.RowTTL)

	builder := catalog.NewBuilder(cached, catalog.BuilderConfig{
		FetchConcurrency: cfg.Source.FetchConcurrency,
		FetchTimeout:     cfg.Source.FetchTimeout,
	})
	res := resolver.New(builder, store, resolver.Config{
		FallbackAnyShop: cfg.Resolver.FallbackAnyShop,
		BuildTimeout:    cfg.Resolver.BuildTimeout,
		SnapshotTTL:     cfg.Resolver.SnapshotTTL,
	})
	dir := users.New(cached, store, cfg.Resolver.UserTTL)

	// Warm the index so the first request does not pay the build
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, cfg.Resolver.BuildTimeout)
		defer cancel()
		if err := res.RefreshNow(warmCtx); err != nil {
			logger.Warn().Err(err).Msg("Initial index build failed, will retry on first request")
		}
	}()

	ref := refresher.New(res, cfg.Refresh.Interval)
	go ref.Start(ctx)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)
	router.Use(middleware.RateLimitMiddleware())

	router.GET("/health", handlers.HealthCheck(res))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/resolve", handlers.Resolve(res))
		v1.GET("/users/:id", handlers.GetUser(dir))
	}

	admin := router.Group("/internal/admin")
	admin.Use(middleware.AdminAuthMiddleware(middleware.AdminAuthConfig{
		Token: cfg.Admin.Token,
		IDs:   cfg.Admin.IDs,
	}))
	{
		admin.POST("/refresh", handlers.ForceRefresh(res))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	ref.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// buildSource creates the configured backing source: the remote sheet
// exports or the local relational mirror.
func buildSource(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (source.Source, error) {
	switch cfg.Source.Kind {
	case "mirror":
		if cfg.Mirror.URL == "" {
			return nil, fmt.Errorf("mirror source selected but mirror.url not set")
		}
		logger.Info().Msg("Using mirror database source")
		return source.NewMirrorSource(ctx, source.MirrorConfig{
			URL:             cfg.Mirror.URL,
			MaxConnections:  cfg.Mirror.MaxConnections,
			MinConnections:  cfg.Mirror.MinConnections,
			MaxConnLifetime: cfg.Mirror.MaxConnLifetime,
			MaxConnIdleTime: cfg.Mirror.MaxConnIdleTime,
		})
	case "sheet", "":
		client := fetch.NewClient(fetch.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxRetries:        cfg.RateLimit.MaxRetries,
			InitialBackoff:    time.Duration(cfg.RateLimit.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:        time.Duration(cfg.RateLimit.MaxBackoffMs) * time.Millisecond,
		})
		logger.Info().Str("format", cfg.Source.Format).Msg("Using sheet export source")
		return source.NewSheetSource(client, source.SheetConfig{
			CatalogURL:          cfg.Source.CatalogURL,
			ScheduleURLTemplate: cfg.Source.ScheduleURLTemplate,
			UsersURL:            cfg.Source.UsersURL,
			Format:              source.Format(cfg.Source.Format),
			Encoding:            source.Encoding(cfg.Source.Encoding),
			CatalogHeaders:      cfg.Source.CatalogHeaders,
			ScheduleHeaders:     cfg.Source.ScheduleHeaders,
			UserHeaders:         cfg.Source.UserHeaders,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()
	zlog.Logger = logger
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
