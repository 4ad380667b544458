package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dukerupert/airkicks/internal"
	"github.com/dukerupert/airkicks/internal/handler"
	"github.com/dukerupert/airkicks/internal/handler/storefront"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/notify"
	"github.com/dukerupert/airkicks/internal/postgres"
	"github.com/dukerupert/airkicks/internal/router"
	"github.com/dukerupert/airkicks/internal/routes"
	"github.com/dukerupert/airkicks/internal/shop"
	"github.com/dukerupert/airkicks/internal/telemetry"
	"github.com/dukerupert/airkicks/internal/tooltip"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger

	// ==========================================================================
	// Metrics
	// ==========================================================================

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("airkicks", registry)
	businessMetrics := telemetry.NewBusinessMetrics("airkicks", registry)

	// ==========================================================================
	// Shop server client
	// ==========================================================================

	shopClient, err := shop.NewHTTPClient(shop.Config{
		BaseURL: cfg.Shop.URL,
		Timeout: cfg.Shop.Timeout,
		Logger:  logger,
		Observe: businessMetrics.ObserveShopCall,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shop client: %w", err)
	}
	logger.Info().Str("url", cfg.Shop.URL).Msg("Shop client initialized")

	// ==========================================================================
	// Product details source for tooltips
	// ==========================================================================

	var catalog tooltip.Source = shopClient
	if cfg.Catalog.Source == internal.CatalogPostgres {
		logger.Info().Msg("Connecting to catalogue database...")
		sqlDB, err := internal.OpenMigrationDB(cfg.Catalog.DatabaseURL)
		if err != nil {
			return err
		}

		logger.Info().Msg("Running database migrations...")
		err = internal.RunMigrations(sqlDB)
		sqlDB.Close()
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info().Msg("Database migrations completed successfully")

		pool, err := pgxpool.New(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		catalog = postgres.NewProductStore(pool)
	}
	logger.Info().Str("source", cfg.Catalog.Source).Msg("Product catalogue configured")

	// ==========================================================================
	// Notices
	// ==========================================================================

	center := notify.NewCenter()
	defer center.Close()

	var notifier notify.Notifier = center
	if cfg.Notices.NATSURL != "" {
		nc, err := notify.Connect(cfg.Notices.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Drain()

		notifier = notify.Multi{center, notify.NewNATSNotifier(nc, cfg.Notices.Subject)}
		logger.Info().Str("subject", cfg.Notices.Subject).Msg("Publishing notices to NATS")
	}

	// ==========================================================================
	// Handlers
	// ==========================================================================

	renderer, err := handler.NewEmbeddedRenderer()
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	notices := storefront.NewNotices(notifier, cfg.Notices.Duration, businessMetrics)

	// Cart and checkout calls hit the shop server; give them half the budget.
	mutationLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond / 2,
		BurstSize:         max(cfg.RateLimit.Burst/2, 1),
	})
	defer mutationLimiter.Stop()

	storefrontDeps := routes.StorefrontDeps{
		TooltipHandler:     storefront.NewTooltipHandler(catalog, renderer, businessMetrics),
		CartHandler:        storefront.NewCartHandler(shopClient, notices, businessMetrics, cfg.SessionCookie),
		CheckoutHandler:    storefront.NewCheckoutHandler(shopClient, notices, renderer, businessMetrics, cfg.SessionCookie),
		NoticeHandler:      storefront.NewNoticeHandler(center, renderer),
		MutationMiddleware: []router.Middleware{mutationLimiter.Middleware},
	}

	// ==========================================================================
	// Middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.ContentSecurityPolicy = ""
		securityConfig.HSTSMaxAge = 0
	}

	defaultRateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	})
	defer defaultRateLimiter.Stop()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultRateLimiter.Middleware,
		middleware.Session(middleware.SessionConfig{
			CookieName: cfg.SessionCookie,
			Secure:     cfg.Env != "dev",
		}),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Metrics endpoint (should be protected in production via firewall)
	r.Handle(http.MethodGet, "/metrics", httpMetrics.Handler())

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", srv.Addr).Msg("Starting storefront server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("storefront exited")
	}
}
