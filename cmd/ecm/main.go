package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khalilvb06/ecm/internal/config"
	"github.com/khalilvb06/ecm/internal/handler"
	"github.com/khalilvb06/ecm/internal/infra/blob"
	"github.com/khalilvb06/ecm/internal/infra/cache"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/infra/resilience"
	"github.com/khalilvb06/ecm/internal/infra/supabase"
	"github.com/khalilvb06/ecm/internal/service"
	"github.com/khalilvb06/ecm/internal/tenant"

	"go.uber.org/zap"
)

func main() {
	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("base_domain", cfg.BaseDomain),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("auth_check_timeout", cfg.AuthCheckTimeout),
		zap.Int("page_size", cfg.PageSize),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "ecm-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase"),
		metrics,
		logger,
	)

	// The guard's remote session check needs its own client: its timeout is
	// deliberately longer than the general one.
	authClient := supabase.NewClient(
		&http.Client{Timeout: cfg.AuthCheckTimeout},
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase-auth"),
		metrics,
		logger,
	)

	blobClient := blob.NewClient(
		&http.Client{Timeout: 60 * time.Second},
		cfg.BlobToken,
		resilience.NewCircuitBreaker("blob"),
		cfg.MaxConcurrency,
		metrics,
		logger,
	)

	// --- Tenant resolution ---
	// TTL zero pins entries until explicit invalidation.
	tenantCache := cache.New[int64](0)
	resolver := tenant.NewResolver(supabaseClient, tenantCache, cfg.LocalRoot, metrics, logger)

	// --- Services ---
	catalogSvc := service.NewCatalogService(supabaseClient, cfg.PageSize, logger, metrics)
	orderSvc := service.NewOrderService(supabaseClient, supabaseClient, supabaseClient, cfg.MaxOrderQty, logger, metrics)
	shippingSvc := service.NewShippingService(supabaseClient, logger)
	adminSvc := service.NewAdminService(
		authClient,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		blobClient,
		cfg.SupabaseJWTSecret,
		cfg.AuthCheckTimeout,
		cfg.PageSize,
		logger,
		metrics,
	)
	dashSvc := service.NewDashboardService(supabaseClient, supabaseClient, logger, metrics)

	// --- Router ---
	urls := &handler.StoreURLs{Protocol: cfg.Protocol, BaseDomain: cfg.BaseDomain}
	router := handler.NewRouter(handler.Services{
		Catalog:   catalogSvc,
		Orders:    orderSvc,
		Shipping:  shippingSvc,
		Admin:     adminSvc,
		Dashboard: dashSvc,
	}, resolver, urls, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
