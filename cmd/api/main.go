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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/renovation-leads/cmd/mainconfig"
	"github.com/wolfman30/renovation-leads/internal/api/router"
	"github.com/wolfman30/renovation-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/renovation-leads/internal/config"
	httpmiddleware "github.com/wolfman30/renovation-leads/internal/http/middleware"
	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/internal/submission"
	"github.com/wolfman30/renovation-leads/internal/wizard"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting renovation-leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := bootstrap.ConnectPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	leadsRepo := bootstrap.BuildLeadRepository(pool, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Warn("redis not configured; drafts are kept in memory")
	}

	ses, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		return err
	}

	metricsHandler, registry := setupMetrics()
	svc, err := bootstrap.BuildSubmissionService(ctx, cfg, bootstrap.SubmissionDeps{
		Repo:     leadsRepo,
		Email:    bootstrap.BuildEmailSender(cfg, ses, logger),
		Registry: registry,
	}, logger)
	if err != nil {
		return err
	}

	routerCfg := &router.Config{
		Logger:          logger,
		SubmitHandler:   submission.NewHandler(svc, logger),
		DraftHandler:    wizard.NewDraftHandler(bootstrap.BuildDraftStores(redisClient, cfg), logger),
		LeadsHandler:    leads.NewHandler(leadsRepo, logger),
		SubmitLimiter:   httpmiddleware.NewRateLimiter(ctx, cfg.SubmitRateLimit, cfg.SubmitRateBurst),
		CORS:            httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins, cfg.CORSPreviewPatterns, cfg.CORSDefaultOrigin),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  metricsHandler,
		HealthCheck:     healthCheck(pool, redisClient),
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin lead endpoints are disabled")
	}

	srv := newServer(cfg.Port, router.New(routerCfg))
	return serve(ctx, srv, logger)
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *logging.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func setupMetrics() (http.Handler, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), registry
}

func healthCheck(pool *pgxpool.Pool, redisClient *redis.Client) func(context.Context) error {
	if pool == nil && redisClient == nil {
		return nil
	}
	return func(ctx context.Context) error {
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}
