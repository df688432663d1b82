package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/analytics"
	"github.com/campaignserve/adengine/internal/api"
	"github.com/campaignserve/adengine/internal/cache"
	"github.com/campaignserve/adengine/internal/config"
	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/middleware"
	"github.com/campaignserve/adengine/internal/observability"
	"github.com/campaignserve/adengine/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracing, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdownTracing()
	}

	pg, err := store.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	redisCache, err := cache.New(cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisCache.Close()
	go redisCache.Subscribe(ctx)

	var mirror *analytics.Mirror
	if cfg.ClickHouseEnabled {
		mirror, err = analytics.InitClickHouse(cfg.ClickHouseDSN, cfg.CHMaxOpenConns)
		if err != nil {
			logger.Warn("clickhouse unavailable, continuing without the analytics mirror", zap.Error(err))
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	metricsRegistry := observability.NewPrometheusRegistry()
	eng := engine.New(pg)

	srv := api.NewServer(logger, pg, redisCache, mirror, eng, metricsRegistry, cfg)
	router := api.NewRouter(srv)
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.WithTraceLogger(logger)(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("ad server running", zap.String("addr", httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
