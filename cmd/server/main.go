package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sbcarpet/showroom/internal/adapter/httpserver"
	"github.com/sbcarpet/showroom/internal/adapter/mailrelay"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/adapter/redis"
	"github.com/sbcarpet/showroom/internal/catalog"
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/platform/config"
	"github.com/sbcarpet/showroom/internal/platform/logging"
	"github.com/sbcarpet/showroom/internal/platform/version"
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewMetricsHook(m), redis.NewCircuitBreakerHook(m))
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupLimiter shares submission budgets across replicas through Redis when it
// is configured, and keeps them in process otherwise.
func setupLimiter(cfg *config.Config, rdb *goredis.Client, clock clockwork.Clock) domain.SubmissionLimiter {
	if rdb != nil {
		return redis.NewSubmissionLimiter(rdb, clock, cfg.SubmissionBurst, cfg.SubmissionsPerMinute)
	}
	slog.Info("REDIS_URL not set, limiting submissions in memory")
	return contact.NewMemoryLimiter(clock, cfg.SubmissionsPerMinute, cfg.SubmissionBurst)
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	pageMetrics := metrics.NewPageMetrics(registry)
	contactMetrics := metrics.NewContactMetrics(registry)

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		redisClient = setupRedis(ctx, cfg, metrics.NewRedisMetrics(registry))
		cancel()
		defer func() { _ = redisClient.Close() }()
	}

	relayClient := mailrelay.NewClient(cfg.MailRelayURL, mailrelay.WithMetrics(contactMetrics))
	relay := contact.NewLimitedRelay(relayClient, setupLimiter(cfg, redisClient, clock))

	cat, err := catalog.Default()
	if err != nil {
		slog.Error("Failed to load catalog", "error", err)
		os.Exit(1)
	}

	healthChecks := []httpserver.HealthCheck{
		{Name: "mail_relay", Check: func(context.Context) error {
			if relayClient.State() == circuitbreaker.OpenState {
				return errors.New("mail relay circuit breaker open")
			}
			return nil
		}},
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	srv, err := httpserver.NewServer(httpserver.Deps{
		Config:         cfg,
		Catalog:        cat,
		Relay:          relay,
		Clock:          clock,
		Registry:       registry,
		HTTPMetrics:    httpMetrics,
		PageMetrics:    pageMetrics,
		ContactMetrics: contactMetrics,
		HealthChecks:   healthChecks,
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
