// Package main is the entry point for the marathon rating processor.
//
// The processor consumes two Kafka topics — autopilot phase-transition
// notifications and rating-pipeline stage events — and drives the round
// calculation pipeline: resolve round, reconcile attendance, run the
// two-pass rating engine, and persist the result.
//
// # Initialization order
//
//  1. Configuration: load settings from the environment (internal/config)
//  2. Logging: configure zerolog at the requested level
//  3. Relational store: open the Postgres pool and apply schema migrations
//  4. V5 API client: Auth0 M2M token fetcher + challenge/submission lookups
//  5. Round calculation pipeline: loader, persistor, reconciler, orchestrator
//  6. Round-worker pool: bounds how many rounds calculate concurrently
//  7. Event router: classifies inbound messages and dispatches the pipeline
//  8. Consumer harnesses: one per subscribed topic
//  9. Supervisor tree: messaging layer (harnesses) + work layer (pool)
//  10. Health/metrics HTTP server
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context, which the supervisor tree
// propagates to every supervised service for graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naividh/member-profile-processor/internal/authtoken"
	"github.com/naividh/member-profile-processor/internal/config"
	"github.com/naividh/member-profile-processor/internal/consumer"
	"github.com/naividh/member-profile-processor/internal/health"
	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/orchestrator"
	"github.com/naividh/member-profile-processor/internal/reconcile"
	"github.com/naividh/member-profile-processor/internal/router"
	"github.com/naividh/member-profile-processor/internal/store"
	"github.com/naividh/member-profile-processor/internal/supervisor"
	"github.com/naividh/member-profile-processor/internal/v5client"
	"github.com/naividh/member-profile-processor/internal/workerpool"
)

// healthShutdownTimeout bounds how long the health/metrics HTTP server is
// given to drain in-flight requests during shutdown.
const healthShutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)
	logging.Info().Msg("starting marathon rating processor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Error().Err(err).Msg("failed to open database")
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	if cfg.DatabaseAutomigrate {
		if err := db.Migrate(ctx); err != nil {
			logging.Error().Err(err).Msg("failed to apply schema migrations")
			os.Exit(1)
		}
		logging.Info().Msg("schema migrations applied")
	}

	v5 := v5client.New(v5client.Config{
		V5APIURL:          cfg.V5APIURL,
		Auth0URL:          cfg.Auth0URL,
		Auth0Audience:     cfg.Auth0Audience,
		Auth0ClientID:     cfg.Auth0ClientID,
		Auth0ClientSecret: cfg.Auth0ClientSecret,
	})
	tokens := authtoken.NewCache(v5, cfg.TokenCacheTime)

	loader := store.NewLoader(db)
	persistor := store.NewPersistor(db)
	reconciler := reconcile.New(v5, tokens, db)
	orch := orchestrator.New(db, loader, persistor, reconciler)

	pool := workerpool.New(cfg.RoundWorkerCount)
	pooledOrch := orchestrator.NewPooled(orch, pool)

	resolver := v5client.NewTokenedChallengeResolver(v5, tokens)
	eventRouter := router.New(resolver, pooledOrch, router.StubLegacyLoader{})

	tlsConfig, err := consumer.TLSConfig(cfg.KafkaClientCert, cfg.KafkaClientCertKey)
	if err != nil {
		logging.Error().Err(err).Msg("failed to build kafka TLS configuration")
		os.Exit(1)
	}

	autopilotHarness := consumer.New(consumer.Config{
		Brokers:   []string{cfg.KafkaURL},
		GroupID:   cfg.KafkaGroupID,
		Topic:     cfg.KafkaAutopilotNotificationsTopic,
		TLSConfig: tlsConfig,
	}, router.TopicAutopilotNotifications, eventRouter)

	ratingServiceHarness := consumer.New(consumer.Config{
		Brokers:   []string{cfg.KafkaURL},
		GroupID:   cfg.KafkaGroupID,
		Topic:     cfg.KafkaRatingServiceTopic,
		TLSConfig: tlsConfig,
	}, router.TopicRatingService, eventRouter)

	tree := supervisor.NewTree(newSlogAdapter(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(autopilotHarness)
	tree.AddMessagingService(ratingServiceHarness)
	tree.AddWorkService(pool)

	healthServer := health.NewServer()
	healthServer.Register("database", db)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HealthcheckPort),
		Handler: healthMux(healthServer),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("health/metrics server stopped unexpectedly")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("error shutting down health/metrics server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Int("healthcheck_port", cfg.HealthcheckPort).Msg("serving supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("marathon rating processor stopped gracefully")
}

func healthMux(healthServer *health.Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", healthServer)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// newSlogAdapter builds the log/slog.Logger suture's sutureslog handler
// needs for its own lifecycle events, kept deliberately separate from the
// zerolog-based application logging used everywhere else in this processor.
func newSlogAdapter() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
