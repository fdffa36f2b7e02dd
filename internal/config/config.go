// Package config loads the marathon rating processor's configuration from
// environment variables, layered over sensible defaults via koanf's env
// provider over the struct Default() returns.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds every environment-variable-driven setting the processor
// needs. Load maps each field from its env var (e.g. DatabaseURL from
// DATABASE_URL, V5APIURL from V5_API_URL).
type Config struct {
	// DatabaseURL is the Postgres DSN for the relational store.
	DatabaseURL string

	// Kafka bus configuration.
	KafkaURL                         string
	KafkaGroupID                     string
	KafkaClientCert                  string
	KafkaClientCertKey               string
	KafkaAutopilotNotificationsTopic string
	KafkaRatingServiceTopic          string

	// Auth0 M2M token configuration.
	Auth0URL          string
	Auth0Audience     string
	Auth0ClientID     string
	Auth0ClientSecret string
	TokenCacheTime    time.Duration

	// V5API URL is the base URL for challenge lookup and submission listing.
	V5APIURL string

	LogLevel        string
	HealthcheckPort int

	// RoundWorkerCount bounds the orchestrator's worker pool, giving
	// cross-round parallelism an explicit concurrency limit.
	// Env: ROUND_WORKER_COUNT.
	RoundWorkerCount int

	// DatabaseAutomigrate controls whether internal/store creates its
	// tables on startup (expansion knob). Env: DATABASE_AUTOMIGRATE.
	DatabaseAutomigrate bool
}

// Default returns a Config with the defaults applied before environment
// overrides.
func Default() Config {
	return Config{
		KafkaGroupID:                     "marathon-rating-processor",
		KafkaAutopilotNotificationsTopic: "autopilot.notifications",
		KafkaRatingServiceTopic:          "rating.calculation.events",
		TokenCacheTime:                   10 * time.Minute,
		LogLevel:                         "info",
		HealthcheckPort:                  8080,
		RoundWorkerCount:                 runtime.NumCPU(),
		DatabaseAutomigrate:              true,
	}
}

// Load builds a Config from the process environment, starting from
// Default() and overriding with whatever environment variables are set.
func Load() (Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	cfg.DatabaseURL = k.String("DATABASE_URL")
	cfg.KafkaURL = k.String("KAFKA_URL")
	if v := k.String("KAFKA_GROUP_ID"); v != "" {
		cfg.KafkaGroupID = v
	}
	cfg.KafkaClientCert = k.String("KAFKA_CLIENT_CERT")
	cfg.KafkaClientCertKey = k.String("KAFKA_CLIENT_CERT_KEY")
	if v := k.String("KAFKA_AUTOPILOT_NOTIFICATIONS_TOPIC"); v != "" {
		cfg.KafkaAutopilotNotificationsTopic = v
	}
	if v := k.String("KAFKA_RATING_SERVICE_TOPIC"); v != "" {
		cfg.KafkaRatingServiceTopic = v
	}

	cfg.Auth0URL = k.String("AUTH0_URL")
	cfg.Auth0Audience = k.String("AUTH0_AUDIENCE")
	cfg.Auth0ClientID = k.String("AUTH0_CLIENT_ID")
	cfg.Auth0ClientSecret = k.String("AUTH0_CLIENT_SECRET")
	if ms := k.Int64("TOKEN_CACHE_TIME"); ms > 0 {
		cfg.TokenCacheTime = time.Duration(ms) * time.Millisecond
	}

	cfg.V5APIURL = k.String("V5_API_URL")

	if v := k.String("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if p := k.Int("HEALTHCHECK_PORT"); p > 0 {
		cfg.HealthcheckPort = p
	}
	if c := k.Int("ROUND_WORKER_COUNT"); c > 0 {
		cfg.RoundWorkerCount = c
	}
	if k.Exists("DATABASE_AUTOMIGRATE") {
		cfg.DatabaseAutomigrate = k.Bool("DATABASE_AUTOMIGRATE")
	}

	return cfg, cfg.validate()
}

// validate checks the settings required for a clean startup are present.
// Treating a missing required setting as a fatal initialization failure is
// the caller's responsibility (cmd/processor/main.go).
func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.KafkaURL == "" {
		return fmt.Errorf("KAFKA_URL is required")
	}
	if c.Auth0URL == "" || c.Auth0ClientID == "" || c.Auth0ClientSecret == "" {
		return fmt.Errorf("AUTH0_URL, AUTH0_CLIENT_ID, and AUTH0_CLIENT_SECRET are required")
	}
	if c.V5APIURL == "" {
		return fmt.Errorf("V5_API_URL is required")
	}
	return nil
}
