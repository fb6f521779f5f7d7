// Package main provides the entrypoint for the DataVeil API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/api"
	"github.com/dataveil/dataveil/internal/api/middleware"
	"github.com/dataveil/dataveil/internal/audit"
	"github.com/dataveil/dataveil/internal/database"
	"github.com/dataveil/dataveil/internal/pii"
	"github.com/dataveil/dataveil/internal/retention"
	"github.com/dataveil/dataveil/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dataveil-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DataVeil API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize the detection and masking engine
	detector := pii.NewDetector(pii.DetectorConfig{Logger: log})

	hashKey := os.Getenv("PII_HASH_KEY")
	if hashKey == "" {
		log.Warn().Msg("PII_HASH_KEY not set - hash masking strategy disabled")
	}
	masker := pii.NewMasker(pii.MaskerConfig{
		HashKey: []byte(hashKey),
		Logger:  log,
	})
	log.Info().Msg("pii engine initialized")

	// Initialize retention policies, stores and manager
	policies, err := retention.NewPolicyStore(retention.PolicyStoreConfig{
		Path:   os.Getenv("RETENTION_POLICIES_PATH"),
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load retention policies")
	}

	trail := audit.NewPostgresTrail(pool)
	recordStore := retention.NewBreakerStore(
		retention.NewPostgresStore(pool),
		retention.DefaultBreakerConfig("retention-records"),
	)

	manager := retention.NewManager(retention.ManagerConfig{
		Policies: policies,
		Store:    recordStore,
		Trail:    trail,
		Logger:   log,
	})
	log.Info().
		Strs("data_types", policies.Types()).
		Msg("retention manager initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Detector:    detector,
		Masker:      masker,
		Manager:     manager,
		Policies:    policies,
		Trail:       trail,
		DB:          pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
