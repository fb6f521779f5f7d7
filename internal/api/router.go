// Package api provides the HTTP API for DataVeil.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/api/handler"
	"github.com/dataveil/dataveil/internal/api/middleware"
	"github.com/dataveil/dataveil/internal/audit"
	"github.com/dataveil/dataveil/internal/pii"
	"github.com/dataveil/dataveil/internal/retention"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Detector *pii.Detector
	Masker   *pii.Masker
	Manager  *retention.Manager
	Policies *retention.PolicyStore
	Trail    audit.Trail

	// DB is pinged by the readiness endpoint. May be nil for in-memory
	// deployments.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dataveil-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	piiHandler := handler.NewPIIHandler(cfg.Detector, cfg.Masker)
	retentionHandler := handler.NewRetentionHandler(cfg.Manager, cfg.Policies)
	auditHandler := handler.NewAuditHandler(cfg.Trail)

	// Create rate limit middleware for different endpoint categories
	strictRateLimit := middleware.RateLimitByIP(middleware.StrictRateLimit)       // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Scanning endpoints - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/pii:detect", piiHandler.Detect)
		r.With(expensiveRateLimit).Post("/pii:mask", piiHandler.Mask)

		// Retention endpoints - destructive, strictest rate limiting
		r.Route("/retention", func(r chi.Router) {
			r.With(standardRateLimit).Get("/policies", retentionHandler.ListPolicies)
			r.With(strictRateLimit).Post("/{dataType}:cleanup", retentionHandler.Cleanup)
			r.With(strictRateLimit).Post("/{dataType}/records/{recordId}:restore", retentionHandler.Restore)
		})
		r.With(strictRateLimit).Post("/retention:cleanup", retentionHandler.CleanupAll)

		// Audit trail (read-only) - standard rate limiting
		r.Route("/audit", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/records", auditHandler.ListRecords)
		})
	})

	return r
}
