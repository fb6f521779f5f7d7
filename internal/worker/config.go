// Package worker provides background job processing for DataVeil.
package worker

import (
	"os"
	"time"
)

// CleanupConfig holds configuration for the scheduled cleanup job.
type CleanupConfig struct {
	// Timeout is the deadline for one full cleanup run.
	// Default: 5 minutes
	Timeout time.Duration

	// DryRun makes every pass read-only. Useful when rolling out new
	// retention policies.
	DryRun bool
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Timeout: 5 * time.Minute,
	}
}

// CleanupConfigFromEnv creates a CleanupConfig from environment variables.
func CleanupConfigFromEnv() CleanupConfig {
	cfg := DefaultCleanupConfig()
	if raw := os.Getenv("CLEANUP_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	cfg.DryRun = os.Getenv("CLEANUP_DRY_RUN") == "true"
	return cfg
}
