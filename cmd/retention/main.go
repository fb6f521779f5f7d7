// Package main provides the DataVeil retention CLI, meant for cron jobs
// and manual runs.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/audit"
	"github.com/dataveil/dataveil/internal/database"
	"github.com/dataveil/dataveil/internal/retention"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dryRun     = flag.Bool("dry-run", false, "report eligible records without deleting anything")
		dataType   = flag.String("type", "", "run cleanup for a single data type (default: all configured types)")
		configPath = flag.String("config", "", "path to a retention policy JSON file")
		timeout    = flag.Duration("timeout", 5*time.Minute, "deadline for the whole run")
	)
	flag.Parse()

	log := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", "dataveil-retention").
		Str("version", Version).
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	policies, err := retention.NewPolicyStore(retention.PolicyStoreConfig{
		Path:   *configPath,
		Logger: log,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load retention policies")
		return 1
	}

	pool, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return 1
	}
	defer pool.Close()

	manager := retention.NewManager(retention.ManagerConfig{
		Policies: policies,
		Store:    retention.NewPostgresStore(pool),
		Trail:    audit.NewPostgresTrail(pool),
		Logger:   log,
	})

	now := time.Now().UTC()

	if *dataType != "" {
		result, err := manager.Cleanup(ctx, *dataType, now, *dryRun)
		if err != nil {
			log.Error().Err(err).Str("data_type", *dataType).Msg("cleanup failed")
			return 1
		}
		logResult(log, result)
		return 0
	}

	runResult := manager.CleanupAll(ctx, now, *dryRun)
	for _, result := range runResult.Results {
		logResult(log, result)
	}
	for _, failure := range runResult.Failures {
		log.Error().
			Err(failure.Err).
			Str("data_type", failure.DataType).
			Msg("cleanup failed")
	}

	if !runResult.Succeeded() {
		return 1
	}
	return 0
}

func logResult(log zerolog.Logger, result retention.Result) {
	log.Info().
		Str("data_type", result.DataType).
		Int("soft_deleted", result.SoftDeleted).
		Int("hard_deleted", result.HardDeleted).
		Bool("dry_run", result.DryRun).
		Msg("cleanup completed")
}
