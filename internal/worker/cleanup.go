package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/retention"
)

// CleanupJob runs retention passes on behalf of the scheduler. It owns
// no policy logic; all decisions live in the retention manager.
type CleanupJob struct {
	manager *retention.Manager
	config  CleanupConfig
	metrics *Metrics
	logger  zerolog.Logger
}

// CleanupJobConfig holds configuration for creating a CleanupJob.
type CleanupJobConfig struct {
	Manager *retention.Manager
	Config  CleanupConfig

	// Metrics is optional; nil disables run metrics.
	Metrics *Metrics

	Logger zerolog.Logger
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(cfg CleanupJobConfig) *CleanupJob {
	config := cfg.Config
	if config.Timeout <= 0 {
		config.Timeout = DefaultCleanupConfig().Timeout
	}
	return &CleanupJob{
		manager: cfg.Manager,
		config:  config,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Run executes one cleanup pass across all configured data types.
func (j *CleanupJob) Run(ctx context.Context) retention.RunResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	run := j.manager.CleanupAll(ctx, time.Now().UTC(), j.config.DryRun)
	duration := time.Since(start)

	if j.metrics != nil {
		for _, result := range run.Results {
			j.metrics.RecordRun(result.DataType, duration, result.SoftDeleted, result.HardDeleted, false)
		}
		for _, failure := range run.Failures {
			j.metrics.RecordRun(failure.DataType, duration, 0, 0, true)
		}
	}

	j.logger.Info().
		Dur("duration", duration).
		Int("succeeded", len(run.Results)).
		Int("failed", len(run.Failures)).
		Bool("dry_run", j.config.DryRun).
		Msg("cleanup run finished")

	return run
}

// RunType executes one cleanup pass for a single data type.
func (j *CleanupJob) RunType(ctx context.Context, dataType string, dryRun bool) (retention.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := j.manager.Cleanup(ctx, dataType, time.Now().UTC(), dryRun)
	if j.metrics != nil {
		j.metrics.RecordRun(dataType, time.Since(start), result.SoftDeleted, result.HardDeleted, err != nil)
	}
	return result, err
}
