package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/retention"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	cleanupJob       *CleanupJob
	policies         *retention.PolicyStore
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	CleanupJob       *CleanupJob
	Policies         *retention.PolicyStore
	Logger           zerolog.Logger
}

// CleanupMessage represents a retention job message published by the
// scheduler.
type CleanupMessage struct {
	JobType string `json:"job_type"`

	// DataType restricts the run to one data type. Empty means all.
	DataType string `json:"data_type,omitempty"`

	DryRun bool `json:"dry_run,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings. Cleanup runs are serialized per data
	// type inside the manager, so a small outstanding window is enough.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		cleanupJob:       cfg.CleanupJob,
		policies:         cfg.Policies,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var cleanupMsg CleanupMessage
	if err := json.Unmarshal(msg.Data, &cleanupMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch cleanupMsg.JobType {
	case "retention_cleanup":
		err = h.handleCleanup(ctx, cleanupMsg)
	case "policy_reload":
		err = h.handlePolicyReload()
	default:
		logger.Warn().Str("job_type", cleanupMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", cleanupMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleCleanup(ctx context.Context, msg CleanupMessage) error {
	if msg.DataType != "" {
		_, err := h.cleanupJob.RunType(ctx, msg.DataType, msg.DryRun)
		return err
	}

	run := h.cleanupJob.Run(ctx)
	if !run.Succeeded() {
		// A partial failure is retried as a whole; completed types are
		// idempotent on re-run.
		return fmt.Errorf("cleanup run had %d failing data types", len(run.Failures))
	}
	return nil
}

func (h *PubSubHandler) handlePolicyReload() error {
	if h.policies == nil {
		return fmt.Errorf("no policy store configured")
	}
	return h.policies.Reload()
}
