package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler consumes track batch messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processJob       *ProcessJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	ProcessJob       *ProcessJob
	Logger           zerolog.Logger
}

// Message is the envelope the tracking backend publishes.
type Message struct {
	JobType string       `json:"job_type"`
	Batches []TrackBatch `json:"batches,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Route processing fans out to the snapping service; keep the number of
	// in-flight messages modest.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processJob:       cfg.ProcessJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is cancelled.
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
	start := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var envelope Message
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	switch envelope.JobType {
	case "track_batch":
		if err := h.handleTrackBatch(ctx, envelope); err != nil {
			logger.Error().Err(err).Msg("job failed")
			msg.Nack()
			return
		}
	default:
		logger.Warn().Str("job_type", envelope.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	logger.Info().
		Str("job_type", envelope.JobType).
		Dur("duration", time.Since(start)).
		Msg("job completed")
	msg.Ack()
}

func (h *PubSubHandler) handleTrackBatch(ctx context.Context, envelope Message) error {
	if len(envelope.Batches) == 0 {
		return nil
	}

	result := h.processJob.Run(ctx, envelope.Batches)

	// A message is worth redelivering only when most of it failed; partial
	// failures (one vehicle's bad data) have already been logged.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many batch failures: %d/%d", result.Failed, result.Batches)
	}
	return nil
}
