package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *StressProcessor
	warmupJob        *WarmupJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *StressProcessor
	WarmupJob        *WarmupJob
	Logger           zerolog.Logger
}

// JobMessage is the envelope for worker jobs.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Reading is set for stress_reading jobs.
	Reading *StressReading `json:"reading,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        cfg.Processor,
		warmupJob:        cfg.WarmupJob,
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

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case "stress_reading":
		err = h.handleStressReading(ctx, job)
	case "route_warmup":
		err = h.handleRouteWarmup(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
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
		Str("job_type", job.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleStressReading(ctx context.Context, job JobMessage) error {
	if job.Reading == nil {
		return fmt.Errorf("stress_reading job missing reading payload")
	}
	if job.Reading.UserID == "" {
		return fmt.Errorf("stress_reading job missing user_id")
	}

	outcome, err := h.processor.Process(ctx, *job.Reading)
	if err != nil {
		return fmt.Errorf("processing stress reading: %w", err)
	}

	event := h.logger.Info().
		Str("user_id", job.Reading.UserID).
		Float64("stress_score", outcome.Assessment.StressScore).
		Str("stress_level", string(outcome.Assessment.StressLevel))
	if outcome.Intervention != nil {
		event = event.Str("intervention_type", string(outcome.Intervention.Type))
	}
	if outcome.Reroute != nil {
		event = event.Bool("reroute_available", outcome.Reroute.Available)
	}
	event.Msg("stress reading processed")

	return nil
}

func (h *PubSubHandler) handleRouteWarmup(ctx context.Context) error {
	h.logger.Info().Msg("starting route warmup")

	result := h.warmupJob.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("routes_fetched", result.RoutesFetched).
		Msg("route warmup completed")

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warmup failures: %d/%d", result.Failed, result.TotalCorridors)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Warm a single corridor to verify provider connectivity.
	corridors := h.warmupJob.config.Corridors
	if len(corridors) == 0 {
		corridors = DefaultWarmupCorridors()
	}

	healthCheckJob := NewWarmupJob(WarmupJobConfig{
		Config: WarmupConfig{
			Corridors:   corridors[:1],
			Concurrency: 1,
			Timeout:     10 * time.Second,
		},
		Logger: h.logger,
		Routes: h.warmupJob.routes,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
