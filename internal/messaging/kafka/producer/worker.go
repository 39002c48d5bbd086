package producer

import (
	"context"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/messaging/kafka"

	"go.uber.org/zap"
)

const (
	batchSize           = 50
	defaultPollInterval = 3 * time.Second
)

// ProcessOutboxEvents polls the outbox until ctx is cancelled.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.L()
	}
	log := logger.Named("kafka.producer.worker")
	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		drain(ctx, repo, writer, log)

		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// drain keeps publishing while every event of a full batch goes out.
func drain(ctx context.Context, repo kafka.OutboxRepository, writer MessageWriter, log *zap.Logger) {
	for ctx.Err() == nil {
		sent, err := ProcessPendingEvents(ctx, repo, writer, log)
		if err != nil {
			log.Error("process outbox events failed", zap.Error(err))
			return
		}
		if sent < batchSize {
			return
		}
	}
}

// ProcessPendingEvents publishes one batch and returns how many events were sent.
func ProcessPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
) (int, error) {
	due, err := repo.ListPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(due) > 0 {
		logger.Debug("processing due outbox events", zap.Int("count", len(due)))
	}

	sent := 0
	for _, event := range due {
		if publishOne(ctx, repo, writer, logger, event) {
			sent++
		}
	}
	return sent, nil
}

func publishOne(ctx context.Context, repo kafka.OutboxRepository, writer MessageWriter, log *zap.Logger, event kafka.OutboxEvent) bool {
	fields := []zap.Field{
		zap.String("outbox_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", event.EventType),
	}

	if err := publishEvent(ctx, writer, event); err != nil {
		attempt := event.RetryCount + 1
		if attempt >= kafka.MaxOutboxAttempts {
			log.Error("outbox event dead-lettered", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
		} else {
			log.Warn("publish outbox event failed", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
		}
		if markErr := repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			log.Error("mark outbox failed failed", append(fields, zap.Error(markErr))...)
		}
		return false
	}

	if err := repo.MarkSent(ctx, event.ID); err != nil {
		log.Error("mark outbox sent failed", append(fields, zap.Error(err))...)
		return false
	}

	log.Info("outbox event sent", append(fields, zap.String("topic", event.Topic))...)
	return true
}
