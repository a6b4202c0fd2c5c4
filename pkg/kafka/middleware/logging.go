package kafka_middleware

import (
	"context"
	"time"

	"jire/pkg/kafka"
	"jire/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}

		if err != nil {
			attrs = append(attrs, "error", err, "error_type", kafka.ClassifyError(err).String())
			log.Error("Failed to publish message", attrs...)
			return err
		}

		log.Debug("Published message", attrs...)
		return nil
	}
}
