package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"jire/pkg/kafka"
)

// Metrics counts producer outcomes. The zero value is ready to use.
type Metrics struct {
	published     atomic.Int64
	failed        atomic.Int64
	durationTotal atomic.Int64
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Published          int64   `json:"published"`
	Failed             int64   `json:"failed"`
	AvgPublishDuration float64 `json:"avg_publish_ms"`
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.published.Load()
	s := Snapshot{
		Published: published,
		Failed:    m.failed.Load(),
	}
	if published > 0 {
		avg := time.Duration(m.durationTotal.Load() / published)
		s.AvgPublishDuration = float64(avg) / float64(time.Millisecond)
	}
	return s
}

// MetricsProducerMiddleware records publish counts and latency into m.
func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		if err != nil {
			m.failed.Add(1)
			return err
		}
		m.published.Add(1)
		m.durationTotal.Add(int64(time.Since(start)))
		return nil
	}
}
