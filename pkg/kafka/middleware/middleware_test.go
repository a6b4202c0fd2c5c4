package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"jire/pkg/kafka"
	"jire/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestMetricsProducerMiddleware(t *testing.T) {
	var m Metrics
	mw := MetricsProducerMiddleware(&m)
	msg := kafka.Message{Key: "room_a"}

	_ = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil })
	_ = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return errors.New("down") })
	_ = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil })

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Published)
	assert.Equal(t, int64(1), s.Failed)
}

func TestLoggingProducerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf, Level: logger.DEBUG})
	mw := LoggingProducerMiddleware(log)
	msg := kafka.Message{Key: "room_a", Topic: "jire.bookings", Headers: map[string]string{kafka.HeaderEventType: "conference.started"}}

	err := mw(context.Background(), msg, func(context.Context, kafka.Message) error { return errors.New("connection refused") })
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "Failed to publish message")
	assert.Contains(t, buf.String(), `"error_type":"transient"`)
	assert.Contains(t, buf.String(), "conference.started")

	buf.Reset()
	assert.NoError(t, mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil }))
	assert.Contains(t, buf.String(), "Published message")
}
