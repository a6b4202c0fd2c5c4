package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"jire/pkg/kafka"
	"jire/pkg/middleware"
	"jire/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProducer struct {
	messages []kafka.Message
	closed   bool
}

func (c *captureProducer) Publish(_ context.Context, msg kafka.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureProducer) Close() error {
	c.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	prod := &captureProducer{}
	pub := NewKafkaPublisher(prod, "reservations", "https://meet.example.org")

	b := &model.Booking{ID: 42, Name: "room_a", Owner: "alice@x.com", Timezone: "UTC", State: model.StateSession}
	b.SetSchedule(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 30*time.Minute)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	at := time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC)
	require.NoError(t, pub.Publish(ctx, Event{Type: ConferenceStarted, Booking: b, Origin: OriginReservation, OccurredAt: at}))

	require.Len(t, prod.messages, 1)
	msg := prod.messages[0]
	assert.Equal(t, "room_a", msg.Key)
	assert.Equal(t, string(ConferenceStarted), msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.Equal(t, "reservations", msg.Headers[kafka.HeaderSource])
	assert.Equal(t, "session", msg.Headers[HeaderBookingState])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "reservation", body["origin"])
	booking := body["booking"].(map[string]any)
	assert.Equal(t, float64(42), booking["id"])
	assert.Equal(t, "2024-01-01T10:00:00.000+0000", booking["start_time"])
	assert.Equal(t, float64(1800), booking["duration"])
	assert.Equal(t, "https://meet.example.org/room_a", booking["url"])

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
