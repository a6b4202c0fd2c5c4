package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func buildMessage(t *testing.T) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey("room_a").
		WithEventType("reservation.created").
		WithValue(map[string]any{"id": 1}).
		Build()
	require.NoError(t, err)
	return msg
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "jire.bookings", "")

	require.NoError(t, p.Publish(context.Background(), buildMessage(t)))

	require.Len(t, w.messages, 1)
	got := w.messages[0]
	assert.Equal(t, "room_a", string(got.Key))
	assert.JSONEq(t, `{"id":1}`, string(got.Value))
	assert.Equal(t, "reservation.created", header(got, HeaderEventType))
	assert.NotEmpty(t, header(got, HeaderEventID))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t", "")

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t", "")
	var order []string
	for _, name := range []string{"outer", "inner"} {
		p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			assert.Equal(t, "t", msg.Topic)
			return next(ctx, msg)
		})
	}

	require.NoError(t, p.Publish(context.Background(), buildMessage(t)))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestProducer_FailureGoesToDLQ(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	dlq := &fakeWriter{}
	p := newProducer(w, dlq, "jire.bookings", "jire.bookings.dlq")

	err := p.Publish(context.Background(), buildMessage(t))
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTransient, ClassifyError(err))

	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "jire.bookings", header(dlq.messages[0], HeaderOriginalTopic))
	assert.Equal(t, "connection refused", header(dlq.messages[0], HeaderDLQError))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "t", "")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), buildMessage(t)), ErrProducerClosed)
}

func TestMessageBuilder_InvalidValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(func() {}).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"timeout", errors.New("i/o timeout"), ErrorTypeTransient},
		{"unknown topic", errors.New("[3] Unknown Topic Or Partition"), ErrorTypePermanent},
		{"typed transient", NewTransientError("publish", errors.New("eof")), ErrorTypeTransient},
		{"unrecognized", errors.New("boom"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
