package events

import (
	"context"
	"time"

	"jire/pkg/kafka"
	"jire/pkg/middleware"
	"jire/pkg/model"
)

type Type string

const (
	ReservationCreated Type = "reservation.created"
	ReservationDeleted Type = "reservation.deleted"
	ConferenceStarted  Type = "conference.started"
	ConferenceEnded    Type = "conference.ended"
)

// Origin of a started conference.
const (
	OriginReservation = "reservation"
	OriginWalkIn      = "walk_in"
)

const SchemaVersion = "1"

// HeaderBookingState lets consumers filter on the booking's partition without
// decoding the value.
const HeaderBookingState = "booking-state"

// Event describes a committed change to a room's bookings.
type Event struct {
	Type       Type
	Booking    *model.Booking
	Origin     string
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type payload struct {
	Type       Type               `json:"type"`
	Origin     string             `json:"origin,omitempty"`
	OccurredAt string             `json:"occurred_at"`
	Booking    model.ExternalView `json:"booking"`
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events keyed by room name so one room's events
// stay ordered on one partition.
type KafkaPublisher struct {
	producer  producer
	source    string
	publicURL string
}

func NewKafkaPublisher(p producer, source, publicURL string) *KafkaPublisher {
	return &KafkaPublisher{
		producer:  p,
		source:    source,
		publicURL: publicURL,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Booking.Name).
		WithEventID("").
		WithEventType(string(event.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		WithTimestamp(event.OccurredAt).
		WithHeader(HeaderBookingState, string(event.Booking.State)).
		WithValue(payload{
			Type:       event.Type,
			Origin:     event.Origin,
			OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
			Booking:    event.Booking.View(p.publicURL),
		}).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops events. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
