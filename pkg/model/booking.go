package model

import (
	"time"

	"jire/pkg/timeutil"
)

// DefaultDuration applies when a request carries no positive duration.
const DefaultDuration = 6 * time.Hour

type State string

const (
	StateReservation State = "reservation"
	StateSession     State = "session"
)

// Booking is one room's reservation or running session. A Booking starts as a
// reservation or a walk-in session; the only allowed transition is
// reservation -> session, which keeps the ID.
type Booking struct {
	ID        int64         `json:"id" bson:"_id"`
	Name      string        `json:"name" bson:"name"`
	StartTime time.Time     `json:"start_time" bson:"start_time"`
	EndTime   time.Time     `json:"end_time" bson:"end_time"`
	Duration  time.Duration `json:"duration" bson:"duration"`
	Timezone  string        `json:"timezone" bson:"timezone"`
	UTCOffset int           `json:"-" bson:"utc_offset"`
	Owner     string        `json:"owner,omitempty" bson:"owner,omitempty"`
	Pin       string        `json:"pin,omitempty" bson:"pin,omitempty"`
	State     State         `json:"state" bson:"state"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// Overlaps uses closed intervals: touching boundaries overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return !b.StartTime.After(other.EndTime) && !b.EndTime.Before(other.StartTime)
}

// Contains reports whether at falls inside [StartTime, EndTime].
func (b *Booking) Contains(at time.Time) bool {
	return !at.Before(b.StartTime) && !at.After(b.EndTime)
}

// SetSchedule sets start and duration and recomputes the end time.
func (b *Booking) SetSchedule(start time.Time, duration time.Duration) {
	if duration <= 0 {
		duration = DefaultDuration
	}
	b.StartTime = start
	b.Duration = duration
	b.EndTime = start.Add(duration)
	_, b.UTCOffset = start.Zone()
}

// Promote turns a reservation into a session in place.
func (b *Booking) Promote() error {
	if b.State != StateReservation {
		return ErrInvalidTransition
	}
	b.State = StateSession
	return nil
}

// Localize restores the wall-clock zone a Booking was created with after a
// round trip through a store that keeps instants in UTC.
func (b *Booking) Localize() {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := b.StartTime.In(loc)
	if _, offset := start.Zone(); offset != b.UTCOffset {
		start = b.StartTime.In(time.FixedZone("", b.UTCOffset))
	}
	b.StartTime = start
	b.EndTime = start.Add(b.Duration)
}

// Clone returns a copy that shares nothing mutable with b.
func (b *Booking) Clone() *Booking {
	c := *b
	return &c
}

// ExternalView is the record handed to Jicofo and to HTTP callers.
type ExternalView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	Duration  int64  `json:"duration"`
	Owner     string `json:"owner,omitempty"`
	Pin       string `json:"pin,omitempty"`
	URL       string `json:"url,omitempty"`
}

// View renders the boundary record. publicURL is optional.
func (b *Booking) View(publicURL string) ExternalView {
	v := ExternalView{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: timeutil.FormatMillis(b.StartTime),
		Duration:  int64(b.Duration / time.Second),
		Owner:     b.Owner,
		Pin:       b.Pin,
	}
	if publicURL != "" {
		v.URL = publicURL + "/" + b.Name
	}
	return v
}

func Views(bookings []*Booking, publicURL string) []ExternalView {
	out := make([]ExternalView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.View(publicURL))
	}
	return out
}
