package service

import (
	"strings"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	"jire/pkg/model"
	"jire/pkg/sanitizer"
	"jire/pkg/timeutil"
)

// construct builds a Booking from a request: it normalizes the name,
// resolves the time zone, localizes a naive start time and clamps the
// duration. An empty start time means now.
func (s *registry) construct(req *model.ReservationRequest, state model.State) (*model.Booking, error) {
	name := sanitizer.RoomName(req.Name)
	if strings.TrimSpace(name) == "" {
		return nil, bookingserrors.NewValidationError("name", "name is required")
	}

	tz := req.Timezone
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, bookingserrors.NewValidationError("timezone", "unknown time zone "+tz)
	}

	start, err := s.resolveTime(req.StartTime, loc)
	if err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration <= 0 {
		duration = s.cfg.DefaultBookingDuration
	}

	b := &model.Booking{
		ID:       req.ID,
		Name:     name,
		Timezone: tz,
		Owner:    req.Owner,
		Pin:      req.Pin,
		State:    state,
	}
	b.SetSchedule(start, duration)
	return b, nil
}

// resolveTime parses raw in loc, or returns now in loc when raw is empty.
// Instants are kept at millisecond precision, the precision of the boundary
// record and of the durable store.
func (s *registry) resolveTime(raw string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.clock.Now().In(loc).Truncate(time.Millisecond), nil
	}
	t, err := timeutil.Parse(raw, loc)
	if err != nil {
		return time.Time{}, bookingserrors.NewValidationError("start_time", "start_time is not a valid ISO-8601 timestamp: "+raw)
	}
	return t.Truncate(time.Millisecond), nil
}

// mayStart is the admission check for starting b. Owners are compared byte
// for byte; an absent owner only matches an absent requester.
func mayStart(b *model.Booking, requester string, at time.Time) error {
	if requester != b.Owner {
		return bookingserrors.NewOwnerMismatch()
	}
	if at.Before(b.StartTime) {
		return bookingserrors.NewTooEarly()
	}
	return nil
}

// selectReservation picks the reservation relevant at at from a list sorted
// by start: the one whose window contains at, else the next upcoming one,
// else the most recent past one.
func selectReservation(reservations []*model.Booking, at time.Time) *model.Booking {
	if len(reservations) == 0 {
		return nil
	}
	for _, r := range reservations {
		if r.Contains(at) {
			return r
		}
	}
	for _, r := range reservations {
		if r.StartTime.After(at) {
			return r
		}
	}
	return reservations[len(reservations)-1]
}

// overlapping returns every existing booking that overlaps candidate.
func overlapping(candidate *model.Booking, existing []*model.Booking) []*model.Booking {
	var conflicts []*model.Booking
	for _, e := range existing {
		if candidate.Overlaps(e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}
