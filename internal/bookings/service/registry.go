package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	"jire/internal/bookings/events"
	"jire/internal/bookings/repository"
	"jire/internal/bookings/validator"
	"jire/pkg/config"
	"jire/pkg/logger"
	"jire/pkg/model"
	"jire/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const maxIDAttempts = 5

// Registry is the allocation engine. It owns every booking's lifetime: it
// admits reservations that do not overlap, promotes a reservation into a
// session when its owner starts it on time, and starts walk-in sessions for
// rooms with no reservation.
//
// Get* return (nil, nil) when nothing matches. Delete* return false when
// nothing was removed.
type Registry interface {
	Allocate(ctx context.Context, req *model.AllocateRequest) (*model.Booking, error)
	AddReservation(ctx context.Context, req *model.ReservationRequest) (*model.Booking, error)
	GetConference(ctx context.Context, key model.Key) (*model.Booking, error)
	GetReservation(ctx context.Context, key model.Key) (*model.Booking, error)
	DeleteConference(ctx context.Context, key model.Key) (bool, error)
	DeleteReservation(ctx context.Context, key model.Key) (bool, error)
	ListConferences(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListReservations(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Ping(ctx context.Context) error
	Close() error
}

type registry struct {
	repo      repository.BookingRepository
	locker    RoomLocker
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	log       *logger.Logger
	clock     Clock
	ids       IDGenerator
}

type Option func(*registry)

func WithClock(c Clock) Option {
	return func(r *registry) { r.clock = c }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(r *registry) { r.ids = g }
}

func NewRegistry(
	repo repository.BookingRepository,
	locker RoomLocker,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
	opts ...Option,
) Registry {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	r := &registry{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		log:       cfg.Log,
		clock:     systemClock{},
		ids:       randomID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (s *registry) Allocate(ctx context.Context, req *model.AllocateRequest) (*model.Booking, error) {
	if err := s.validator.ValidateAllocate(req); err != nil {
		s.log.Warn("Rejected conference request", "room", req.Name, "error", err)
		return nil, err
	}
	name := sanitizer.RoomName(req.Name)
	log := s.log.WithRoom(name, 0)

	unlock, err := s.lock(ctx, log, name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var session *model.Booking
	origin := events.OriginWalkIn

	err = s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.FindByName(ctx, name, model.StateSession); err != nil {
			return fmt.Errorf("find sessions for %s: %w", name, err)
		} else if len(existing) > 0 {
			return &bookingserrors.ConferenceExistsError{ID: existing[0].ID, Name: name}
		}

		reservations, err := s.repo.FindByName(ctx, name, model.StateReservation)
		if err != nil {
			return fmt.Errorf("find reservations for %s: %w", name, err)
		}

		if len(reservations) == 0 {
			session, err = s.startWalkIn(ctx, req)
			return err
		}

		reservation, at, err := s.relevantReservation(reservations, req.StartTime)
		if err != nil {
			return err
		}
		if err := mayStart(reservation, req.Owner, at); err != nil {
			return err
		}

		session, err = s.repo.Promote(ctx, reservation.ID)
		if err != nil {
			return s.writeFailed(ctx, name, "promote reservation", err)
		}
		origin = events.OriginReservation
		return nil
	})
	if err != nil {
		s.logOutcome(log, "Conference not started", err)
		return nil, err
	}

	unlock()
	log.Info("Conference started", "id", session.ID, "origin", origin, "owner", session.Owner)
	s.publish(ctx, events.ConferenceStarted, session, origin)
	return session, nil
}

// relevantReservation parses the requested time in the room's time zone and
// picks the reservation it refers to. A naive timestamp is re-read in the
// chosen reservation's zone when the room's reservations disagree.
func (s *registry) relevantReservation(reservations []*model.Booking, raw string) (*model.Booking, time.Time, error) {
	at, err := s.resolveTime(raw, locationOf(reservations[0]))
	if err != nil {
		return nil, time.Time{}, err
	}
	chosen := selectReservation(reservations, at)
	if chosen.Timezone != reservations[0].Timezone {
		if at, err = s.resolveTime(raw, locationOf(chosen)); err != nil {
			return nil, time.Time{}, err
		}
	}
	return chosen, at, nil
}

func locationOf(b *model.Booking) *time.Location {
	if loc, err := time.LoadLocation(b.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func (s *registry) startWalkIn(ctx context.Context, req *model.AllocateRequest) (*model.Booking, error) {
	session, err := s.construct(&model.ReservationRequest{
		Name:      req.Name,
		Owner:     req.Owner,
		StartTime: req.StartTime,
	}, model.StateSession)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *registry) AddReservation(ctx context.Context, req *model.ReservationRequest) (*model.Booking, error) {
	if err := s.validator.ValidateReservation(req); err != nil {
		s.log.Warn("Rejected reservation request", "room", req.Name, "error", err)
		return nil, err
	}
	candidate, err := s.construct(req, model.StateReservation)
	if err != nil {
		s.log.Warn("Rejected reservation request", "room", req.Name, "error", err)
		return nil, err
	}
	log := s.log.WithRoom(candidate.Name, 0)

	unlock, err := s.lock(ctx, log, candidate.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByName(ctx, candidate.Name, model.StateReservation)
		if err != nil {
			return fmt.Errorf("find reservations for %s: %w", candidate.Name, err)
		}
		if conflicts := overlapping(candidate, existing); len(conflicts) > 0 {
			return &bookingserrors.OverlapError{Conflicts: conflicts}
		}
		return s.create(ctx, candidate)
	})
	if err != nil {
		s.logOutcome(log, "Reservation not created", err)
		return nil, err
	}

	unlock()
	log.Info("Reservation created",
		"id", candidate.ID,
		"start_time", candidate.StartTime,
		"end_time", candidate.EndTime,
		"owner", candidate.Owner,
	)
	s.publish(ctx, events.ReservationCreated, candidate, "")
	return candidate, nil
}

// lock takes the room lock. The returned release may be called more than
// once so that callers can drop the lock before publishing.
func (s *registry) lock(ctx context.Context, log *logger.Logger, room string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, room)
	if err != nil {
		return nil, s.lockFailed(log, room, err)
	}
	return sync.OnceFunc(unlock), nil
}

// create stores b, drawing a fresh id when none was requested. A
// caller-chosen id that is taken is a validation failure.
func (s *registry) create(ctx context.Context, b *model.Booking) error {
	generated := b.ID == 0
	for attempt := 1; ; attempt++ {
		if generated {
			b.ID = s.ids()
		}
		err := s.repo.Create(ctx, b)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bookingserrors.ErrDuplicateID) && generated && attempt < maxIDAttempts:
			continue
		case errors.Is(err, bookingserrors.ErrDuplicateID) && !generated:
			return bookingserrors.NewValidationError("id", fmt.Sprintf("id %d is already in use", b.ID))
		default:
			return s.writeFailed(ctx, b.Name, "create booking", err)
		}
	}
}

// writeFailed maps a session uniqueness violation from the store to
// ConferenceExists. It only fires when another instance bypassed the room
// lock, for example after the lock TTL expired mid-request.
func (s *registry) writeFailed(ctx context.Context, name, op string, err error) error {
	if !errors.Is(err, bookingserrors.ErrSessionExists) {
		return fmt.Errorf("%s for %s: %w", op, name, err)
	}
	sessions, findErr := s.repo.FindByName(ctx, name, model.StateSession)
	if findErr != nil || len(sessions) == 0 {
		return fmt.Errorf("%s for %s: %w", op, name, err)
	}
	return &bookingserrors.ConferenceExistsError{ID: sessions[0].ID, Name: name}
}

func (s *registry) GetConference(ctx context.Context, key model.Key) (*model.Booking, error) {
	if key.ID != 0 {
		return s.findByID(ctx, key.ID, model.StateSession)
	}
	sessions, err := s.repo.FindByName(ctx, sanitizer.RoomName(key.Name), model.StateSession)
	if err != nil {
		return nil, fmt.Errorf("find conference %s: %w", key, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

func (s *registry) GetReservation(ctx context.Context, key model.Key) (*model.Booking, error) {
	if key.ID != 0 {
		return s.findByID(ctx, key.ID, model.StateReservation)
	}
	reservations, err := s.repo.FindByName(ctx, sanitizer.RoomName(key.Name), model.StateReservation)
	if err != nil {
		return nil, fmt.Errorf("find reservation %s: %w", key, err)
	}
	return selectReservation(reservations, s.clock.Now()), nil
}

func (s *registry) findByID(ctx context.Context, id int64, state model.State) (*model.Booking, error) {
	b, err := s.repo.FindByID(ctx, id, state)
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", state, id, err)
	}
	return b, nil
}

func (s *registry) DeleteConference(ctx context.Context, key model.Key) (bool, error) {
	session, err := s.GetConference(ctx, key)
	if err != nil || session == nil {
		s.logDeleteMiss("Conference not deleted", key, err)
		return false, err
	}

	if err := s.repo.Delete(ctx, session.ID, model.StateSession); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false, nil
		}
		s.log.WithRoom(session.Name, session.ID).Error("Failed to delete conference", "error", err)
		return false, fmt.Errorf("delete conference %d: %w", session.ID, err)
	}

	s.log.WithRoom(session.Name, session.ID).Info("Conference ended")
	s.publish(ctx, events.ConferenceEnded, session, "")
	return true, nil
}

// DeleteReservation removes one reservation by id, or every reservation of a
// room by name.
func (s *registry) DeleteReservation(ctx context.Context, key model.Key) (bool, error) {
	var targets []*model.Booking
	if key.ID != 0 {
		b, err := s.findByID(ctx, key.ID, model.StateReservation)
		if err != nil || b == nil {
			s.logDeleteMiss("Reservation not deleted", key, err)
			return false, err
		}
		if err := s.repo.Delete(ctx, b.ID, model.StateReservation); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("delete reservation %d: %w", b.ID, err)
		}
		targets = append(targets, b)
	} else {
		name := sanitizer.RoomName(key.Name)
		found, err := s.repo.FindByName(ctx, name, model.StateReservation)
		if err != nil {
			return false, fmt.Errorf("find reservations for %s: %w", name, err)
		}
		n, err := s.repo.DeleteByName(ctx, name, model.StateReservation)
		if err != nil {
			return false, fmt.Errorf("delete reservations for %s: %w", name, err)
		}
		if n == 0 {
			s.logDeleteMiss("Reservation not deleted", key, nil)
			return false, nil
		}
		targets = found
	}

	for _, b := range targets {
		s.log.WithRoom(b.Name, b.ID).Info("Reservation deleted")
		s.publish(ctx, events.ReservationDeleted, b, "")
	}
	return true, nil
}

func (s *registry) ListConferences(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.list(ctx, model.StateSession, limit, offset)
}

func (s *registry) ListReservations(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.list(ctx, model.StateReservation, limit, offset)
}

func (s *registry) list(ctx context.Context, state model.State, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		bookings []*model.Booking
		count    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if count, err = s.repo.Count(gctx, state); err != nil {
			return fmt.Errorf("count %s: %w", state, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if bookings, err = s.repo.FindAll(gctx, state, limit, offset); err != nil {
			return fmt.Errorf("list %s: %w", state, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to list bookings", "state", state, "error", err)
		return nil, 0, err
	}
	return bookings, count, nil
}

func (s *registry) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close flushes the event publisher. The store connection is owned by the
// caller.
func (s *registry) Close() error {
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close event publisher: %w", err)
	}
	s.log.Info("Registry closed")
	return nil
}

// publish runs after commit. Failures are logged only: the outcome stands.
func (s *registry) publish(ctx context.Context, t events.Type, b *model.Booking, origin string) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		Booking:    b,
		Origin:     origin,
		OccurredAt: s.clock.Now(),
	})
	if err != nil {
		s.log.WithRoom(b.Name, b.ID).Error("Failed to publish booking event", "event_type", t, "error", err)
	}
}

func (s *registry) lockFailed(log *logger.Logger, name string, err error) error {
	if errors.Is(err, bookingserrors.ErrLockBusy) {
		log.Warn("Room is busy", "error", err)
		return err
	}
	log.Error("Failed to lock room", "error", err)
	return fmt.Errorf("lock room %s: %w", name, err)
}

func (s *registry) logOutcome(log *logger.Logger, msg string, err error) {
	switch {
	case errors.Is(err, bookingserrors.ErrConferenceExists):
		log.Info(msg, "reason", "conference exists", "error", err)
	case errors.Is(err, bookingserrors.ErrNotAllowed):
		log.Debug(msg, "reason", "not allowed", "error", err)
	case errors.Is(err, bookingserrors.ErrValidation):
		log.Warn(msg, "reason", "validation", "error", err)
	case errors.Is(err, bookingserrors.ErrOverlappingReservation):
		log.Info(msg, "reason", "overlap", "error", err)
	default:
		log.Error(msg, "error", err)
	}
}

func (s *registry) logDeleteMiss(msg string, key model.Key, err error) {
	if err != nil {
		s.log.Error(msg, "key", key.String(), "error", err)
		return
	}
	s.log.Info(msg, "key", key.String(), "reason", "not found")
}
