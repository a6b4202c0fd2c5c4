package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	mongotx "jire/pkg/db/mongo"
	"jire/pkg/model"
)

// memoryBookingRepository keeps bookings in process memory. Every call is
// atomic on its own; callers serialize multi-step sequences per room.
type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[int64]*model.Booking
	tx       mongotx.NoopTransactionManager
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[int64]*model.Booking),
	}
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return bookingserrors.ErrDuplicateID
	}
	if booking.State == model.StateSession && r.sessionExistsLocked(booking.Name) {
		return bookingserrors.ErrSessionExists
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	r.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *memoryBookingRepository) sessionExistsLocked(name string) bool {
	for _, b := range r.bookings {
		if b.State == model.StateSession && b.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id int64, state model.State) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok || b.State != state {
		return nil, bookingserrors.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memoryBookingRepository) FindByName(_ context.Context, name string, state model.State) ([]*model.Booking, error) {
	return r.collect(func(b *model.Booking) bool {
		return b.State == state && b.Name == name
	}), nil
}

func (r *memoryBookingRepository) FindAll(_ context.Context, state model.State, limit int, offset int64) ([]*model.Booking, error) {
	all := r.collect(func(b *model.Booking) bool { return b.State == state })
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// collect returns copies of matching bookings ordered by start time, then id.
func (r *memoryBookingRepository) collect(match func(*model.Booking) bool) []*model.Booking {
	r.mu.RLock()
	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.Booking) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (r *memoryBookingRepository) Count(_ context.Context, state model.State) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, b := range r.bookings {
		if b.State == state {
			n++
		}
	}
	return n, nil
}

func (r *memoryBookingRepository) Promote(_ context.Context, id int64) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.State != model.StateReservation {
		return nil, bookingserrors.ErrNotFound
	}
	if r.sessionExistsLocked(b.Name) {
		return nil, bookingserrors.ErrSessionExists
	}
	if err := b.Promote(); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

func (r *memoryBookingRepository) Delete(_ context.Context, id int64, state model.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.State != state {
		return bookingserrors.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memoryBookingRepository) DeleteByName(_ context.Context, name string, state model.State) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, b := range r.bookings {
		if b.State == state && b.Name == name {
			delete(r.bookings, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.tx.ExecuteTransaction(ctx, fn)
}

func (r *memoryBookingRepository) Ping(context.Context) error {
	return nil
}
