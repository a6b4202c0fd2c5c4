package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	"jire/internal/bookings/repository"
	mongoMigration "jire/internal/migrations/mongo"
	"jire/pkg/client"
	"jire/pkg/config"
	"jire/pkg/logger"
	"jire/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testDatabase = "jire_test"

// mongoConfig connects to TEST_MONGO_URI and applies the migrations to a
// clean database. Tests are skipped when the variable is unset.
func mongoConfig(t *testing.T) *config.Config {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mc.Ping(ctx, nil))

	db := mc.Database(testDatabase)
	require.NoError(t, db.Drop(ctx))
	require.NoError(t, mongoMigration.RunMigration(ctx, db, logger.Discard()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = mc.Disconnect(ctx)
	})

	return &config.Config{
		MongoDatabaseName: testDatabase,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		RoomLockTTL:       2 * time.Second,
		RoomLockWait:      200 * time.Millisecond,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mc},
	}
}

func newMongoBooking(id int64, name string, state model.State, start time.Time) *model.Booking {
	b := &model.Booking{ID: id, Name: name, Timezone: "Europe/Berlin", State: state}
	b.SetSchedule(start, 30*time.Minute)
	return b
}

func TestMongoBookingRepository_RoundTripKeepsOffset(t *testing.T) {
	repo := repository.NewMongoBookingRepository(mongoConfig(t))
	ctx := context.Background()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	start := time.Date(2024, 6, 1, 10, 0, 0, 123_000_000, berlin)
	require.NoError(t, repo.Create(ctx, newMongoBooking(1, "room_a", model.StateReservation, start)))

	got, err := repo.FindByID(ctx, 1, model.StateReservation)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T10:00:00.123+0200", got.View("").StartTime)
	assert.Equal(t, 30*time.Minute, got.Duration)

	_, err = repo.FindByID(ctx, 1, model.StateSession)
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
}

func TestMongoBookingRepository_Uniqueness(t *testing.T) {
	repo := repository.NewMongoBookingRepository(mongoConfig(t))
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	require.NoError(t, repo.Create(ctx, newMongoBooking(1, "room_a", model.StateSession, now)))
	assert.ErrorIs(t, repo.Create(ctx, newMongoBooking(1, "room_b", model.StateReservation, now)), bookingserrors.ErrDuplicateID)
	assert.ErrorIs(t, repo.Create(ctx, newMongoBooking(2, "room_a", model.StateSession, now)), bookingserrors.ErrSessionExists)
	assert.NoError(t, repo.Create(ctx, newMongoBooking(3, "room_a", model.StateReservation, now)))
}

func TestMongoBookingRepository_PromoteAndDelete(t *testing.T) {
	repo := repository.NewMongoBookingRepository(mongoConfig(t))
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	require.NoError(t, repo.Create(ctx, newMongoBooking(1, "room_a", model.StateReservation, now)))
	require.NoError(t, repo.Create(ctx, newMongoBooking(2, "room_a", model.StateReservation, now.Add(time.Hour))))

	promoted, err := repo.Promote(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateSession, promoted.State)

	_, err = repo.Promote(ctx, 2)
	assert.ErrorIs(t, err, bookingserrors.ErrSessionExists)

	n, err := repo.DeleteByName(ctx, "room_a", model.StateReservation)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := repo.Count(ctx, model.StateSession)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, repo.Delete(ctx, 2, model.StateReservation), bookingserrors.ErrNotFound)
	assert.NoError(t, repo.Ping(ctx))
}

func TestMongoRoomLocker(t *testing.T) {
	locker := repository.NewMongoRoomLocker(mongoConfig(t))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "room_a")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "room_a")
	assert.ErrorIs(t, err, bookingserrors.ErrLockBusy)

	other, err := locker.Lock(ctx, "room_b")
	require.NoError(t, err)
	other()

	unlock()
	again, err := locker.Lock(ctx, "room_a")
	require.NoError(t, err)
	again()
}

func TestMongoRoomLocker_Contention(t *testing.T) {
	cfg := mongoConfig(t)
	cfg.RoomLockWait = 5 * time.Second
	locker := repository.NewMongoRoomLocker(cfg)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "room_a")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			maxSeen = max(maxSeen, holders)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
