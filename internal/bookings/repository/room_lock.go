package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	"jire/pkg/config"
	"jire/pkg/logger"
	"jire/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "RoomLocks"

	lockPollInterval = 25 * time.Millisecond
)

// MongoRoomLocker serializes per-room check-then-write sequences across
// service instances with advisory lock documents keyed by room name. Each
// document expires after the configured TTL so a crashed holder cannot block
// a room for good.
type MongoRoomLocker struct {
	collection *mongo.Collection
	ttl        time.Duration
	wait       time.Duration
	log        *logger.Logger
}

func NewMongoRoomLocker(cfg *config.Config) *MongoRoomLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoRoomLocker{
		collection: db.Collection(LockCollectionName),
		ttl:        cfg.RoomLockTTL,
		wait:       cfg.RoomLockWait,
		log:        cfg.Log,
	}
}

// Lock blocks until the room lock is taken, the wait elapses (ErrLockBusy)
// or ctx ends.
func (l *MongoRoomLocker) Lock(ctx context.Context, room string) (func(), error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		acquired, err := l.tryAcquire(ctx, room, owner)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() { l.release(room, owner) }, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrLockBusy, room)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *MongoRoomLocker) tryAcquire(ctx context.Context, room, owner string) (bool, error) {
	now := time.Now().UTC()
	lock := model.RoomLock{
		ID:        room,
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to acquire room lock: %w", err)
	}

	// The TTL monitor only runs once a minute; take over stale locks directly.
	result, err := l.collection.DeleteOne(ctx, bson.M{"_id": room, "expires_at": bson.M{"$lt": now}})
	if err != nil {
		return false, fmt.Errorf("failed to clear expired room lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return false, nil
	}

	if _, err := l.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire room lock: %w", err)
	}
	return true, nil
}

// release runs on a fresh context: the request context may already be done.
func (l *MongoRoomLocker) release(room, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": room, "owner": owner}); err != nil {
		l.log.Warn("Failed to release room lock, it will expire", "room", room, "error", err)
	}
}
