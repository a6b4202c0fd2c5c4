package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jire/internal/bookings/repository"
	"jire/internal/migrations/mongo/validators"
	"jire/pkg/logger"
	"jire/pkg/model"
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// BookingsIndexes back the per-room lookups. The partial unique index on name
// is what keeps a room down to one running session when the room lock is
// bypassed.
func BookingsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName(repository.SessionNameIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"state": string(model.StateSession)}),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: 1},
				{Key: "state", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName(repository.RoomScheduleIndex),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "start_time", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("state_start"),
		},
	}
}

// RoomLocksIndexes let the server reap lock documents whose holder died.
func RoomLocksIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("lock_expiry").SetExpireAfterSeconds(0),
		},
	}
}

func Collections() []CollectionDef {
	return []CollectionDef{
		{
			Name:      repository.CollectionName,
			Indexes:   BookingsIndexes(),
			Validator: validators.BookingValidator,
		},
		{
			Name:      repository.LockCollectionName,
			Indexes:   RoomLocksIndexes(),
			Validator: validators.RoomLockValidator,
		},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
