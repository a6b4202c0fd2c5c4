package mongo

import (
	"testing"

	"jire/internal/bookings/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBookingsIndexes_SessionUniqueness(t *testing.T) {
	var found bool
	for _, idx := range BookingsIndexes() {
		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Name)
		if *idx.Options.Name != repository.SessionNameIndex {
			continue
		}
		found = true
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique)
		assert.Equal(t, bson.M{"state": "session"}, idx.Options.PartialFilterExpression)
		assert.Equal(t, bson.D{{Key: "name", Value: 1}}, idx.Keys)
	}
	assert.True(t, found, "session uniqueness index missing")
}

func TestRoomLocksIndexes_TTL(t *testing.T) {
	idx := RoomLocksIndexes()
	require.Len(t, idx, 1)
	require.NotNil(t, idx[0].Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *idx[0].Options.ExpireAfterSeconds)
}

func TestCollections(t *testing.T) {
	defs := Collections()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		assert.Contains(t, d.Validator, "$jsonSchema")
		assert.NotEmpty(t, d.Indexes)
	}
	assert.Equal(t, []string{repository.CollectionName, repository.LockCollectionName}, names)
}
