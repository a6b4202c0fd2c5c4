package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (l *LocalRoomLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

func TestLocalRoomLocker_MutualExclusion(t *testing.T) {
	l := NewLocalRoomLocker()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "room_a")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Zero(t, l.size())
}

func TestLocalRoomLocker_RoomsAreIndependent(t *testing.T) {
	l := NewLocalRoomLocker()

	unlockA, err := l.Lock(context.Background(), "room_a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "room_b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalRoomLocker_ContextCancelled(t *testing.T) {
	l := NewLocalRoomLocker()

	unlock, err := l.Lock(context.Background(), "room_a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "room_a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.size())

	unlock()
	assert.Zero(t, l.size())
}

func TestLocalRoomLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewLocalRoomLocker()

	unlock, err := l.Lock(context.Background(), "room_a")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "room_a")
	require.NoError(t, err)
	again()
	assert.Zero(t, l.size())
}
