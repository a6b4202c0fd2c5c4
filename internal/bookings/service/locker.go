package service

import (
	"context"
	"sync"
)

// RoomLocker serializes check-then-write sequences per normalized room name.
// The returned func releases the lock.
type RoomLocker interface {
	Lock(ctx context.Context, room string) (func(), error)
}

type roomEntry struct {
	ch   chan struct{}
	refs int
}

// LocalRoomLocker is an in-process keyed mutex. Entries are reference counted
// and dropped once no request holds or waits for them.
type LocalRoomLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomEntry
}

func NewLocalRoomLocker() *LocalRoomLocker {
	return &LocalRoomLocker{rooms: make(map[string]*roomEntry)}
}

func (l *LocalRoomLocker) Lock(ctx context.Context, room string) (func(), error) {
	l.mu.Lock()
	e, ok := l.rooms[room]
	if !ok {
		e = &roomEntry{ch: make(chan struct{}, 1)}
		l.rooms[room] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(room, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(room, e)
		})
	}, nil
}

func (l *LocalRoomLocker) release(room string, e *roomEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.rooms, room)
	}
}
