package model

import (
	"errors"
	"strconv"
	"time"
)

var ErrInvalidTransition = errors.New("only a reservation can become a session")

// ReservationRequest is the input for creating a reservation. Duration is
// already converted to a time.Duration by the caller; non-positive values
// fall back to DefaultDuration.
type ReservationRequest struct {
	ID        int64         `json:"id,omitempty" validate:"gte=0"`
	Name      string        `json:"name" validate:"required,max=255,room_name"`
	Owner     string        `json:"owner,omitempty" validate:"omitempty,max=320"`
	Pin       string        `json:"pin,omitempty" validate:"omitempty,max=64"`
	Timezone  string        `json:"timezone,omitempty" validate:"omitempty,timezone"`
	StartTime string        `json:"start_time" validate:"required"`
	Duration  time.Duration `json:"-"`
}

// AllocateRequest asks to start a session. An empty StartTime means now.
type AllocateRequest struct {
	Name      string `json:"name" validate:"required,max=255,room_name"`
	Owner     string `json:"owner,omitempty" validate:"omitempty,max=320"`
	StartTime string `json:"start_time,omitempty"`
}

// Key addresses a booking by id or by room name. ID wins when both are set.
type Key struct {
	ID   int64
	Name string
}

func ByID(id int64) Key      { return Key{ID: id} }
func ByName(name string) Key { return Key{Name: name} }

// ParseKey treats a positive numeric path segment as an id and anything else
// as a name.
func ParseKey(raw string) Key {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return ByID(id)
	}
	return ByName(raw)
}

func (k Key) String() string {
	if k.ID != 0 {
		return strconv.FormatInt(k.ID, 10)
	}
	return k.Name
}
