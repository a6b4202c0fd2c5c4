package service

import (
	"math/rand/v2"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// IDGenerator returns a candidate booking id. Collisions are retried.
type IDGenerator func() int64

// maxGeneratedID keeps generated ids within ten digits.
const maxGeneratedID = 10_000_000_000

func randomID() int64 {
	return rand.Int64N(maxGeneratedID-1) + 1
}
