package config

import "time"

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

const (
	DefaultStoreBackend = StoreMemory

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "jire"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultTimezone        = "UTC"
	DefaultBookingDuration = 6 * time.Hour

	DefaultRoomLockTTL  = 10 * time.Second
	DefaultRoomLockWait = 5 * time.Second

	DefaultEventsEnabled = false
	DefaultEventsTopic   = "jire.bookings"

	DefaultPaginationLimit = 100
)
