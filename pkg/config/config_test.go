package config

import (
	"io"
	"strings"
	"testing"
	"time"

	"jire/pkg/logger"
)

func validConfig() *Config {
	return &Config{
		StoreBackend:           StoreMemory,
		MongoURI:               DefaultMongoURI,
		MongoDatabaseName:      DefaultMongoDatabaseName,
		MongoConnTimeout:       DefaultMongoConnTimeout,
		Port:                   DefaultPort,
		RateLimitRequests:      DefaultRateLimitRequests,
		RateLimitWindow:        DefaultRateLimitWindow,
		RequestTimeout:         DefaultRequestTimeout,
		IdempotencyTTL:         DefaultIdempotencyTTL,
		MaxRequestSize:         DefaultMaxRequestSize,
		ReadTimeout:            DefaultReadTimeout,
		WriteTimeout:           DefaultWriteTimeout,
		IdleTimeout:            DefaultIdleTimeout,
		ShutdownTimeout:        DefaultShutdownTimeout,
		DefaultTimezone:        DefaultTimezone,
		DefaultBookingDuration: DefaultBookingDuration,
		RoomLockTTL:            DefaultRoomLockTTL,
		RoomLockWait:           DefaultRoomLockWait,
		EventsTopic:            DefaultEventsTopic,
		Log:                    logger.New(logger.Config{Output: io.Discard}),
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default configuration rejected: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantMsg: "Port must be between 1 and 65535",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StoreBackend = "redis" },
			wantMsg: "StoreBackend must be one of",
		},
		{
			name: "mongo uri without scheme",
			mutate: func(c *Config) {
				c.StoreBackend = StoreMongo
				c.MongoURI = "localhost:27017"
			},
			wantMsg: "MongoURI must start with",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.DefaultTimezone = "Mars/Olympus" },
			wantMsg: "DefaultTimezone must be an IANA time zone",
		},
		{
			name:    "zero default duration",
			mutate:  func(c *Config) { c.DefaultBookingDuration = 0 },
			wantMsg: "DefaultBookingDuration must be positive",
		},
		{
			name:    "negative lock wait",
			mutate:  func(c *Config) { c.RoomLockWait = -time.Second },
			wantMsg: "RoomLockWait must be positive",
		},
		{
			name: "events without topic",
			mutate: func(c *Config) {
				c.EventsEnabled = true
				c.EventsTopic = ""
			},
			wantMsg: "EventsTopic cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_MemoryBackendIgnoresMongoSettings(t *testing.T) {
	cfg := validConfig()
	cfg.MongoURI = ""
	cfg.MongoDatabaseName = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory backend should not require Mongo settings: %v", err)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:s3cret@db:27017/jire")
	if got != "mongodb://***:***@db:27017/jire" {
		t.Errorf("redactMongoURI() = %q", got)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("JIRE_TEST_DURATION", "90s")
	t.Setenv("JIRE_TEST_BAD_DURATION", "soon")
	t.Setenv("JIRE_TEST_BOOL", "true")
	t.Setenv("JIRE_TEST_NUM", "12")

	if got := getEnvDuration("JIRE_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v", got)
	}
	if got := getEnvDuration("JIRE_TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() fallback = %v", got)
	}
	if got := getEnvBool("JIRE_TEST_BOOL", false); !got {
		t.Error("getEnvBool() = false")
	}
	if got := getEnvNum("JIRE_TEST_NUM", 1); got != 12 {
		t.Errorf("getEnvNum() = %d", got)
	}
	if got := getEnvStr("JIRE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnvStr() = %q", got)
	}
}

func TestNormalizePagination(t *testing.T) {
	if got := NormalizePaginationLimit(0); got != 10 {
		t.Errorf("NormalizePaginationLimit(0) = %d", got)
	}
	if got := NormalizePaginationLimit(5000); got != DefaultPaginationLimit {
		t.Errorf("NormalizePaginationLimit(5000) = %d", got)
	}
	if got := NormalizeOffset(-3); got != 0 {
		t.Errorf("NormalizeOffset(-3) = %d", got)
	}
}
