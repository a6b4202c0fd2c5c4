package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	kafka_middleware "jire/pkg/kafka/middleware"
	"jire/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthRouter(store pinger, metrics *kafka_middleware.Metrics) *httprouter.Router {
	router := httprouter.New()
	NewHealthHandler(store, metrics, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestHealth(t *testing.T) {
	router := healthRouter(pingFunc(func(context.Context) error { return nil }), &kafka_middleware.Metrics{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Events)
	assert.Zero(t, resp.Events.Published)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantState  string
	}{
		{"store reachable", nil, http.StatusOK, "ready"},
		{"store down", errors.New("no primary"), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := healthRouter(pingFunc(func(context.Context) error { return tt.pingErr }), nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode[HealthResponse](t, w)
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Nil(t, resp.Events)
		})
	}
}
