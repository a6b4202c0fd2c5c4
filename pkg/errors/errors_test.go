package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFoundWithID("Reservation", "7"),
			expected: "NOT_FOUND: Reservation not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("store failure", errors.New("connection refused")),
			expected: "INTERNAL_ERROR: store failure (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found with id", NotFoundWithID("Conference", "42"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad limit"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("exists"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"room busy", RoomBusy("room_a", nil), CodeRoomBusy, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := Conflict("conference exists").WithDetail("conflict_id", int64(7))
	assert.Equal(t, int64(7), err.Details["conflict_id"])

	err = RoomBusy("room_a", nil).WithDetail("wait", "5s")
	assert.Equal(t, map[string]any{"room": "room_a", "wait": "5s"}, err.Details)
}

func TestAsAppError_Wrapped(t *testing.T) {
	appErr := Conflict("conference exists")
	wrapped := fmt.Errorf("allocate: %w", appErr)

	assert.True(t, IsAppError(wrapped))
	assert.Same(t, appErr, AsAppError(wrapped))

	plain := errors.New("plain")
	assert.False(t, IsAppError(plain))
	got := AsAppError(plain)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)
}
