package errors

import (
	"errors"
	"fmt"
	"testing"

	"jire/pkg/model"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"conference exists", &ConferenceExistsError{ID: 1, Name: "room_a"}, ErrConferenceExists},
		{"owner mismatch", NewOwnerMismatch(), ErrNotAllowed},
		{"too early", NewTooEarly(), ErrNotAllowed},
		{"overlap", &OverlapError{Conflicts: []*model.Booking{{ID: 9}}}, ErrOverlappingReservation},
		{"validation", NewValidationError("name", "name is required"), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("registry: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotErrorIs(t, wrapped, ErrNotFound)
		})
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("allocate: %w", &ConferenceExistsError{ID: 42, Name: "room_a"})

	var exists *ConferenceExistsError
	if assert.True(t, errors.As(err, &exists)) {
		assert.Equal(t, int64(42), exists.ID)
	}

	var notAllowed *NotAllowedError
	assert.True(t, errors.As(fmt.Errorf("x: %w", NewTooEarly()), &notAllowed))
	assert.Equal(t, ReasonTooEarly, notAllowed.Reason)
	assert.Equal(t, MessageTooEarly, notAllowed.Message)
}

func TestOverlapError_Message(t *testing.T) {
	err := &OverlapError{Conflicts: []*model.Booking{{ID: 3}, {ID: 4}}}
	assert.Equal(t, "reservation overlaps 2 existing reservation(s): [3, 4]", err.Error())
}

func TestValidationError_Details(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "timezone", Message: "unknown time zone Mars/Base"},
	}}
	assert.Equal(t, map[string]any{
		"name":     "name is required",
		"timezone": "unknown time zone Mars/Base",
	}, err.Details())
}
