package errors

import (
	"errors"
	"fmt"
	"strings"

	"jire/pkg/model"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrConferenceExists = errors.New("conference already exists")

	ErrNotAllowed = errors.New("not allowed to start conference")

	ErrOverlappingReservation = errors.New("reservation overlaps an existing reservation")

	ErrValidation = errors.New("invalid booking request")

	// ErrDuplicateID is returned by stores when a generated id is taken.
	ErrDuplicateID = errors.New("booking id already in use")

	// ErrSessionExists is returned by stores when a second session for the
	// same room would be written.
	ErrSessionExists = errors.New("session already exists for room")

	ErrLockBusy = errors.New("room lock is held by another request")
)

const (
	ReasonOwnerMismatch = "owner mismatch"
	ReasonTooEarly      = "too early"
)

// Messages Jicofo shows to users.
const (
	MessageOwnerMismatch = "This user is not allowed to start this conference!"
	MessageTooEarly      = "The conference has not started yet."
)

// ConferenceExistsError carries the id of the running session.
type ConferenceExistsError struct {
	ID   int64
	Name string
}

func (e *ConferenceExistsError) Error() string {
	return fmt.Sprintf("conference %q already exists with id %d", e.Name, e.ID)
}

func (e *ConferenceExistsError) Is(target error) bool {
	return target == ErrConferenceExists
}

type NotAllowedError struct {
	Reason  string
	Message string
}

func NewOwnerMismatch() *NotAllowedError {
	return &NotAllowedError{Reason: ReasonOwnerMismatch, Message: MessageOwnerMismatch}
}

func NewTooEarly() *NotAllowedError {
	return &NotAllowedError{Reason: ReasonTooEarly, Message: MessageTooEarly}
}

func (e *NotAllowedError) Error() string {
	return "not allowed: " + e.Reason
}

func (e *NotAllowedError) Is(target error) bool {
	return target == ErrNotAllowed
}

// OverlapError lists every existing reservation the candidate collides with.
type OverlapError struct {
	Conflicts []*model.Booking
}

func (e *OverlapError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, fmt.Sprint(c.ID))
	}
	return fmt.Sprintf("reservation overlaps %d existing reservation(s): [%s]", len(e.Conflicts), strings.Join(ids, ", "))
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlappingReservation
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e.Fields), strings.Join(messages, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Details flattens field errors into a map for AppError details.
func (e *ValidationError) Details() map[string]any {
	details := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		details[f.Field] = f.Message
	}
	return details
}
