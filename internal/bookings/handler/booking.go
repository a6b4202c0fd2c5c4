package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	bookingserrors "jire/internal/bookings/errors"
	"jire/internal/bookings/service"
	apperrors "jire/pkg/errors"
	httputil "jire/pkg/http"
	"jire/pkg/logger"
	"jire/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ConflictResponse struct {
	ConflictID int64 `json:"conflict_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// allocatePayload accepts both the form field names sent by Jicofo and the
// JSON names used by other callers.
type allocatePayload struct {
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	MailOwner string `json:"mail_owner"`
	StartTime string `json:"start_time"`
}

type reservationPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	MailOwner string `json:"mail_owner"`
	Pin       string `json:"pin"`
	Timezone  string `json:"timezone"`
	StartTime string `json:"start_time"`
	Duration  int64  `json:"duration"` // minutes
}

// maxDurationMinutes is the longest duration that fits a time.Duration.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

type BookingHandler struct {
	registry  service.Registry
	publicURL string
	log       *logger.Logger
}

func NewBookingHandler(registry service.Registry, publicURL string, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		registry:  registry,
		publicURL: publicURL,
		log:       log,
	}
}

func (h *BookingHandler) Allocate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := decodeAllocate(r)
	if err != nil {
		h.writeError(w, "Allocate", apperrors.InvalidInput("Invalid request body"))
		return
	}

	session, err := h.registry.Allocate(r.Context(), &model.AllocateRequest{
		Name:      payload.Name,
		Owner:     firstNonEmpty(payload.MailOwner, payload.Owner),
		StartTime: payload.StartTime,
	})
	if err != nil {
		h.writeFailure(w, "Allocate", payload.Name, err)
		return
	}

	h.writeJSON(w, "Allocate", http.StatusOK, session.View(h.publicURL))
}

func decodeAllocate(r *http.Request) (*allocatePayload, error) {
	var p allocatePayload
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	p.Name = r.PostFormValue("name")
	p.Owner = r.PostFormValue("owner")
	p.MailOwner = r.PostFormValue("mail_owner")
	p.StartTime = r.PostFormValue("start_time")
	return &p, nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (h *BookingHandler) AddReservation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload reservationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, "AddReservation", apperrors.InvalidInput("Invalid request body"))
		return
	}
	if payload.Duration < 0 {
		h.writeError(w, "AddReservation", apperrors.Validation("duration must not be negative", map[string]any{
			"duration": "must be a whole number of minutes",
		}))
		return
	}
	if payload.Duration > maxDurationMinutes {
		h.writeError(w, "AddReservation", apperrors.Validation("duration is too large", map[string]any{
			"duration": "must be at most " + strconv.FormatInt(maxDurationMinutes, 10) + " minutes",
		}))
		return
	}

	reservation, err := h.registry.AddReservation(r.Context(), &model.ReservationRequest{
		ID:        payload.ID,
		Name:      payload.Name,
		Owner:     firstNonEmpty(payload.MailOwner, payload.Owner),
		Pin:       payload.Pin,
		Timezone:  payload.Timezone,
		StartTime: payload.StartTime,
		Duration:  time.Duration(payload.Duration) * time.Minute,
	})
	if err != nil {
		h.writeFailure(w, "AddReservation", payload.Name, err)
		return
	}

	h.writeJSON(w, "AddReservation", http.StatusCreated, reservation.View(h.publicURL))
}

func (h *BookingHandler) GetConference(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.get(w, r, ps, "GetConference", "conference", h.registry.GetConference)
}

func (h *BookingHandler) GetReservation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.get(w, r, ps, "GetReservation", "reservation", h.registry.GetReservation)
}

func (h *BookingHandler) get(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op, resource string,
	find func(context.Context, model.Key) (*model.Booking, error),
) {
	raw := ps.ByName("key")
	key, err := keyFrom(r, raw)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	b, err := find(r.Context(), key)
	if err != nil {
		h.writeFailure(w, op, raw, err)
		return
	}
	if b == nil {
		h.writeError(w, op, apperrors.NotFoundWithID(resource, raw))
		return
	}
	h.writeJSON(w, op, http.StatusOK, b.View(h.publicURL))
}

func (h *BookingHandler) DeleteConference(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.delete(w, r, ps, "DeleteConference", h.registry.DeleteConference)
}

func (h *BookingHandler) DeleteReservation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.delete(w, r, ps, "DeleteReservation", h.registry.DeleteReservation)
}

func (h *BookingHandler) delete(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op string,
	remove func(context.Context, model.Key) (bool, error),
) {
	raw := ps.ByName("key")
	key, err := keyFrom(r, raw)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	ok, err := remove(r.Context(), key)
	if err != nil {
		h.writeFailure(w, op, raw, err)
		return
	}
	if !ok {
		h.writeJSON(w, op, http.StatusForbidden, DeleteResponse{
			Status:  "Failed",
			Message: "Could not remove " + raw + " from database.",
		})
		return
	}
	h.writeJSON(w, op, http.StatusOK, DeleteResponse{Status: "OK"})
}

// keyFrom reads the path key. A numeric key is an id unless ?by=name says
// otherwise, so rooms named with digits only stay reachable.
func keyFrom(r *http.Request, raw string) (model.Key, error) {
	switch r.URL.Query().Get("by") {
	case "":
		return model.ParseKey(raw), nil
	case "name":
		return model.ByName(raw), nil
	case "id":
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return model.Key{}, apperrors.InvalidInput("key must be a positive id when by=id")
		}
		return model.ByID(id), nil
	default:
		return model.Key{}, apperrors.InvalidInput("by must be one of id, name")
	}
}

func (h *BookingHandler) ListConferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ListConferences", h.registry.ListConferences)
}

func (h *BookingHandler) ListReservations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ListReservations", h.registry.ListReservations)
}

func (h *BookingHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fetch func(context.Context, int, int64) ([]*model.Booking, int64, error),
) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, op, err)
		return
	}

	bookings, total, err := fetch(r.Context(), limit, offset)
	if err != nil {
		h.writeFailure(w, op, "", err)
		return
	}

	if err := httputil.WritePaginated(w, model.Views(bookings, h.publicURL), total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", op, "operation", "WritePaginated", "error", err)
	}
}

// writeFailure renders registry outcomes. ConferenceExists and NotAllowed
// keep the bodies Jicofo expects; everything else is an AppError.
func (h *BookingHandler) writeFailure(w http.ResponseWriter, op, room string, err error) {
	var (
		exists     *bookingserrors.ConferenceExistsError
		notAllowed *bookingserrors.NotAllowedError
		overlap    *bookingserrors.OverlapError
		validation *bookingserrors.ValidationError
	)

	switch {
	case errors.As(err, &exists):
		h.writeJSON(w, op, http.StatusConflict, ConflictResponse{ConflictID: exists.ID})
	case errors.As(err, &notAllowed):
		h.writeJSON(w, op, http.StatusForbidden, MessageResponse{Message: notAllowed.Message})
	case errors.As(err, &overlap):
		h.writeError(w, op, apperrors.Conflict("Reservation overlaps existing bookings").
			WithDetail("conflicts", model.Views(overlap.Conflicts, h.publicURL)))
	case errors.As(err, &validation):
		h.writeError(w, op, apperrors.Validation("Invalid booking request", validation.Details()))
	case errors.Is(err, bookingserrors.ErrLockBusy):
		h.writeError(w, op, apperrors.RoomBusy(room, err))
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, op, apperrors.Timeout("Request timed out"))
	default:
		h.log.Error("Booking operation failed", "handler", op, "error", err)
		h.writeError(w, op, apperrors.Internal("An unexpected error occurred", err))
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeJSON(w http.ResponseWriter, op string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", op, "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/conference", h.Allocate)
	router.GET("/conference/:key", h.GetConference)
	router.DELETE("/conference/:key", h.DeleteConference)
	router.GET("/conferences", h.ListConferences)

	router.POST("/reservation", h.AddReservation)
	router.GET("/reservation/:key", h.GetReservation)
	router.DELETE("/reservation/:key", h.DeleteReservation)
	router.GET("/reservations", h.ListReservations)
}
