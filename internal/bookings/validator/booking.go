package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	bookingserrors "jire/internal/bookings/errors"
	"jire/pkg/logger"
	"jire/pkg/model"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("room_name", validateRoomName); err != nil {
		log.Fatal("Failed to register 'room_name' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateRoomName rejects names that cannot appear in a room URL path.
func validateRoomName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune("/?#\\", r) {
			return false
		}
	}
	return true
}

func (v *BookingValidator) ValidateReservation(req *model.ReservationRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateAllocate(req *model.AllocateRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) *bookingserrors.ValidationError {
	out := &bookingserrors.ValidationError{}

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "timezone":
			message = fmt.Sprintf("unknown time zone %s", err.Value())
		case "room_name":
			message = fmt.Sprintf("%s must be a non-blank room name without '/', '?', '#' or '\\'", err.Field())
		}

		out.Fields = append(out.Fields, bookingserrors.FieldError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return out
}
