package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/middleware"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

const dateLayout = "2006-01-02"

// formatValidationErrors converts validator errors into response details.
func formatValidationErrors(errs validator.ValidationErrors) []dtos.ValidationErrorDetail {
	var details []dtos.ValidationErrorDetail
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "min":
			message = fmt.Sprintf("Field '%s' must be at least %s in length", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s in length", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("Field '%s' must match the layout %s", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		details = append(details, dtos.ValidationErrorDetail{
			Field:   err.Field(),
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

// decodeBody decodes and validates the JSON body into dst, writing the
// error response itself when it returns false. An empty body is accepted
// for requests whose fields are all optional.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
			return false
		}
	}
	if err := v.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", formatValidationErrors(validationErrs), err)
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		}
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No actor in context", nil)
	}
	return actor, ok
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    fmt.Sprintf("Invalid %s", name),
			Err:        err,
		}
	}
	return id, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    fmt.Sprintf("Invalid %s", name),
			Err:        err,
		}
	}
	return &id, nil
}

// parseDateTime reads a validated "2006-01-02" date and "15:04" start.
func parseDateTime(date, start string) (time.Time, models.TimeOfDay, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("date %q: %w", date, utils.ErrInvalidPayload)
	}
	t, err := models.ParseTimeOfDay(start)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("start time %q: %w", start, utils.ErrInvalidPayload)
	}
	return d, t, nil
}

// ownOrGiven resolves a request field that defaults to the caller's own id.
// Admins must name the subject explicitly.
func ownOrGiven(actor models.Actor, given *uuid.UUID, field string) (uuid.UUID, error) {
	if given != nil {
		return *given, nil
	}
	if actor.IsAdmin() {
		return uuid.Nil, fmt.Errorf("%s is required for admins: %w", field, utils.ErrInvalidPayload)
	}
	return actor.ID, nil
}
