package controllers

import (
	"errors"
	"net/http"

	"github.com/poofware/booking-service/internal/utils"
)

// toAppError maps engine errors onto HTTP responses. Anything unknown is a
// 500 with the error kept for the log only.
func toAppError(err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var slotErr *utils.SlotUnavailableError
	if errors.As(err, &slotErr) {
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeSlotUnavailable,
			Message:    "That time is no longer available; please pick another slot",
			Details: map[string]any{
				"agent_id":   slotErr.AgentID,
				"date":       slotErr.Date.Format("2006-01-02"),
				"start_time": slotErr.StartTime,
				"reason":     slotErr.Reason,
			},
			Err: err,
		}
	}

	var conflictErr *utils.AgentConflictError
	if errors.As(err, &conflictErr) {
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeAgentConflict,
			Message:    "The new agent already has an appointment at that time",
			Details: map[string]any{
				"agent_id":                   conflictErr.AgentID,
				"conflicting_appointment_id": conflictErr.ConflictingAppointmentID,
			},
			Err: err,
		}
	}

	var transErr *utils.InvalidTransitionError
	if errors.As(err, &transErr) {
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeInvalidTransition,
			Message:    "The appointment cannot do that from its current status",
			Details: map[string]any{
				"appointment_id": transErr.AppointmentID,
				"status":         transErr.From,
				"action":         transErr.Action,
			},
			Err: err,
		}
	}

	var rvErr *utils.RowVersionConflictError
	if errors.As(err, &rvErr) {
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeRowVersionConflict,
			Message:    "The record changed while saving; please retry",
			Details:    rvErr.Current,
			Err:        err,
		}
	}

	switch {
	case errors.Is(err, utils.ErrPropertyAlreadySold):
		return &utils.AppError{StatusCode: http.StatusConflict, Code: utils.ErrCodePropertyAlreadySold, Message: "The property has already been sold or rented", Err: err}
	case errors.Is(err, utils.ErrNoReplacementAgent):
		return &utils.AppError{StatusCode: http.StatusConflict, Code: utils.ErrCodeNoReplacementAgent, Message: "No other agent is free at that time", Err: err}
	case errors.Is(err, utils.ErrRowVersionConflict):
		return &utils.AppError{StatusCode: http.StatusConflict, Code: utils.ErrCodeRowVersionConflict, Message: "The record changed while saving; please retry", Err: err}
	case errors.Is(err, utils.ErrNotFound):
		return &utils.AppError{StatusCode: http.StatusNotFound, Code: utils.ErrCodeNotFound, Message: "Not found", Err: err}
	case errors.Is(err, utils.ErrForbidden):
		return &utils.AppError{StatusCode: http.StatusForbidden, Code: utils.ErrCodeForbidden, Message: "Not allowed", Err: err}
	case errors.Is(err, utils.ErrMessagingNotAllowed):
		return &utils.AppError{StatusCode: http.StatusForbidden, Code: utils.ErrCodeMessagingNotAllowed, Message: "Messaging opens once the viewing is accepted and both phones are verified", Err: err}
	case errors.Is(err, utils.ErrInvalidPayload):
		return &utils.AppError{StatusCode: http.StatusBadRequest, Code: utils.ErrCodeInvalidPayload, Message: err.Error(), Err: err}
	case errors.Is(err, utils.ErrInvalidCode):
		return &utils.AppError{StatusCode: http.StatusBadRequest, Code: utils.ErrCodeInvalidCode, Message: "Invalid or expired verification code", Err: err}
	}
	return &utils.AppError{StatusCode: http.StatusInternalServerError, Code: utils.ErrCodeInternal, Message: "An unexpected error occurred", Err: err}
}

func respondError(w http.ResponseWriter, err error) {
	utils.HandleAppError(w, toAppError(err))
}
