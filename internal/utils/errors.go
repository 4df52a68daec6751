package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

/*
   Sentinel errors for booking-engine domain logic.
   The controller can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	// Recoverable: the caller must re-resolve availability and pick again.
	ErrSlotUnavailable = errors.New("slot_unavailable")
	// Recoverable: surfaced to the override UI, nothing was mutated.
	ErrAgentConflict = errors.New("agent_conflict")

	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrPropertyAlreadySold = errors.New("property_already_sold")

	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrMessagingNotAllowed = errors.New("messaging_not_allowed")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrInvalidCode         = errors.New("invalid_verification_code")
	ErrNoReplacementAgent  = errors.New("no_replacement_agent")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrNoRowsUpdated      = errors.New("no_rows_updated")
)

// SlotUnavailableError says why a (agent, date, start) pair cannot be booked
// right now. It unwraps to ErrSlotUnavailable.
type SlotUnavailableError struct {
	AgentID   uuid.UUID
	Date      time.Time
	StartTime string
	Reason    string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s %s for agent %s is no longer available: %s",
		e.Date.Format("2006-01-02"), e.StartTime, e.AgentID, e.Reason)
}

func (e *SlotUnavailableError) Unwrap() error { return ErrSlotUnavailable }

// AgentConflictError is returned by overrides when the target agent already
// has an overlapping appointment.
type AgentConflictError struct {
	AgentID                  uuid.UUID
	ConflictingAppointmentID uuid.UUID
}

func (e *AgentConflictError) Error() string {
	return fmt.Sprintf("agent %s already has appointment %s at that time", e.AgentID, e.ConflictingAppointmentID)
}

func (e *AgentConflictError) Unwrap() error { return ErrAgentConflict }

type InvalidTransitionError struct {
	AppointmentID uuid.UUID
	From          string
	Action        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s appointment %s in status %s", e.Action, e.AppointmentID, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

/*
   RowVersionConflictError is returned when there's a concurrency mismatch.
   Current holds the latest stored entity so callers can refresh.
*/
type RowVersionConflictError struct {
	Current any
}

func (e *RowVersionConflictError) Error() string {
	return "row_version_conflict"
}

func (e *RowVersionConflictError) Unwrap() error { return ErrRowVersionConflict }

func NewRowVersionConflictError(current any) error {
	return &RowVersionConflictError{Current: current}
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
