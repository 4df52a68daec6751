package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/utils"
)

func TestToAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"slot", &utils.SlotUnavailableError{AgentID: uuid.New(), Date: time.Now(), StartTime: "10:00", Reason: "booked"}, http.StatusConflict, utils.ErrCodeSlotUnavailable},
		{"agent conflict", &utils.AgentConflictError{AgentID: uuid.New(), ConflictingAppointmentID: uuid.New()}, http.StatusConflict, utils.ErrCodeAgentConflict},
		{"transition", &utils.InvalidTransitionError{AppointmentID: uuid.New(), From: "done", Action: "accept"}, http.StatusConflict, utils.ErrCodeInvalidTransition},
		{"row version", utils.NewRowVersionConflictError(nil), http.StatusConflict, utils.ErrCodeRowVersionConflict},
		{"sold", fmt.Errorf("wrapped: %w", utils.ErrPropertyAlreadySold), http.StatusConflict, utils.ErrCodePropertyAlreadySold},
		{"no replacement", utils.ErrNoReplacementAgent, http.StatusConflict, utils.ErrCodeNoReplacementAgent},
		{"not found", fmt.Errorf("appointment x: %w", utils.ErrNotFound), http.StatusNotFound, utils.ErrCodeNotFound},
		{"forbidden", utils.ErrForbidden, http.StatusForbidden, utils.ErrCodeForbidden},
		{"messaging", utils.ErrMessagingNotAllowed, http.StatusForbidden, utils.ErrCodeMessagingNotAllowed},
		{"payload", utils.ErrInvalidPayload, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"code", utils.ErrInvalidCode, http.StatusBadRequest, utils.ErrCodeInvalidCode},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, utils.ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var appErr *utils.AppError
			require.ErrorAs(t, toAppError(tc.err), &appErr)
			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.code, appErr.Code)
			assert.ErrorIs(t, appErr, tc.err)
		})
	}
}

func TestRespondError_WritesDetails(t *testing.T) {
	conflicting := uuid.New()
	rec := httptest.NewRecorder()
	respondError(rec, &utils.AgentConflictError{AgentID: uuid.New(), ConflictingAppointmentID: conflicting})

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, utils.ErrCodeAgentConflict, body.Code)
	assert.Equal(t, conflicting.String(), body.Details["conflicting_appointment_id"])
}

func TestFormatValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(dtos.OverrideAgentRequest{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	details := formatValidationErrors(verrs)
	require.Len(t, details, 2)
	assert.Equal(t, "NewAgentID", details[0].Field)
	assert.Equal(t, "validation_required", details[0].Code)
	assert.Equal(t, "Reason", details[1].Field)
}

func TestParseAsOf(t *testing.T) {
	got, err := parseAsOf("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseAsOf("2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = parseAsOf("2024-06-03T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Hour())

	_, err = parseAsOf("yesterday")
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)
}
