package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

type failingAuditRepo struct{}

func (failingAuditRepo) Create(context.Context, *models.AuditLog) error {
	return errors.New("audit store down")
}

func (failingAuditRepo) List(context.Context) ([]*models.AuditLog, error) { return nil, nil }

func TestOverrideAgent_Success(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	from := f.addAgent(0, 0, 0)
	to := f.addAgent(0, 0, 0)
	cust := f.addCustomer()
	appt := f.mustBook(cust, prop, from, day0, ten)

	moved, err := f.svc.OverrideAgent(f.ctx, admin, appt.ID, to.ID, "sick day")
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.AgentID)
	assert.Equal(t, from.ID, *moved.PreviousAgentID)
	assert.Equal(t, appt.BookingAttemptTimestamp, moved.BookingAttemptTimestamp)

	assert.False(t, f.slot(from.ID, day0, ten).IsBooked)
	assert.Equal(t, appt.ID, *f.slot(to.ID, day0, ten).BookingID)

	logs, err := f.audit.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditOverrideAgent, logs[0].Action)
	assert.Equal(t, appt.ID, logs[0].TargetID)
	assert.Equal(t, admin.ID, logs[0].ActorID)
	assert.Contains(t, string(*logs[0].Details), "sick day")

	assert.Equal(t, 1, f.notes.count(from.ID, models.NotificationAgentReassigned))
	assert.Equal(t, 1, f.notes.count(to.ID, models.NotificationAgentReassigned))
	assert.Equal(t, 1, f.notes.count(cust.ID, models.NotificationAgentReassigned))
}

func TestOverrideAgent_ConflictLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	from := f.addAgent(0, 0, 0)
	to := f.addAgent(0, 0, 0)
	appt := f.mustBook(f.addCustomer(), prop, from, day0, ten)
	busy := f.mustBook(f.addCustomer(), f.addProperty(false), to, day0, ten)

	_, err := f.svc.OverrideAgent(f.ctx, admin, appt.ID, to.ID, "")
	var conflict *utils.AgentConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, busy.ID, conflict.ConflictingAppointmentID)
	assert.ErrorIs(t, err, utils.ErrAgentConflict)

	assert.Equal(t, from.ID, f.reload(appt.ID).AgentID)
	logs, _ := f.audit.List(f.ctx)
	assert.Empty(t, logs)
}

func TestOverrideAgent_AuditFailureAborts(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	from := f.addAgent(0, 0, 0)
	to := f.addAgent(0, 0, 0)
	appt := f.mustBook(f.addCustomer(), prop, from, day0, ten)
	notesBefore := f.notes.total()

	f.audit = failingAuditRepo{}
	f.rebuild()

	_, err := f.svc.OverrideAgent(f.ctx, admin, appt.ID, to.ID, "")
	require.Error(t, err)

	got := f.reload(appt.ID)
	assert.Equal(t, from.ID, got.AgentID)
	assert.Nil(t, got.PreviousAgentID)
	assert.Equal(t, appt.ID, *f.slot(from.ID, day0, ten).BookingID)
	assert.False(t, f.slot(to.ID, day0, ten).IsBooked)
	assert.Equal(t, notesBefore, f.notes.total())
}

func TestOverrideAgent_Guards(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	from := f.addAgent(0, 0, 0)
	to := f.addAgent(0, 0, 0)
	appt := f.mustBook(f.addCustomer(), prop, from, day0, ten)

	_, err := f.svc.OverrideAgent(f.ctx, agentActor(from), appt.ID, to.ID, "")
	assert.ErrorIs(t, err, utils.ErrForbidden)

	same, err := f.svc.OverrideAgent(f.ctx, admin, appt.ID, from.ID, "")
	require.NoError(t, err)
	assert.Nil(t, same.PreviousAgentID)

	_, err = f.svc.CancelAppointment(f.ctx, admin, appt.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.OverrideAgent(f.ctx, admin, appt.ID, to.ID, "")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}
