package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func TestMessagingAllowed(t *testing.T) {
	verified := &models.Contact{SMSVerified: true}
	unverified := &models.Contact{}
	accepted := &models.Appointment{Status: models.AppointmentStatusAccepted}

	assert.True(t, MessagingAllowed(accepted, verified, verified))
	assert.True(t, MessagingAllowed(&models.Appointment{Status: models.AppointmentStatusScheduled}, verified, verified))
	assert.False(t, MessagingAllowed(&models.Appointment{Status: models.AppointmentStatusPending}, verified, verified))
	assert.False(t, MessagingAllowed(accepted, unverified, verified))
	assert.False(t, MessagingAllowed(accepted, verified, unverified))
	assert.False(t, MessagingAllowed(accepted, nil, verified))
}

func TestCanMessage_FollowsStatusAndVerification(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	cust := f.addCustomer()
	appt := f.mustBook(cust, prop, agent, day0, ten)

	allowed, err := f.svc.CanMessage(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = f.svc.AcceptAppointment(f.ctx, agentActor(agent), appt.ID)
	require.NoError(t, err)
	allowed, _ = f.svc.CanMessage(f.ctx, appt.ID)
	assert.False(t, allowed, "nobody verified yet")

	require.NoError(t, f.users.UpdateWithRetry(f.ctx, cust.ID, func(u *models.User) error {
		u.SMSVerified = true
		return nil
	}))
	require.NoError(t, f.agents.UpdateWithRetry(f.ctx, agent.ID, func(a *models.Agent) error {
		a.SMSVerified = true
		return nil
	}))
	allowed, _ = f.svc.CanMessage(f.ctx, appt.ID)
	assert.True(t, allowed)

	msg, err := f.svc.SendMessage(f.ctx, customer(cust), appt.ID, "  Is there parking?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is there parking?", msg.Body)
	assert.Equal(t, agent.ID, msg.RecipientID)
	assert.Equal(t, 1, f.notes.count(agent.ID, models.NotificationMessageReceived))

	_, err = f.svc.SendMessage(f.ctx, customer(f.addCustomer()), appt.ID, "hi")
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.svc.MarkDone(f.ctx, agentActor(agent), appt.ID, nil)
	require.NoError(t, err)
	allowed, _ = f.svc.CanMessage(f.ctx, appt.ID)
	assert.False(t, allowed)

	_, err = f.svc.SendMessage(f.ctx, agentActor(agent), appt.ID, "thanks")
	assert.ErrorIs(t, err, utils.ErrMessagingNotAllowed)

	msgs, err := f.svc.ListMessages(f.ctx, agentActor(agent), appt.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
