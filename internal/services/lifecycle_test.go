package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func TestExclusiveWaitlist_RejectPromotesNext(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(true)
	agent := f.addAgent(0, 0, 0)
	c1, c2, c3 := f.addCustomer(), f.addCustomer(), f.addCustomer()

	first := f.mustBook(c1, prop, agent, day0, ten)
	second := f.mustBook(c2, prop, agent, day0, ten)
	third := f.mustBook(c3, prop, agent, day0, ten)

	assert.Equal(t, models.AppointmentStatusPending, first.Status)
	assert.Nil(t, first.QueuePosition)
	assert.Equal(t, models.AppointmentStatusQueued, second.Status)
	assert.Equal(t, 2, *second.QueuePosition)
	assert.False(t, second.HasViewingRights)
	assert.Equal(t, 3, *third.QueuePosition)
	assert.True(t, f.reload(first.ID).WasHighDemandSlot)
	assert.Equal(t, 1, f.notes.count(c2.ID, models.NotificationBookingWaitlisted))

	list, err := f.svc.GetWaitlist(f.ctx, admin, prop.ID, agent.ID, day0, ten)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = f.svc.RejectAppointment(f.ctx, agentActor(agent), first.ID, utils.Ptr("double booked"))
	require.NoError(t, err)

	promoted := f.reload(second.ID)
	assert.Equal(t, models.AppointmentStatusPending, promoted.Status)
	assert.Nil(t, promoted.QueuePosition)
	assert.True(t, promoted.HasViewingRights)
	assert.Equal(t, 2, *f.reload(third.ID).QueuePosition)
	assert.Equal(t, promoted.ID, *f.slot(agent.ID, day0, ten).BookingID)
	assert.Equal(t, 1, f.notes.count(c2.ID, models.NotificationWaitlistPromoted))

	// purchase rights move to the promoted customer
	assert.True(t, promoted.HasPurchaseRights)
	assert.False(t, f.reload(third.ID).HasPurchaseRights)
}

func TestExclusiveWaitlist_CancelQueuedCompacts(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(true)
	agent := f.addAgent(0, 0, 0)
	c2, c3, c4 := f.addCustomer(), f.addCustomer(), f.addCustomer()

	first := f.mustBook(f.addCustomer(), prop, agent, day0, ten)
	second := f.mustBook(c2, prop, agent, day0, ten)
	third := f.mustBook(c3, prop, agent, day0, ten)
	fourth := f.mustBook(c4, prop, agent, day0, ten)

	_, err := f.svc.CancelAppointment(f.ctx, customer(c3), third.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, *f.reload(second.ID).QueuePosition)
	assert.Equal(t, 3, *f.reload(fourth.ID).QueuePosition)
	assert.Nil(t, f.reload(third.ID).QueuePosition)
	assert.Equal(t, first.ID, *f.slot(agent.ID, day0, ten).BookingID)
}

func TestExclusiveWaitlist_MarkDoneReleasesQueue(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(true)
	agent := f.addAgent(0, 0, 0)
	c2, c3 := f.addCustomer(), f.addCustomer()

	first := f.mustBook(f.addCustomer(), prop, agent, day0, ten)
	second := f.mustBook(c2, prop, agent, day0, ten)
	third := f.mustBook(c3, prop, agent, day0, ten)
	_, err := f.svc.AcceptAppointment(f.ctx, agentActor(agent), first.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkDone(f.ctx, agentActor(agent), first.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.AppointmentStatusDone, f.reload(first.ID).Status)
	for _, q := range []*models.Appointment{second, third} {
		got := f.reload(q.ID)
		assert.Equal(t, models.AppointmentStatusCancelled, got.Status)
		assert.Nil(t, got.QueuePosition)
		assert.Equal(t, "viewing completed", *got.CancellationReason)
		assert.Equal(t, 1, f.notes.count(got.CustomerID, models.NotificationAppointmentCancelled))
		assert.Zero(t, f.notes.count(got.CustomerID, models.NotificationWaitlistPromoted))
	}
	assert.Equal(t, first.ID, *f.slot(agent.ID, day0, ten).BookingID)

	list, err := f.svc.GetWaitlist(f.ctx, admin, prop.ID, agent.ID, day0, ten)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExclusiveWaitlist_QueuedCannotBeAccepted(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(true)
	agent := f.addAgent(0, 0, 0)

	f.mustBook(f.addCustomer(), prop, agent, day0, ten)
	queued := f.mustBook(f.addCustomer(), prop, agent, day0, ten)

	_, err := f.svc.AcceptAppointment(f.ctx, agentActor(agent), queued.ID)
	var transErr *utils.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, string(models.AppointmentStatusQueued), transErr.From)
}

func TestRejectAppointment_SecondRejectIsInvalid(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	appt := f.mustBook(f.addCustomer(), prop, agent, day0, ten)

	_, err := f.svc.RejectAppointment(f.ctx, agentActor(agent), appt.ID, nil)
	require.NoError(t, err)
	before := f.notes.total()
	version := f.reload(appt.ID).RowVersion

	_, err = f.svc.RejectAppointment(f.ctx, agentActor(agent), appt.ID, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, before, f.notes.total())
	assert.Equal(t, version, f.reload(appt.ID).RowVersion)
	assert.False(t, f.slot(agent.ID, day0, ten).IsBooked)
}

func TestAgentActions_OnlyOwnAppointments(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	stranger := f.addAgent(0, 0, 0)
	cust := f.addCustomer()
	appt := f.mustBook(cust, prop, agent, day0, ten)

	_, err := f.svc.AcceptAppointment(f.ctx, agentActor(stranger), appt.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.svc.AcceptAppointment(f.ctx, customer(cust), appt.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.svc.CancelAppointment(f.ctx, customer(f.addCustomer()), appt.ID, nil)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	assert.Equal(t, models.AppointmentStatusPending, f.reload(appt.ID).Status)
}

func TestMarkDone_BufferBlocksFollowingSlot(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	appt := f.mustBook(f.addCustomer(), prop, agent, day0, ten)

	_, err := f.svc.MarkDone(f.ctx, agentActor(agent), appt.ID, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = f.svc.AcceptAppointment(f.ctx, agentActor(agent), appt.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkDone(f.ctx, agentActor(agent), appt.ID, utils.Ptr(models.NewTimeOfDay(9, 0)))
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)

	done, err := f.svc.MarkDone(f.ctx, agentActor(agent), appt.ID, utils.Ptr(models.NewTimeOfDay(10, 30)))
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusDone, done.Status)
	assert.Equal(t, models.NewTimeOfDay(10, 30), *done.EndTime)

	_, err = f.book(f.addCustomer(), f.addProperty(false), agent, day0, eleven)
	var slotErr *utils.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, reasonBuffer, slotErr.Reason)

	f.mustBook(f.addCustomer(), f.addProperty(false), agent, day0, models.NewTimeOfDay(12, 0))
}

func TestUnavailablePeriodBlocksBooking(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	agents := NewAgentService(f.clock, f.locks, f.agents, nil)

	period, err := agents.AddUnavailablePeriod(f.ctx, agentActor(agent), agent.ID, day0, ten, eleven, utils.Ptr("dentist"))
	require.NoError(t, err)

	_, err = f.book(f.addCustomer(), prop, agent, day0, ten)
	var slotErr *utils.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, reasonUnavailable, slotErr.Reason)

	require.NoError(t, agents.RemoveUnavailablePeriod(f.ctx, agentActor(agent), agent.ID, period.ID))
	f.mustBook(f.addCustomer(), prop, agent, day0, ten)
}

func TestMarkSoldOrRented_CascadesCancellation(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	other := f.addAgent(0, 0, 0)

	accepted := f.mustBook(f.addCustomer(), prop, agent, day0, ten)
	_, err := f.svc.AcceptAppointment(f.ctx, agentActor(agent), accepted.ID)
	require.NoError(t, err)
	pendingA := f.mustBook(f.addCustomer(), prop, agent, day0, eleven)
	pendingB := f.mustBook(f.addCustomer(), prop, other, day0, eleven)

	closed, err := f.svc.MarkSoldOrRented(f.ctx, agentActor(agent), CloseRequest{
		PropertyID:    prop.ID,
		Status:        models.PropertyStatusSold,
		ActorAgentID:  agent.ID,
		AppointmentID: utils.Ptr(accepted.ID),
		SalePrice:     utils.Ptr(425000.0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusSold, closed.Status)
	assert.Equal(t, agent.ID, *closed.SoldByAgentID)
	assert.NotNil(t, closed.SoldDate)

	assert.Equal(t, models.AppointmentStatusSold, f.reload(accepted.ID).Status)
	for _, id := range []*models.Appointment{pendingA, pendingB} {
		got := f.reload(id.ID)
		assert.Equal(t, models.AppointmentStatusCancelled, got.Status)
		assert.Equal(t, "property sold", *got.CancellationReason)
		assert.Equal(t, 1, f.notes.count(got.CustomerID, models.NotificationPropertyClosed))
	}
	assert.False(t, f.slot(agent.ID, day0, eleven).IsBooked)
	assert.False(t, f.slot(other.ID, day0, eleven).IsBooked)

	logs, err := f.audit.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditCloseProperty, logs[0].Action)
	assert.Equal(t, prop.ID, logs[0].TargetID)

	_, err = f.book(f.addCustomer(), prop, agent, day0, models.NewTimeOfDay(14, 0))
	assert.ErrorIs(t, err, utils.ErrPropertyAlreadySold)
	_, err = f.svc.AcceptAppointment(f.ctx, agentActor(agent), pendingA.ID)
	assert.ErrorIs(t, err, utils.ErrPropertyAlreadySold)
	_, err = f.svc.MarkSoldOrRented(f.ctx, agentActor(agent), CloseRequest{
		PropertyID: prop.ID, Status: models.PropertyStatusRented, ActorAgentID: agent.ID,
	})
	assert.ErrorIs(t, err, utils.ErrPropertyAlreadySold)
}

func TestMarkSoldOrRented_ClosingAppointmentMustBeConfirmed(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	pending := f.mustBook(f.addCustomer(), prop, agent, day0, ten)

	_, err := f.svc.MarkSoldOrRented(f.ctx, agentActor(agent), CloseRequest{
		PropertyID:    prop.ID,
		Status:        models.PropertyStatusRented,
		ActorAgentID:  agent.ID,
		AppointmentID: utils.Ptr(pending.ID),
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	p, _ := f.props.GetByID(f.ctx, prop.ID)
	assert.Equal(t, models.PropertyStatusAvailable, p.Status)
	assert.Equal(t, models.AppointmentStatusPending, f.reload(pending.ID).Status)
}

func TestMarkSoldOrRented_ClosingAppointmentMustHoldPurchaseRights(t *testing.T) {
	for _, status := range []models.PropertyStatusType{models.PropertyStatusSold, models.PropertyStatusRented} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			prop := f.addProperty(false)
			first := f.addAgent(0, 0, 0)
			second := f.addAgent(0, 0, 0)

			leader := f.mustBook(f.addCustomer(), prop, first, day0, ten)
			follower := f.mustBook(f.addCustomer(), prop, second, day0, eleven)
			_, err := f.svc.AcceptAppointment(f.ctx, agentActor(second), follower.ID)
			require.NoError(t, err)
			version := f.reload(follower.ID).RowVersion

			_, err = f.svc.MarkSoldOrRented(f.ctx, agentActor(second), CloseRequest{
				PropertyID:    prop.ID,
				Status:        status,
				ActorAgentID:  second.ID,
				AppointmentID: utils.Ptr(follower.ID),
			})
			assert.ErrorIs(t, err, utils.ErrInvalidTransition)

			p, _ := f.props.GetByID(f.ctx, prop.ID)
			assert.Equal(t, models.PropertyStatusAvailable, p.Status)
			assert.Equal(t, models.AppointmentStatusAccepted, f.reload(follower.ID).Status)
			assert.Equal(t, version, f.reload(follower.ID).RowVersion)
			assert.Equal(t, models.AppointmentStatusPending, f.reload(leader.ID).Status)
			assert.True(t, f.reload(leader.ID).HasPurchaseRights)
			logs, _ := f.audit.List(f.ctx)
			assert.Empty(t, logs)
		})
	}
}

func TestMarkSoldOrRented_SettlesPurchaseRights(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)
	other := f.addAgent(0, 0, 0)

	leader := f.mustBook(f.addCustomer(), prop, agent, day0, ten)
	_, err := f.svc.AcceptAppointment(f.ctx, agentActor(agent), leader.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDone(f.ctx, agentActor(agent), leader.ID, nil)
	require.NoError(t, err)
	follower := f.mustBook(f.addCustomer(), prop, other, day0, eleven)
	require.False(t, follower.HasPurchaseRights)

	_, err = f.svc.MarkSoldOrRented(f.ctx, agentActor(agent), CloseRequest{
		PropertyID:    prop.ID,
		Status:        models.PropertyStatusSold,
		ActorAgentID:  agent.ID,
		AppointmentID: utils.Ptr(leader.ID),
	})
	require.NoError(t, err)

	sold := f.reload(leader.ID)
	assert.Equal(t, models.AppointmentStatusSold, sold.Status)
	assert.True(t, sold.HasPurchaseRights)
	got := f.reload(follower.ID)
	assert.Equal(t, models.AppointmentStatusCancelled, got.Status)
	assert.False(t, got.HasPurchaseRights)
	assert.Zero(t, f.notes.count(got.CustomerID, models.NotificationPurchaseRightsRevoked))
}

func TestMarkSoldOrRented_RejectsOpenStatus(t *testing.T) {
	f := newFixture(t)
	prop := f.addProperty(false)
	agent := f.addAgent(0, 0, 0)

	_, err := f.svc.MarkSoldOrRented(f.ctx, agentActor(agent), CloseRequest{
		PropertyID: prop.ID, Status: models.PropertyStatusPending, ActorAgentID: agent.ID,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)
}
