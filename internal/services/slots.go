package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

func (t *txn) bookSlot(agent *models.Agent, idx int, apptID uuid.UUID) {
	slot := &agent.Availability[idx]
	slot.IsBooked = true
	slot.BookingID = &apptID
	t.touchAgent(agent)
}

// releaseSlot runs after appt stopped occupying its slot (its status or
// agent already changed in t). If appt held the slot booking, the booking
// passes to another non-queued occupant, then to the next waitlisted
// customer when promote is set, and otherwise the slot is freed.
func (t *txn) releaseSlot(ctx context.Context, appt *models.Appointment, agentID uuid.UUID, promote bool) error {
	agent, err := t.agent(ctx, agentID)
	if err != nil {
		return err
	}
	idx := agent.FindSlot(appt.Date, appt.StartTime)
	if idx < 0 {
		return nil
	}
	slot := &agent.Availability[idx]
	if slot.BookingID == nil || *slot.BookingID != appt.ID {
		return nil
	}

	key := models.SlotKey{PropertyID: appt.PropertyID, AgentID: agentID, Date: appt.Date, StartTime: appt.StartTime}
	slotAppts, err := t.slotAppointments(ctx, key)
	if err != nil {
		return err
	}
	for _, other := range activeOnSlot(slotAppts) {
		if other.ID != appt.ID && other.Status != models.AppointmentStatusQueued {
			t.bookSlot(agent, idx, other.ID)
			return nil
		}
	}

	if promote {
		next, err := t.promoteNext(ctx, key)
		if err != nil {
			return err
		}
		if next != nil {
			t.bookSlot(agent, idx, next.ID)
			return nil
		}
	}

	slot.IsBooked = false
	slot.BookingID = nil
	t.touchAgent(agent)
	return nil
}
