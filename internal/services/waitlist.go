package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

// Waitlists exist per (property, agent, date, start) on exclusive
// properties. The primary holder has no position; queued entries are
// numbered from 2 in arrival order.

// activeOnSlot are the appointments that still occupy a slot key.
func activeOnSlot(slotAppts []*models.Appointment) []*models.Appointment {
	var out []*models.Appointment
	for _, a := range slotAppts {
		if a.Status.CountsForConflicts() && !a.Status.IsTerminal() {
			out = append(out, a)
		}
	}
	return out
}

// nextQueuePosition is where a new joiner lands given the slot's current
// occupants. Zero occupants means the joiner becomes primary.
func nextQueuePosition(slotAppts []*models.Appointment) int {
	existing := len(activeOnSlot(slotAppts))
	if existing == 0 {
		return 0
	}
	return existing + 1
}

func queuedOnSlot(slotAppts []*models.Appointment) []*models.Appointment {
	var out []*models.Appointment
	for _, a := range slotAppts {
		if a.Status == models.AppointmentStatusQueued && a.QueuePosition != nil {
			out = append(out, a)
		}
	}
	// slotAppts is already in (timestamp, insertion) order
	sort.SliceStable(out, func(i, j int) bool { return *out[i].QueuePosition < *out[j].QueuePosition })
	return out
}

// promoteNext moves the lowest queued entry of key to pending and shifts
// everyone behind it forward by one. Returns nil when the queue is empty.
func (t *txn) promoteNext(ctx context.Context, key models.SlotKey) (*models.Appointment, error) {
	slotAppts, err := t.slotAppointments(ctx, key)
	if err != nil {
		return nil, err
	}
	queued := queuedOnSlot(slotAppts)
	if len(queued) == 0 {
		return nil, nil
	}

	next := queued[0]
	next.Status = models.AppointmentStatusPending
	next.HasViewingRights = true
	next.QueuePosition = nil
	t.touchAppointment(next)

	for _, a := range queued[1:] {
		pos := *a.QueuePosition - 1
		a.QueuePosition = &pos
		t.touchAppointment(a)
	}

	t.notify(next.CustomerID, models.RoleCustomer, models.NotificationWaitlistPromoted, next,
		fmt.Sprintf("A spot opened up: your viewing on %s at %s is now pending agent approval.",
			next.Date.Format("2006-01-02"), next.StartTime))
	t.notify(next.AgentID, models.RoleAgent, models.NotificationNewBookingRequest, next,
		"A waitlisted customer was promoted into your slot.")
	return next, nil
}

// leaveQueue closes the gap a queued appointment leaves behind.
func (t *txn) leaveQueue(ctx context.Context, appt *models.Appointment, oldPos int) error {
	slotAppts, err := t.slotAppointments(ctx, appt.SlotKey())
	if err != nil {
		return err
	}
	for _, a := range queuedOnSlot(slotAppts) {
		if a.ID != appt.ID && *a.QueuePosition > oldPos {
			pos := *a.QueuePosition - 1
			a.QueuePosition = &pos
			t.touchAppointment(a)
		}
	}
	return nil
}

// GetWaitlist returns the queued appointments of a slot in position order.
func (s *BookingService) GetWaitlist(
	ctx context.Context,
	actor models.Actor,
	propertyID, agentID uuid.UUID,
	date time.Time,
	start models.TimeOfDay,
) ([]*models.Appointment, error) {
	if err := requireCapability(actor, models.CapViewQueues); err != nil {
		return nil, err
	}
	key := models.SlotKey{PropertyID: propertyID, AgentID: agentID, Date: date, StartTime: start}
	slotAppts, err := s.apptRepo.ListBySlot(ctx, key)
	if err != nil {
		return nil, err
	}
	out := queuedOnSlot(slotAppts)
	if out == nil {
		out = []*models.Appointment{}
	}
	return out, nil
}
