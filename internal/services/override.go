package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

// OverrideAgent moves an appointment to newAgentID. Nothing changes when
// the new agent has an overlapping appointment; the caller gets an
// *utils.AgentConflictError naming it.
func (s *BookingService) OverrideAgent(
	ctx context.Context,
	actor models.Actor,
	id, newAgentID uuid.UUID,
	reason string,
) (*models.Appointment, error) {
	if err := requireCapability(actor, models.CapOverride); err != nil {
		return nil, err
	}

	var out *models.Appointment
	extra := func(*models.Appointment) []string { return []string{lock.AgentKey(newAgentID)} }
	err := s.onAppointment(ctx, id, extra, func(t *txn, appt *models.Appointment) error {
		if appt.Status.IsTerminal() || appt.Status == models.AppointmentStatusQueued {
			return invalidTransition(appt, "override")
		}
		if appt.AgentID == newAgentID {
			out = appt
			return nil
		}

		newAgent, err := t.agent(ctx, newAgentID)
		if err != nil {
			return err
		}
		theirs, err := t.agentAppointments(ctx, newAgentID, appt.Date)
		if err != nil {
			return err
		}
		c := Candidate{AgentID: newAgentID, Date: appt.Date, StartTime: appt.StartTime, EndTime: appt.EndTime, Exclude: []uuid.UUID{appt.ID}}
		if clash := FindConflict(theirs, c); clash != nil {
			return &utils.AgentConflictError{AgentID: newAgentID, ConflictingAppointmentID: clash.ID}
		}
		idx := newAgent.FindSlot(appt.Date, appt.StartTime)
		if idx >= 0 {
			slot := newAgent.Availability[idx]
			if slot.IsBooked && (slot.BookingID == nil || *slot.BookingID != appt.ID) {
				return &utils.AgentConflictError{AgentID: newAgentID, ConflictingAppointmentID: utils.Val(slot.BookingID)}
			}
		}

		oldAgentID := appt.AgentID
		before := *appt
		appt.AgentID = newAgentID
		appt.PreviousAgentID = utils.Ptr(oldAgentID)
		t.touchAppointment(appt)

		if err := t.releaseSlot(ctx, appt, oldAgentID, true); err != nil {
			return err
		}
		if idx >= 0 {
			t.bookSlot(newAgent, idx, appt.ID)
		}

		details := map[string]any{
			"from_agent_id": oldAgentID,
			"to_agent_id":   newAgentID,
			"reason":        reason,
			"before":        before,
		}
		if err := t.audit(actor, models.AuditOverrideAgent, appt.ID, models.TargetAppointment, details); err != nil {
			return err
		}

		when := fmt.Sprintf("%s at %s", appt.Date.Format("2006-01-02"), appt.StartTime)
		t.notify(oldAgentID, models.RoleAgent, models.NotificationAgentReassigned, appt,
			fmt.Sprintf("The viewing on %s was reassigned to another agent.", when))
		t.notify(newAgentID, models.RoleAgent, models.NotificationAgentReassigned, appt,
			fmt.Sprintf("You were assigned the viewing on %s.", when))
		t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationAgentReassigned, appt,
			fmt.Sprintf("Your viewing on %s has a new agent.", when))
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logFields(actor, logrus.Fields{
		"appointment_id": id,
		"new_agent_id":   newAgentID,
		"reason":         reason,
	}).Info("Agent overridden")
	return out.Clone(), nil
}
