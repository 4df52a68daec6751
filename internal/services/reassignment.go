package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/constants"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

// ReassignAfterRejection re-engages a rejected booking with another agent
// at the same date and start. The new appointment keeps the original
// booking timestamp, so the customer keeps their purchase priority.
//
// With newAgentID set by a customer the new appointment is pending. When
// the system or an admin chooses the agent (newAgentID nil selects the
// nearest free one) it waits in pending_approval for the customer.
func (s *BookingService) ReassignAfterRejection(
	ctx context.Context,
	actor models.Actor,
	rejectedID uuid.UUID,
	newAgentID *uuid.UUID,
) (*models.Appointment, error) {
	rejected, err := s.apptRepo.GetByID(ctx, rejectedID)
	if err != nil {
		return nil, err
	}
	if rejected == nil {
		return nil, fmt.Errorf("appointment %s: %w", rejectedID, utils.ErrNotFound)
	}
	if err := authorizeCustomerAction(actor, rejected); err != nil {
		return nil, err
	}
	if rejected.Status != models.AppointmentStatusRejected {
		return nil, invalidTransition(rejected, "reassign")
	}

	candidates := []uuid.UUID{}
	if newAgentID != nil {
		if *newAgentID == rejected.AgentID {
			return nil, fmt.Errorf("pick a different agent: %w", utils.ErrInvalidPayload)
		}
		candidates = append(candidates, *newAgentID)
	} else {
		if candidates, err = s.nearestAgents(ctx, rejected); err != nil {
			return nil, err
		}
	}
	customerChose := newAgentID != nil && actor.Role == models.RoleCustomer

	for _, agentID := range candidates {
		created, err := s.reassignTo(ctx, actor, rejectedID, agentID, customerChose)
		if err == nil {
			s.logFields(actor, logrus.Fields{
				"rejected_id":    rejectedID,
				"appointment_id": created.ID,
				"agent_id":       agentID,
			}).Info("Rejected booking reassigned")
			return created, nil
		}
		if newAgentID != nil || !errors.Is(err, utils.ErrSlotUnavailable) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no agent free on %s at %s: %w",
		rejected.Date.Format("2006-01-02"), rejected.StartTime, utils.ErrNoReplacementAgent)
}

// nearestAgents orders agents other than the rejecting one by distance to
// the property, skipping those on vacation or out of range.
func (s *BookingService) nearestAgents(ctx context.Context, rejected *models.Appointment) ([]uuid.UUID, error) {
	property, err := s.propRepo.GetByID(ctx, rejected.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, fmt.Errorf("property %s: %w", rejected.PropertyID, utils.ErrNotFound)
	}
	agents, err := s.agentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id    uuid.UUID
		miles float64
	}
	var list []ranked
	for _, a := range agents {
		if a.ID == rejected.AgentID || a.IsOnVacation {
			continue
		}
		if a.FindSlot(rejected.Date, rejected.StartTime) < 0 {
			continue
		}
		miles := utils.DistanceMiles(property.Latitude, property.Longitude, a.Latitude, a.Longitude)
		if miles > constants.ReplacementAgentRadiusMiles {
			continue
		}
		list = append(list, ranked{id: a.ID, miles: miles})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].miles < list[j].miles })

	out := make([]uuid.UUID, len(list))
	for i, r := range list {
		out[i] = r.id
	}
	return out, nil
}

func (s *BookingService) reassignTo(
	ctx context.Context,
	actor models.Actor,
	rejectedID, agentID uuid.UUID,
	customerChose bool,
) (*models.Appointment, error) {
	var created *models.Appointment
	err := s.onAppointment(ctx, rejectedID,
		func(*models.Appointment) []string { return []string{lock.AgentKey(agentID)} },
		func(t *txn, rejected *models.Appointment) error {
			if rejected.Status != models.AppointmentStatusRejected {
				return invalidTransition(rejected, "reassign")
			}
			property, err := t.property(ctx, rejected.PropertyID)
			if err != nil {
				return err
			}
			if property.Status.IsClosed() {
				return fmt.Errorf("property %s is %s: %w", property.ID, property.Status, utils.ErrPropertyAlreadySold)
			}

			siblings, err := t.propertyAppointments(ctx, property.ID)
			if err != nil {
				return err
			}
			for _, a := range siblings {
				if a.PreviousAppointmentID != nil && *a.PreviousAppointmentID == rejected.ID &&
					a.Status.CountsForConflicts() && !a.Status.IsTerminal() {
					return invalidTransition(rejected, "reassign again")
				}
			}

			agent, err := t.agent(ctx, agentID)
			if err != nil {
				return err
			}
			unavailable := func(reason string) error {
				return &utils.SlotUnavailableError{AgentID: agentID, Date: rejected.Date, StartTime: rejected.StartTime.String(), Reason: reason}
			}
			if agent.IsOnVacation {
				return unavailable(reasonVacation)
			}
			idx := agent.FindSlot(rejected.Date, rejected.StartTime)
			if idx < 0 {
				return unavailable(reasonNoSlot)
			}
			agentAppts, err := t.agentAppointments(ctx, agentID, rejected.Date)
			if err != nil {
				return err
			}
			verdict := EvaluateSlot(agent, &agent.Availability[idx], property, agentAppts, s.rules(), s.agentToday(agent, t.now))
			if !verdict.Bookable {
				return unavailable(verdict.Reason)
			}
			if len(verdict.Holders) > 0 {
				return unavailable(reasonBooked)
			}

			slot := agent.Availability[idx]
			appt := &models.Appointment{
				ID:                      uuid.New(),
				PropertyID:              property.ID,
				CustomerID:              rejected.CustomerID,
				AgentID:                 agentID,
				Date:                    rejected.Date,
				StartTime:               slot.StartTime,
				EndTime:                 utils.Ptr(slot.EndTime),
				Status:                  models.AppointmentStatusPending,
				HasViewingRights:        true,
				BookingAttemptTimestamp: rejected.BookingAttemptTimestamp,
				PreviousAgentID:         utils.Ptr(rejected.AgentID),
				PreviousAppointmentID:   utils.Ptr(rejected.ID),
				WasHighDemandSlot:       rejected.WasHighDemandSlot,
			}
			if !customerChose {
				appt.Status = models.AppointmentStatusPendingApproval
				appt.HasViewingRights = false
				appt.PendingApprovalSince = utils.Ptr(t.now)
			}

			t.create(appt)
			t.bookSlot(agent, idx, appt.ID)
			if err := t.recomputePurchaseRights(ctx, property.ID); err != nil {
				return err
			}

			details := map[string]any{
				"rejected_appointment_id": rejected.ID,
				"from_agent_id":           rejected.AgentID,
				"to_agent_id":             agentID,
				"customer_chose":          customerChose,
			}
			if err := t.audit(actor, models.AuditReassign, appt.ID, models.TargetAppointment, details); err != nil {
				return err
			}

			when := fmt.Sprintf("%s at %s", appt.Date.Format("2006-01-02"), appt.StartTime)
			if customerChose {
				t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationBookingConfirmed, appt,
					fmt.Sprintf("Viewing requested with your new agent for %s.", when))
			} else {
				t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationReassignmentApproval, appt,
					fmt.Sprintf("We found another agent for your viewing on %s. Please approve or decline.", when))
			}
			t.notify(agentID, models.RoleAgent, models.NotificationNewBookingRequest, appt,
				fmt.Sprintf("You were proposed for a viewing on %s.", when))

			created = appt
			return nil
		})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// ApproveReassignment is the customer accepting a system-chosen agent.
func (s *BookingService) ApproveReassignment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		if err := authorizeCustomerAction(actor, appt); err != nil {
			return err
		}
		if appt.Status != models.AppointmentStatusPendingApproval {
			return invalidTransition(appt, "approve")
		}
		property, err := t.property(ctx, appt.PropertyID)
		if err != nil {
			return err
		}
		if property.Status.IsClosed() {
			return fmt.Errorf("property %s is %s: %w", property.ID, property.Status, utils.ErrPropertyAlreadySold)
		}
		if err := t.confirmSlot(ctx, appt); err != nil {
			return err
		}

		appt.Status = models.AppointmentStatusAccepted
		appt.HasViewingRights = true
		appt.PendingApprovalSince = nil
		t.touchAppointment(appt)
		t.notify(appt.AgentID, models.RoleAgent, models.NotificationAppointmentAccepted, appt,
			"The customer approved you for their viewing.")
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Reassignment approved")
	return out.Clone(), nil
}

// DeclineReassignment cancels the proposed appointment. The customer may
// then pick an agent for the original rejected booking again.
func (s *BookingService) DeclineReassignment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		if err := authorizeCustomerAction(actor, appt); err != nil {
			return err
		}
		if appt.Status != models.AppointmentStatusPendingApproval {
			return invalidTransition(appt, "decline")
		}

		appt.PendingApprovalSince = nil
		if err := t.cancel(ctx, appt, utils.Ptr("customer declined reassignment"), true); err != nil {
			return err
		}
		if err := t.recomputePurchaseRights(ctx, appt.PropertyID); err != nil {
			return err
		}
		t.notify(appt.AgentID, models.RoleAgent, models.NotificationAppointmentCancelled, appt,
			"The customer declined the proposed viewing.")
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Reassignment declined")
	return out.Clone(), nil
}
