package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func invalidTransition(appt *models.Appointment, action string) error {
	return &utils.InvalidTransitionError{AppointmentID: appt.ID, From: string(appt.Status), Action: action}
}

// authorizeAgentAction admits admins and the appointment's own agent.
func authorizeAgentAction(actor models.Actor, appt *models.Appointment) error {
	if err := requireCapability(actor, models.CapAgentAct); err != nil {
		return err
	}
	if actor.Role == models.RoleAgent && actor.ID != appt.AgentID {
		return fmt.Errorf("agent %s is not assigned to appointment %s: %w", actor.ID, appt.ID, utils.ErrForbidden)
	}
	return nil
}

// authorizeCustomerAction admits admins and the appointment's customer.
func authorizeCustomerAction(actor models.Actor, appt *models.Appointment) error {
	if err := requireCapability(actor, models.CapCancelOwn); err != nil {
		return err
	}
	if actor.Role == models.RoleCustomer && actor.ID != appt.CustomerID {
		return fmt.Errorf("appointment %s belongs to another customer: %w", appt.ID, utils.ErrForbidden)
	}
	return nil
}

// confirmSlot re-runs conflict detection for appt at confirmation time.
// Appointments sharing its slot for the same property are not conflicts.
func (t *txn) confirmSlot(ctx context.Context, appt *models.Appointment) error {
	agentAppts, err := t.agentAppointments(ctx, appt.AgentID, appt.Date)
	if err != nil {
		return err
	}
	exclude := []uuid.UUID{appt.ID}
	for _, a := range agentAppts {
		if a.SlotKey() == appt.SlotKey() {
			exclude = append(exclude, a.ID)
		}
	}
	c := Candidate{AgentID: appt.AgentID, Date: appt.Date, StartTime: appt.StartTime, EndTime: appt.EndTime, Exclude: exclude}
	if clash := FindConflict(agentAppts, c); clash != nil {
		return &utils.SlotUnavailableError{
			AgentID:   appt.AgentID,
			Date:      appt.Date,
			StartTime: appt.StartTime.String(),
			Reason:    fmt.Sprintf("overlaps appointment %s", clash.ID),
		}
	}
	return nil
}

// AcceptAppointment moves a pending appointment to accepted.
func (s *BookingService) AcceptAppointment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		if err := authorizeAgentAction(actor, appt); err != nil {
			return err
		}
		property, err := t.property(ctx, appt.PropertyID)
		if err != nil {
			return err
		}
		if property.Status.IsClosed() {
			return fmt.Errorf("property %s is %s: %w", property.ID, property.Status, utils.ErrPropertyAlreadySold)
		}
		if appt.Status != models.AppointmentStatusPending {
			return invalidTransition(appt, "accept")
		}
		if err := t.confirmSlot(ctx, appt); err != nil {
			return err
		}

		appt.Status = models.AppointmentStatusAccepted
		t.touchAppointment(appt)
		t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationAppointmentAccepted, appt,
			fmt.Sprintf("Your viewing on %s at %s is confirmed.", appt.Date.Format("2006-01-02"), appt.StartTime))
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Appointment accepted")
	return out.Clone(), nil
}

// RejectAppointment is terminal. The slot passes to the next waitlisted
// customer, if any, and purchase rights are recomputed in the same txn.
func (s *BookingService) RejectAppointment(ctx context.Context, actor models.Actor, id uuid.UUID, reason *string) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		if err := authorizeAgentAction(actor, appt); err != nil {
			return err
		}
		if appt.Status != models.AppointmentStatusPending && !appt.Status.IsConfirmed() {
			return invalidTransition(appt, "reject")
		}

		appt.Status = models.AppointmentStatusRejected
		appt.RejectionReason = reason
		appt.HasViewingRights = false
		t.touchAppointment(appt)

		if err := t.releaseSlot(ctx, appt, appt.AgentID, true); err != nil {
			return err
		}
		if err := t.recomputePurchaseRights(ctx, appt.PropertyID); err != nil {
			return err
		}

		msg := "Your agent could not take this viewing. You can pick another agent or let us choose one."
		if reason != nil && *reason != "" {
			msg = fmt.Sprintf("Your agent could not take this viewing (%s). You can pick another agent or let us choose one.", *reason)
		}
		t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationAppointmentRejected, appt, msg)
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Appointment rejected")
	return out.Clone(), nil
}

// CancelAppointment works from any non-terminal status.
func (s *BookingService) CancelAppointment(ctx context.Context, actor models.Actor, id uuid.UUID, reason *string) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		var authErr error
		switch actor.Role {
		case models.RoleAgent:
			authErr = authorizeAgentAction(actor, appt)
		default:
			authErr = authorizeCustomerAction(actor, appt)
		}
		if authErr != nil {
			return authErr
		}
		if appt.Status.IsTerminal() {
			return invalidTransition(appt, "cancel")
		}

		if err := t.cancel(ctx, appt, reason, true); err != nil {
			return err
		}
		if err := t.recomputePurchaseRights(ctx, appt.PropertyID); err != nil {
			return err
		}

		if actor.ID == appt.CustomerID {
			t.notify(appt.AgentID, models.RoleAgent, models.NotificationAppointmentCancelled, appt,
				fmt.Sprintf("The customer cancelled the viewing on %s at %s.", appt.Date.Format("2006-01-02"), appt.StartTime))
		} else {
			t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationAppointmentCancelled, appt,
				fmt.Sprintf("Your viewing on %s at %s was cancelled.", appt.Date.Format("2006-01-02"), appt.StartTime))
		}
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Appointment cancelled")
	return out.Clone(), nil
}

// cancel marks appt cancelled and hands its slot or queue place on.
func (t *txn) cancel(ctx context.Context, appt *models.Appointment, reason *string, promote bool) error {
	wasQueued := appt.Status == models.AppointmentStatusQueued
	oldPos := 0
	if appt.QueuePosition != nil {
		oldPos = *appt.QueuePosition
	}

	appt.Status = models.AppointmentStatusCancelled
	appt.CancellationReason = reason
	appt.HasViewingRights = false
	appt.QueuePosition = nil
	t.touchAppointment(appt)

	if wasQueued {
		return t.leaveQueue(ctx, appt, oldPos)
	}
	return t.releaseSlot(ctx, appt, appt.AgentID, promote)
}

// MarkDone closes a confirmed viewing and releases the slot's waitlist.
// endTime, when given, replaces the scheduled end and drives the
// post-viewing buffer.
func (s *BookingService) MarkDone(ctx context.Context, actor models.Actor, id uuid.UUID, endTime *models.TimeOfDay) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.onAppointment(ctx, id, nil, func(t *txn, appt *models.Appointment) error {
		if err := authorizeAgentAction(actor, appt); err != nil {
			return err
		}
		if !appt.Status.IsConfirmed() {
			return invalidTransition(appt, "complete")
		}
		if endTime != nil {
			if *endTime <= appt.StartTime || *endTime > models.MinutesPerDay {
				return fmt.Errorf("end time %s must be after start %s: %w", *endTime, appt.StartTime, utils.ErrInvalidPayload)
			}
			appt.EndTime = utils.Ptr(*endTime)
		}

		appt.Status = models.AppointmentStatusDone
		t.touchAppointment(appt)
		t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationAppointmentDone, appt,
			"Thanks for attending the viewing.")

		// The slot is in the past now, so nobody left on its waitlist can move up.
		slotAppts, err := t.slotAppointments(ctx, appt.SlotKey())
		if err != nil {
			return err
		}
		reason := utils.Ptr("viewing completed")
		for _, q := range queuedOnSlot(slotAppts) {
			if err := t.cancel(ctx, q, reason, false); err != nil {
				return err
			}
			t.notify(q.CustomerID, models.RoleCustomer, models.NotificationAppointmentCancelled, q,
				fmt.Sprintf("The viewing on %s at %s has taken place, so your waitlist place was released.",
					q.Date.Format("2006-01-02"), q.StartTime))
		}
		out = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logFields(actor, logrus.Fields{"appointment_id": id}).Info("Appointment marked done")
	return out.Clone(), nil
}

type CloseRequest struct {
	PropertyID    uuid.UUID
	Status        models.PropertyStatusType
	ActorAgentID  uuid.UUID
	AppointmentID *uuid.UUID
	SalePrice     *float64
}

// MarkSoldOrRented closes the listing. The appointment named in req (if
// any) becomes sold or rented; every other non-terminal appointment of the
// property is cancelled in the same txn.
func (s *BookingService) MarkSoldOrRented(ctx context.Context, actor models.Actor, req CloseRequest) (*models.Property, error) {
	if err := requireCapability(actor, models.CapAgentAct); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAgent && actor.ID != req.ActorAgentID {
		return nil, fmt.Errorf("agents close properties as themselves: %w", utils.ErrForbidden)
	}
	if req.Status != models.PropertyStatusSold && req.Status != models.PropertyStatusRented {
		return nil, fmt.Errorf("close status %q: %w", req.Status, utils.ErrInvalidPayload)
	}

	var out *models.Property
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		stored, err := s.apptRepo.ListByProperty(ctx, req.PropertyID)
		if err != nil {
			return nil, err
		}
		agentSet := agentsOf(stored)
		keys := []string{lock.PropertyKey(req.PropertyID), lock.AgentKey(req.ActorAgentID)}
		for id := range agentSet {
			keys = append(keys, lock.AgentKey(id))
		}

		err = s.run(ctx, keys, func(t *txn) error {
			appts, err := t.propertyAppointments(ctx, req.PropertyID)
			if err != nil {
				return err
			}
			for id := range agentsOf(appts) {
				if _, ok := agentSet[id]; !ok {
					return errLockSetChanged
				}
			}
			out, err = t.closeProperty(ctx, actor, req, appts)
			return err
		})
		if errors.Is(err, errLockSetChanged) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logFields(actor, logrus.Fields{"property_id": req.PropertyID, "status": req.Status}).Info("Property closed")
		return out.Clone(), nil
	}
	return nil, fmt.Errorf("property %s kept changing: %w", req.PropertyID, utils.ErrRowVersionConflict)
}

func (t *txn) closeProperty(ctx context.Context, actor models.Actor, req CloseRequest, appts []*models.Appointment) (*models.Property, error) {
	property, err := t.property(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.Status.IsClosed() {
		return nil, fmt.Errorf("property %s is already %s: %w", property.ID, property.Status, utils.ErrPropertyAlreadySold)
	}
	if _, err := t.agent(ctx, req.ActorAgentID); err != nil {
		return nil, err
	}

	var closing *models.Appointment
	if req.AppointmentID != nil {
		for _, a := range appts {
			if a.ID == *req.AppointmentID {
				closing = a
			}
		}
		if closing == nil {
			return nil, fmt.Errorf("appointment %s on property %s: %w", *req.AppointmentID, property.ID, utils.ErrNotFound)
		}
		if !closing.Status.IsConfirmed() && closing.Status != models.AppointmentStatusDone {
			return nil, invalidTransition(closing, "close with")
		}
		// Only the purchase-rights holder can buy or rent.
		if !closing.HasPurchaseRights {
			return nil, invalidTransition(closing, "close without purchase rights")
		}
	}

	before := *property
	property.Status = req.Status
	property.SoldByAgentID = utils.Ptr(req.ActorAgentID)
	property.SoldDate = utils.Ptr(t.now)
	property.SalePrice = req.SalePrice
	t.touchProperty(property)

	var cancelled []uuid.UUID
	reason := utils.Ptr(fmt.Sprintf("property %s", req.Status))
	for _, a := range appts {
		if closing != nil && a.ID == closing.ID {
			continue
		}
		if a.Status.IsTerminal() {
			continue
		}
		if err := t.cancel(ctx, a, reason, false); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, a.ID)
		t.notify(a.CustomerID, models.RoleCustomer, models.NotificationPropertyClosed, a,
			fmt.Sprintf("This property has been %s. Your viewing was cancelled.", req.Status))
		t.notify(a.AgentID, models.RoleAgent, models.NotificationAppointmentCancelled, a,
			fmt.Sprintf("Viewing cancelled because the property was %s.", req.Status))
	}

	if closing != nil {
		if req.Status == models.PropertyStatusSold {
			closing.Status = models.AppointmentStatusSold
		} else {
			closing.Status = models.AppointmentStatusRented
		}
		t.touchAppointment(closing)
	}
	if err := t.recomputePurchaseRights(ctx, property.ID); err != nil {
		return nil, err
	}

	details := map[string]any{
		"before":                 before,
		"after":                  property,
		"closing_appointment_id": req.AppointmentID,
		"cancelled_appointments": cancelled,
	}
	if err := t.audit(actor, models.AuditCloseProperty, property.ID, models.TargetProperty, details); err != nil {
		return nil, err
	}
	return property, nil
}

func agentsOf(appts []*models.Appointment) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, a := range appts {
		out[a.AgentID] = struct{}{}
	}
	return out
}
