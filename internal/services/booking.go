package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

type BookingRequest struct {
	PropertyID uuid.UUID
	AgentID    uuid.UUID
	CustomerID uuid.UUID
	Date       time.Time
	StartTime  models.TimeOfDay
}

// ResolveAvailableStartTimes lists the agent's bookable starts in the
// booking window as of asOf (zero means now). With propertyID set, slots
// already held for that property are included when the new booking could
// join them.
func (s *BookingService) ResolveAvailableStartTimes(
	ctx context.Context,
	actor models.Actor,
	agentID uuid.UUID,
	propertyID *uuid.UUID,
	asOf time.Time,
) ([]AvailableStartTime, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	agent, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, utils.ErrNotFound)
	}

	var property *models.Property
	if propertyID != nil {
		if property, err = s.propRepo.GetByID(ctx, *propertyID); err != nil {
			return nil, err
		}
		if property == nil {
			return nil, fmt.Errorf("property %s: %w", *propertyID, utils.ErrNotFound)
		}
		if property.Status.IsClosed() {
			return []AvailableStartTime{}, nil
		}
	}

	today := s.agentToday(agent, asOf)
	variant := today.Format("2006-01-02")
	if property != nil {
		variant += ":" + property.ID.String()
	}
	// Concurrent misses for the same view share one computation.
	v, err, _ := s.resolveGroup.Do(agentID.String()+"|"+variant, func() (any, error) {
		cached, gen, ok := s.cache.Get(ctx, agentID, variant)
		if ok {
			return cached, nil
		}
		appts, err := s.appointmentsInWindow(ctx, agentID, today)
		if err != nil {
			return nil, err
		}
		out := StartTimes(agent, property, appts, s.rules(), today)
		s.cache.Set(ctx, agentID, gen, variant, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]AvailableStartTime)
	out := make([]AvailableStartTime, len(shared))
	copy(out, shared)

	s.logFields(actor, logrus.Fields{"agent_id": agentID, "count": len(out)}).Debug("Resolved availability")
	return out, nil
}

func (s *BookingService) appointmentsInWindow(ctx context.Context, agentID uuid.UUID, today time.Time) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for d := 0; d <= s.cfg.BookingWindowDays; d++ {
		day, err := s.apptRepo.ListByAgentOnDate(ctx, agentID, today.AddDate(0, 0, d))
		if err != nil {
			return nil, err
		}
		out = append(out, day...)
	}
	return out, nil
}

// CreateBooking books req for the customer. On an exclusive property whose
// slot is already held the customer joins the waitlist instead.
func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, req BookingRequest) (*models.Appointment, error) {
	if err := requireCapability(actor, models.CapBook); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCustomer && actor.ID != req.CustomerID {
		return nil, fmt.Errorf("customers book for themselves: %w", utils.ErrForbidden)
	}

	customer, err := s.directory.Lookup(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s: %w", req.CustomerID, utils.ErrNotFound)
	}

	date := utils.DateOnly(req.Date)
	unavailable := func(reason string) error {
		return &utils.SlotUnavailableError{AgentID: req.AgentID, Date: date, StartTime: req.StartTime.String(), Reason: reason}
	}

	var created *models.Appointment
	keys := []string{lock.AgentKey(req.AgentID), lock.PropertyKey(req.PropertyID)}
	err = s.run(ctx, keys, func(t *txn) error {
		property, err := t.property(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		if property.Status.IsClosed() {
			return fmt.Errorf("property %s is %s: %w", property.ID, property.Status, utils.ErrPropertyAlreadySold)
		}

		agent, err := t.agent(ctx, req.AgentID)
		if err != nil {
			return err
		}
		if agent.IsOnVacation {
			return unavailable(reasonVacation)
		}
		idx := agent.FindSlot(date, req.StartTime)
		if idx < 0 {
			return unavailable(reasonNoSlot)
		}

		agentAppts, err := t.agentAppointments(ctx, agent.ID, date)
		if err != nil {
			return err
		}
		today := s.agentToday(agent, t.now)
		verdict := EvaluateSlot(agent, &agent.Availability[idx], property, agentAppts, s.rules(), today)
		if !verdict.Bookable {
			return unavailable(verdict.Reason)
		}
		for _, h := range verdict.Holders {
			if h.CustomerID == req.CustomerID {
				return unavailable("customer already booked this slot")
			}
		}

		slot := agent.Availability[idx]
		appt := &models.Appointment{
			ID:                      uuid.New(),
			PropertyID:              property.ID,
			CustomerID:              req.CustomerID,
			AgentID:                 agent.ID,
			Date:                    date,
			StartTime:               slot.StartTime,
			EndTime:                 utils.Ptr(slot.EndTime),
			Status:                  models.AppointmentStatusPending,
			HasViewingRights:        true,
			BookingAttemptTimestamp: t.now,
		}

		if property.IsExclusive {
			slotAppts, err := t.slotAppointments(ctx, appt.SlotKey())
			if err != nil {
				return err
			}
			if pos := nextQueuePosition(slotAppts); pos > 0 {
				appt.Status = models.AppointmentStatusQueued
				appt.HasViewingRights = false
				appt.QueuePosition = utils.Ptr(pos)
				appt.WasHighDemandSlot = true
				for _, h := range activeOnSlot(slotAppts) {
					if !h.WasHighDemandSlot {
						h.WasHighDemandSlot = true
						t.touchAppointment(h)
					}
				}
			}
		} else if len(verdict.Holders) > 0 {
			appt.WasHighDemandSlot = true
		}

		t.create(appt)
		if !slot.IsBooked && appt.Status != models.AppointmentStatusQueued {
			t.bookSlot(agent, idx, appt.ID)
		}

		if property.FirstViewerCustomerID == nil {
			property.FirstViewerCustomerID = utils.Ptr(req.CustomerID)
			property.FirstViewerTimestamp = utils.Ptr(t.now)
			t.touchProperty(property)
		}

		if err := t.recomputePurchaseRights(ctx, property.ID); err != nil {
			return err
		}

		if appt.Status == models.AppointmentStatusQueued {
			t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationBookingWaitlisted, appt,
				fmt.Sprintf("This slot is taken. You are number %d in line.", *appt.QueuePosition))
		} else {
			t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationBookingConfirmed, appt,
				fmt.Sprintf("Viewing requested for %s at %s.", date.Format("2006-01-02"), appt.StartTime))
			if !appt.HasPurchaseRights {
				t.notify(appt.CustomerID, models.RoleCustomer, models.NotificationViewingOnly, appt,
					"Another customer booked this property first. You may view it but cannot purchase unless they withdraw.")
			}
			t.notify(appt.AgentID, models.RoleAgent, models.NotificationNewBookingRequest, appt,
				fmt.Sprintf("New viewing request for %s at %s.", date.Format("2006-01-02"), appt.StartTime))
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrSlotUnavailable) {
			s.logFields(actor, logrus.Fields{"agent_id": req.AgentID, "property_id": req.PropertyID}).
				WithError(err).Info("Booking rejected, slot unavailable")
		}
		return nil, err
	}

	s.logFields(actor, logrus.Fields{
		"appointment_id": created.ID,
		"status":         created.Status,
		"property_id":    created.PropertyID,
	}).Info("Booking created")
	return created.Clone(), nil
}
