package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
)

// purchaseQueue filters a property's appointments, already ordered by
// booking timestamp, down to those competing for purchase rights.
func purchaseQueue(propertyAppts []*models.Appointment) []*models.Appointment {
	out := []*models.Appointment{}
	for _, a := range propertyAppts {
		if a.Status.EligibleForPurchaseRights() {
			out = append(out, a)
		}
	}
	return out
}

// PriorityPosition is the customer's 0-based rank among distinct customers
// in the purchase queue, or -1 when they have no eligible appointment.
func PriorityPosition(propertyAppts []*models.Appointment, customerID uuid.UUID) int {
	seen := make(map[uuid.UUID]bool)
	for _, a := range purchaseQueue(propertyAppts) {
		if a.CustomerID == customerID {
			return len(seen)
		}
		seen[a.CustomerID] = true
	}
	return -1
}

// recomputePurchaseRights gives purchase rights to the earliest eligible
// appointment of the property and takes them from everyone else. It must
// run in the same txn as the change that triggered it.
func (t *txn) recomputePurchaseRights(ctx context.Context, propertyID uuid.UUID) error {
	appts, err := t.propertyAppointments(ctx, propertyID)
	if err != nil {
		return err
	}

	var holder *models.Appointment
	if q := purchaseQueue(appts); len(q) > 0 {
		holder = q[0]
	}

	for _, a := range appts {
		want := holder != nil && a.ID == holder.ID
		if a.HasPurchaseRights == want {
			continue
		}
		a.HasPurchaseRights = want
		t.touchAppointment(a)
		if t.isCreated(a.ID) {
			continue
		}
		switch {
		case want:
			t.notify(a.CustomerID, models.RoleCustomer, models.NotificationPurchaseRightsGranted, a,
				"You are now first in line to purchase this property.")
		case a.Status.EligibleForPurchaseRights():
			// Exits carry their own notice.
			t.notify(a.CustomerID, models.RoleCustomer, models.NotificationPurchaseRightsRevoked, a,
				"Another customer is now ahead of you. You may view but not purchase this property.")
		}
	}
	return nil
}

// GetPurchasePriorityQueue lists the property's eligible appointments in
// priority order; the first one holds purchase rights.
func (s *BookingService) GetPurchasePriorityQueue(ctx context.Context, actor models.Actor, propertyID uuid.UUID) ([]*models.Appointment, error) {
	if err := requireCapability(actor, models.CapViewQueues); err != nil {
		return nil, err
	}
	appts, err := s.apptRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return purchaseQueue(appts), nil
}

// GetPriorityPosition exposes PriorityPosition for one customer.
func (s *BookingService) GetPriorityPosition(ctx context.Context, propertyID, customerID uuid.UUID) (int, error) {
	appts, err := s.apptRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	return PriorityPosition(appts, customerID), nil
}

// RecomputePurchaseRights re-derives purchase rights for one property.
// Used after appointments are imported from outside the engine.
func (s *BookingService) RecomputePurchaseRights(ctx context.Context, propertyID uuid.UUID) error {
	return s.run(ctx, []string{lock.PropertyKey(propertyID)}, func(t *txn) error {
		return t.recomputePurchaseRights(ctx, propertyID)
	})
}
