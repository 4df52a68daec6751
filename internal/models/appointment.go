package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatusType string

const (
	AppointmentStatusQueued          AppointmentStatusType = "queued"
	AppointmentStatusPending         AppointmentStatusType = "pending"
	AppointmentStatusPendingApproval AppointmentStatusType = "pending_approval"
	AppointmentStatusAccepted        AppointmentStatusType = "accepted"
	AppointmentStatusRejected        AppointmentStatusType = "rejected"
	AppointmentStatusDone            AppointmentStatusType = "done"
	AppointmentStatusSold            AppointmentStatusType = "sold"
	AppointmentStatusRented          AppointmentStatusType = "rented"
	AppointmentStatusCancelled       AppointmentStatusType = "cancelled"

	// Legacy spellings still found in imported records. "scheduled" behaves
	// like accepted and "completed" like done.
	AppointmentStatusScheduled AppointmentStatusType = "scheduled"
	AppointmentStatusCompleted AppointmentStatusType = "completed"
)

// CountsForConflicts is false only for cancelled and rejected appointments.
func (s AppointmentStatusType) CountsForConflicts() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusRejected
}

func (s AppointmentStatusType) IsTerminal() bool {
	switch s {
	case AppointmentStatusRejected,
		AppointmentStatusDone,
		AppointmentStatusCompleted,
		AppointmentStatusSold,
		AppointmentStatusRented,
		AppointmentStatusCancelled:
		return true
	}
	return false
}

func (s AppointmentStatusType) IsViewingFinished() bool {
	return s == AppointmentStatusDone || s == AppointmentStatusCompleted
}

func (s AppointmentStatusType) IsConfirmed() bool {
	return s == AppointmentStatusAccepted || s == AppointmentStatusScheduled
}

// EligibleForPurchaseRights excludes exits and waitlisted bookings.
func (s AppointmentStatusType) EligibleForPurchaseRights() bool {
	return s.CountsForConflicts() && s != AppointmentStatusQueued
}

type Appointment struct {
	Versioned

	ID         uuid.UUID             `json:"id"`
	PropertyID uuid.UUID             `json:"property_id"`
	CustomerID uuid.UUID             `json:"customer_id"`
	AgentID    uuid.UUID             `json:"agent_id"`
	Date       time.Time             `json:"date"`
	StartTime  TimeOfDay             `json:"start_time"`
	EndTime    *TimeOfDay            `json:"end_time,omitempty"`
	Status     AppointmentStatusType `json:"status"`

	HasViewingRights  bool `json:"has_viewing_rights"`
	HasPurchaseRights bool `json:"has_purchase_rights"`
	QueuePosition     *int `json:"queue_position,omitempty"`

	// Second precision. The only ordering key for purchase priority.
	BookingAttemptTimestamp time.Time `json:"booking_attempt_timestamp"`

	PreviousAgentID       *uuid.UUID `json:"previous_agent_id,omitempty"`
	PreviousAppointmentID *uuid.UUID `json:"previous_appointment_id,omitempty"`
	WasHighDemandSlot     bool       `json:"was_high_demand_slot"`
	HoldsSlot             bool       `json:"holds_slot"`
	RejectionReason       *string    `json:"rejection_reason,omitempty"`
	CancellationReason    *string    `json:"cancellation_reason,omitempty"`
	PendingApprovalSince  *time.Time `json:"pending_approval_since,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Appointment) GetID() string {
	return a.ID.String()
}

func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	cp := *a
	cp.EndTime = clonePtr(a.EndTime)
	cp.QueuePosition = clonePtr(a.QueuePosition)
	cp.PreviousAgentID = clonePtr(a.PreviousAgentID)
	cp.PreviousAppointmentID = clonePtr(a.PreviousAppointmentID)
	cp.RejectionReason = clonePtr(a.RejectionReason)
	cp.CancellationReason = clonePtr(a.CancellationReason)
	cp.PendingApprovalSince = clonePtr(a.PendingApprovalSince)
	return &cp
}

// SlotKey identifies a waitlist: one property viewed with one agent at one start.
type SlotKey struct {
	PropertyID uuid.UUID
	AgentID    uuid.UUID
	Date       time.Time
	StartTime  TimeOfDay
}

func (a *Appointment) SlotKey() SlotKey {
	return SlotKey{PropertyID: a.PropertyID, AgentID: a.AgentID, Date: a.Date, StartTime: a.StartTime}
}

func (k SlotKey) String() string {
	return k.PropertyID.String() + "|" + k.AgentID.String() + "|" + k.Date.Format("2006-01-02") + "|" + k.StartTime.String()
}
