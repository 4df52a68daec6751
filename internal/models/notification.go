package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingConfirmed      NotificationType = "booking_confirmed"
	NotificationBookingWaitlisted     NotificationType = "booking_waitlisted"
	NotificationViewingOnly           NotificationType = "viewing_only"
	NotificationPurchaseRightsGranted NotificationType = "purchase_rights_granted"
	NotificationPurchaseRightsRevoked NotificationType = "purchase_rights_revoked"
	NotificationWaitlistPromoted      NotificationType = "waitlist_promoted"
	NotificationNewBookingRequest     NotificationType = "new_booking_request"
	NotificationAppointmentAccepted   NotificationType = "appointment_accepted"
	NotificationAppointmentRejected   NotificationType = "appointment_rejected"
	NotificationAppointmentCancelled  NotificationType = "appointment_cancelled"
	NotificationAppointmentDone       NotificationType = "appointment_done"
	NotificationPropertyClosed        NotificationType = "property_closed"
	NotificationAgentReassigned       NotificationType = "agent_reassigned"
	NotificationReassignmentApproval  NotificationType = "reassignment_pending_approval"
	NotificationMessageReceived       NotificationType = "message_received"
)

// Notification is write-once. Delivery state lives on the delivery side.
type Notification struct {
	ID            uuid.UUID        `json:"id"`
	RecipientID   uuid.UUID        `json:"recipient_id"`
	RecipientRole RoleType         `json:"recipient_role"`
	Type          NotificationType `json:"type"`
	AppointmentID *uuid.UUID       `json:"appointment_id,omitempty"`
	PropertyID    *uuid.UUID       `json:"property_id,omitempty"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
}

type AdminAlertType string

const (
	AlertApprovalTimeout AdminAlertType = "approval_timeout"
)

type AdminAlert struct {
	ID            uuid.UUID      `json:"id"`
	Type          AdminAlertType `json:"type"`
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Message       string         `json:"message"`
	CreatedAt     time.Time      `json:"created_at"`
}
