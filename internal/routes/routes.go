package routes

const (
	// Health
	Health = "/health"

	// Booking
	AgentAvailability = "/api/v1/agents/{agent_id}/availability"
	Bookings          = "/api/v1/bookings"
	Waitlist          = "/api/v1/waitlist"

	// Appointment lifecycle
	Appointment         = "/api/v1/appointments/{id}"
	AppointmentAccept   = "/api/v1/appointments/{id}/accept"
	AppointmentReject   = "/api/v1/appointments/{id}/reject"
	AppointmentCancel   = "/api/v1/appointments/{id}/cancel"
	AppointmentDone     = "/api/v1/appointments/{id}/done"
	AppointmentReassign = "/api/v1/appointments/{id}/reassign"
	AppointmentApprove  = "/api/v1/appointments/{id}/approve"
	AppointmentDecline  = "/api/v1/appointments/{id}/decline"

	// Messaging
	AppointmentMessages   = "/api/v1/appointments/{id}/messages"
	AppointmentCanMessage = "/api/v1/appointments/{id}/can-message"

	// Properties
	PropertyClose         = "/api/v1/properties/{property_id}/close"
	PropertyPriorityQueue = "/api/v1/properties/{property_id}/priority-queue"

	// Agent self-service
	AgentSlots             = "/api/v1/agents/{agent_id}/slots"
	AgentUnavailable       = "/api/v1/agents/{agent_id}/unavailable"
	AgentUnavailablePeriod = "/api/v1/agents/{agent_id}/unavailable/{period_id}"
	AgentVacation          = "/api/v1/agents/{agent_id}/vacation"

	// Phone verification
	VerificationRequest = "/api/v1/verification/request"
	VerificationConfirm = "/api/v1/verification/confirm"

	Notifications = "/api/v1/notifications"

	// Admin endpoints
	AdminOverride = "/api/v1/admin/appointments/{id}/override"
	AdminAlerts   = "/api/v1/admin/alerts"
)
