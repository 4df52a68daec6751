package dtos

import (
	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/services"
)

// Dates travel as "2006-01-02" and times of day as "15:04".

type CreateBookingRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	AgentID    uuid.UUID `json:"agent_id" validate:"required"`
	// Defaults to the caller. Admins must set it.
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Date       string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string     `json:"start_time" validate:"required,datetime=15:04"`
}

type ReasonRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type MarkDoneRequest struct {
	EndTime *string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
}

type ReassignRequest struct {
	// Nil lets the engine pick the nearest free agent.
	NewAgentID *uuid.UUID `json:"new_agent_id,omitempty"`
}

type OverrideAgentRequest struct {
	NewAgentID uuid.UUID `json:"new_agent_id" validate:"required"`
	Reason     string    `json:"reason" validate:"required,min=1,max=500"`
}

type ClosePropertyRequest struct {
	Status models.PropertyStatusType `json:"status" validate:"required,oneof=sold rented"`
	// Defaults to the calling agent. Admins must set it.
	AgentID       *uuid.UUID `json:"agent_id,omitempty"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	SalePrice     *float64   `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type AvailabilityResponse struct {
	AgentID    uuid.UUID                     `json:"agent_id"`
	StartTimes []services.AvailableStartTime `json:"start_times"`
}

type CanMessageResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Allowed       bool      `json:"allowed"`
}

type PriorityQueueResponse struct {
	PropertyID uuid.UUID             `json:"property_id"`
	Queue      []*models.Appointment `json:"queue"`
	// Set when the request named a customer.
	Position *int `json:"position,omitempty"`
}

type WaitlistResponse struct {
	Entries []*models.Appointment `json:"entries"`
}
