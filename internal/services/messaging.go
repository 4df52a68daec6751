package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

// MessagingAllowed is the messaging gate: the viewing must be confirmed and
// both parties phone-verified. It is evaluated fresh on every call.
func MessagingAllowed(appt *models.Appointment, customer, agent *models.Contact) bool {
	if appt == nil || customer == nil || agent == nil {
		return false
	}
	return appt.Status.IsConfirmed() && customer.SMSVerified && agent.SMSVerified
}

// CanMessage looks up the current parties of the appointment and applies
// MessagingAllowed.
func (s *BookingService) CanMessage(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	appt, customer, agent, err := s.messagingParties(ctx, appointmentID)
	if err != nil {
		return false, err
	}
	return MessagingAllowed(appt, customer, agent), nil
}

func (s *BookingService) messagingParties(ctx context.Context, appointmentID uuid.UUID) (*models.Appointment, *models.Contact, *models.Contact, error) {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if appt == nil {
		return nil, nil, nil, fmt.Errorf("appointment %s: %w", appointmentID, utils.ErrNotFound)
	}
	customer, err := s.directory.Lookup(ctx, appt.CustomerID)
	if err != nil {
		return nil, nil, nil, err
	}
	agent, err := s.directory.Lookup(ctx, appt.AgentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return appt, customer, agent, nil
}

// SendMessage relays body between the two parties of an appointment.
func (s *BookingService) SendMessage(ctx context.Context, actor models.Actor, appointmentID uuid.UUID, body string) (*models.Message, error) {
	if err := requireCapability(actor, models.CapMessage); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty message: %w", utils.ErrInvalidPayload)
	}

	appt, customer, agent, err := s.messagingParties(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	var recipientID uuid.UUID
	var recipientRole models.RoleType
	switch actor.ID {
	case appt.CustomerID:
		recipientID, recipientRole = appt.AgentID, models.RoleAgent
	case appt.AgentID:
		recipientID, recipientRole = appt.CustomerID, models.RoleCustomer
	default:
		return nil, fmt.Errorf("not a party to appointment %s: %w", appt.ID, utils.ErrForbidden)
	}

	if !MessagingAllowed(appt, customer, agent) {
		return nil, fmt.Errorf("appointment %s: %w", appt.ID, utils.ErrMessagingNotAllowed)
	}

	now := s.clock.Now()
	msg := &models.Message{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		SenderID:      actor.ID,
		RecipientID:   recipientID,
		Body:          body,
		CreatedAt:     now,
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, models.Notification{
		ID:            uuid.New(),
		RecipientID:   recipientID,
		RecipientRole: recipientRole,
		Type:          models.NotificationMessageReceived,
		AppointmentID: utils.Ptr(appt.ID),
		PropertyID:    utils.Ptr(appt.PropertyID),
		Message:       body,
		CreatedAt:     now,
	})

	s.logFields(actor, logrus.Fields{"appointment_id": appt.ID, "message_id": msg.ID}).Debug("Message sent")
	return msg, nil
}

// ListMessages returns the conversation of an appointment to its parties.
func (s *BookingService) ListMessages(ctx context.Context, actor models.Actor, appointmentID uuid.UUID) ([]*models.Message, error) {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, utils.ErrNotFound)
	}
	if !actor.IsAdmin() && actor.ID != appt.CustomerID && actor.ID != appt.AgentID {
		return nil, fmt.Errorf("not a party to appointment %s: %w", appt.ID, utils.ErrForbidden)
	}
	return s.msgRepo.ListByAppointment(ctx, appointmentID)
}

// GetAppointment returns one appointment to its parties or an admin.
func (s *BookingService) GetAppointment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, utils.ErrNotFound)
	}
	if !actor.IsAdmin() && actor.ID != appt.CustomerID && actor.ID != appt.AgentID {
		return nil, fmt.Errorf("not a party to appointment %s: %w", id, utils.ErrForbidden)
	}
	return appt, nil
}
