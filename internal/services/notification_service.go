package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/constants"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// Notifier is the engine's outbound event sink. Emit must not block.
type Notifier interface {
	Emit(ctx context.Context, n models.Notification)
}

// NotificationService stores every notification and hands it to a
// background loop for SMS and email delivery.
type NotificationService struct {
	cfg       *config.Config
	repo      repositories.NotificationRepository
	directory UserDirectory

	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client

	queue chan models.Notification
}

func NewNotificationService(
	cfg *config.Config,
	repo repositories.NotificationRepository,
	directory UserDirectory,
) *NotificationService {
	var twClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	var sgClient *sendgrid.Client
	if cfg.SendGridAPIKey != "" {
		sgClient = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}

	return &NotificationService{
		cfg:            cfg,
		repo:           repo,
		directory:      directory,
		twilioClient:   twClient,
		sendgridClient: sgClient,
		queue:          make(chan models.Notification, constants.NotificationQueueSize),
	}
}

func (s *NotificationService) Emit(ctx context.Context, n models.Notification) {
	if err := s.repo.Create(ctx, &n); err != nil {
		utils.Logger.WithError(err).Error("Failed to store notification")
	}

	select {
	case s.queue <- n:
	default:
		utils.Logger.WithField("notification_id", n.ID).Warn("Delivery queue full, dropping delivery")
	}
}

func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID)
}

// Run delivers queued notifications until ctx is done.
func (s *NotificationService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-s.queue:
			s.deliver(ctx, n)
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, n models.Notification) {
	log := utils.Logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            n.Type,
	})

	contact, err := s.directory.Lookup(ctx, n.RecipientID)
	if err != nil || contact == nil {
		log.WithError(err).Warn("Recipient not found, skipping delivery")
		return
	}

	subject := subjectFor(n.Type)

	// ---------- Twilio SMS ----------
	if s.twilioClient != nil && contact.PhoneNumber != "" {
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(contact.PhoneNumber)
		params.SetFrom(s.cfg.TwilioFromPhone)
		params.SetBody(subject + " :: " + n.Message)
		if _, smsErr := s.twilioClient.Api.CreateMessage(params); smsErr != nil {
			log.WithError(smsErr).Warn("Failed to send notification SMS")
		}
	} else {
		log.Debug("Twilio client is nil or no phone, skipping SMS")
	}

	// ---------- SendGrid Email ----------
	if s.sendgridClient != nil && contact.Email != "" {
		from := mail.NewEmail(s.cfg.AppName, s.cfg.SendGridFromEmail)
		to := mail.NewEmail(contact.Name, contact.Email)
		msg := mail.NewSingleEmail(from, subject, to, n.Message, fmt.Sprintf("<p>%s</p>", n.Message))
		msg.TrackingSettings = &mail.TrackingSettings{
			ClickTracking: &mail.ClickTrackingSetting{
				Enable: utils.Ptr(false),
			},
		}
		if s.cfg.SendGridSandboxMode {
			ms := mail.NewMailSettings()
			ms.SetSandboxMode(mail.NewSetting(true))
			msg.MailSettings = ms
		}
		if _, sgErr := s.sendgridClient.Send(msg); sgErr != nil {
			log.WithError(sgErr).Warn("Email send failure")
		}
	} else {
		log.Debug("SendGrid client is nil or no email, skipping email")
	}
}

func subjectFor(t models.NotificationType) string {
	switch t {
	case models.NotificationBookingConfirmed:
		return "Viewing booked"
	case models.NotificationBookingWaitlisted:
		return "You're on the waitlist"
	case models.NotificationViewingOnly:
		return "Viewing only"
	case models.NotificationPurchaseRightsGranted:
		return "You now hold purchase rights"
	case models.NotificationPurchaseRightsRevoked:
		return "Purchase rights moved on"
	case models.NotificationWaitlistPromoted:
		return "Your viewing is confirmed"
	case models.NotificationNewBookingRequest:
		return "New viewing request"
	case models.NotificationAppointmentAccepted:
		return "Viewing accepted"
	case models.NotificationAppointmentRejected:
		return "Viewing declined"
	case models.NotificationAppointmentCancelled:
		return "Viewing cancelled"
	case models.NotificationAppointmentDone:
		return "Viewing completed"
	case models.NotificationPropertyClosed:
		return "Property no longer available"
	case models.NotificationAgentReassigned:
		return "Agent changed"
	case models.NotificationReassignmentApproval:
		return "New agent needs your approval"
	case models.NotificationMessageReceived:
		return "New message"
	}
	return "Booking update"
}
