package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// AlertService raises admin alerts for reassignments the customer has
// left unanswered for longer than cfg.ApprovalTimeout.
type AlertService struct {
	cfg       *config.Config
	clock     clock.Clock
	apptRepo  repositories.AppointmentRepository
	alertRepo repositories.AdminAlertRepository
}

func NewAlertService(
	cfg *config.Config,
	clk clock.Clock,
	apptRepo repositories.AppointmentRepository,
	alertRepo repositories.AdminAlertRepository,
) *AlertService {
	return &AlertService{cfg: cfg, clock: clk, apptRepo: apptRepo, alertRepo: alertRepo}
}

// RunApprovalTimeoutSweep raises at most one alert per appointment.
func (s *AlertService) RunApprovalTimeoutSweep(ctx context.Context) error {
	utils.Logger.Debug("Running approval-timeout sweep...")

	waiting, err := s.apptRepo.ListByStatus(ctx, models.AppointmentStatusPendingApproval)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	raised := 0
	for _, a := range waiting {
		since := a.UpdatedAt
		if a.PendingApprovalSince != nil {
			since = *a.PendingApprovalSince
		}
		if now.Sub(since) < s.cfg.ApprovalTimeout {
			continue
		}
		stored, err := s.alertRepo.CreateOnce(ctx, &models.AdminAlert{
			ID:            uuid.New(),
			Type:          models.AlertApprovalTimeout,
			AppointmentID: a.ID,
			Message: fmt.Sprintf("Customer %s has not answered the reassignment to agent %s since %s",
				a.CustomerID, a.AgentID, since.Format("2006-01-02 15:04:05")),
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if stored {
			raised++
			utils.Logger.WithFields(logrus.Fields{"appointment_id": a.ID}).Warn("Reassignment approval timed out")
		}
	}

	if raised > 0 {
		utils.Logger.Infof("Approval-timeout sweep raised %d alert(s)", raised)
	}
	return nil
}

func (s *AlertService) ListAlerts(ctx context.Context, actor models.Actor) ([]*models.AdminAlert, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("alerts are admin-only: %w", utils.ErrForbidden)
	}
	return s.alertRepo.List(ctx)
}
