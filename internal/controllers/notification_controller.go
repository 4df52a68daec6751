package controllers

import (
	"net/http"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

type NotificationController struct {
	notificationService *services.NotificationService
	alertService        *services.AlertService
}

func NewNotificationController(ns *services.NotificationService, as *services.AlertService) *NotificationController {
	return &NotificationController{notificationService: ns, alertService: as}
}

// GET /api/v1/notifications
func (c *NotificationController) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := c.notificationService.ListForRecipient(r.Context(), actor.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/v1/admin/alerts
func (c *NotificationController) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	alerts, err := c.alertService.ListAlerts(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*models.AdminAlert{}
	}
	utils.RespondWithJSON(w, http.StatusOK, alerts)
}
