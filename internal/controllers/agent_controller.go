package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

// AgentController serves the agent's own calendar. Admins may act on any
// agent.
type AgentController struct {
	agentService *services.AgentService
	validate     *validator.Validate
}

func NewAgentController(as *services.AgentService) *AgentController {
	return &AgentController{agentService: as, validate: validator.New()}
}

// POST /api/v1/agents/{agent_id}/slots
func (c *AgentController) AddSlotHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	agentID, err := pathUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dtos.AddSlotRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		respondError(w, fmt.Errorf("end_time: %w", utils.ErrInvalidPayload))
		return
	}

	slot, err := c.agentService.AddSlot(r.Context(), actor, agentID, date, start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, slot)
}

// POST /api/v1/agents/{agent_id}/unavailable
func (c *AgentController) AddUnavailablePeriodHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	agentID, err := pathUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dtos.AddUnavailablePeriodRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		respondError(w, fmt.Errorf("end_time: %w", utils.ErrInvalidPayload))
		return
	}

	period, err := c.agentService.AddUnavailablePeriod(r.Context(), actor, agentID, date, start, end, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, period)
}

// DELETE /api/v1/agents/{agent_id}/unavailable/{period_id}
func (c *AgentController) RemoveUnavailablePeriodHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	agentID, err := pathUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	periodID, err := pathUUID(r, "period_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := c.agentService.RemoveUnavailablePeriod(r.Context(), actor, agentID, periodID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/agents/{agent_id}/vacation
func (c *AgentController) SetVacationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	agentID, err := pathUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dtos.SetVacationRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	agent, err := c.agentService.SetVacation(r.Context(), actor, agentID, *req.OnVacation)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.Logger.WithFields(logrus.Fields{
		"agent_id":    agentID,
		"on_vacation": agent.IsOnVacation,
	}).Info("Vacation flag updated")
	utils.RespondWithJSON(w, http.StatusOK, agent)
}
