package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

type MessageController struct {
	bookingService *services.BookingService
	validate       *validator.Validate
}

func NewMessageController(bs *services.BookingService) *MessageController {
	return &MessageController{bookingService: bs, validate: validator.New()}
}

// GET /api/v1/appointments/{id}/can-message
func (c *MessageController) CanMessageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	allowed, err := c.bookingService.CanMessage(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CanMessageResponse{AppointmentID: id, Allowed: allowed})
}

// POST /api/v1/appointments/{id}/messages
func (c *MessageController) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dtos.SendMessageRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	msg, err := c.bookingService.SendMessage(r.Context(), actor, id, req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, msg)
}

// GET /api/v1/appointments/{id}/messages
func (c *MessageController) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	msgs, err := c.bookingService.ListMessages(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	utils.RespondWithJSON(w, http.StatusOK, msgs)
}
