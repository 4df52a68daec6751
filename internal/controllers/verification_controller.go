package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

type VerificationController struct {
	verificationService *services.VerificationService
	validate            *validator.Validate
}

func NewVerificationController(vs *services.VerificationService) *VerificationController {
	return &VerificationController{verificationService: vs, validate: validator.New()}
}

// POST /api/v1/verification/request
func (c *VerificationController) RequestCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	expiresAt, err := c.verificationService.RequestCode(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, dtos.VerificationRequestedResponse{ExpiresAt: expiresAt})
}

// POST /api/v1/verification/confirm
func (c *VerificationController) ConfirmCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req dtos.ConfirmVerificationRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	if err := c.verificationService.ConfirmCode(r.Context(), actor, req.Code); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
