package dtos

import "time"

type VerificationRequestedResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type ConfirmVerificationRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}
