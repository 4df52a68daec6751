package models

import (
	"time"

	"github.com/google/uuid"
)

// SMSVerificationCode backs the phone verification stub. Codes are logged,
// not sent.
type SMSVerificationCode struct {
	ID               uuid.UUID
	SubjectID        uuid.UUID
	SubjectRole      RoleType
	VerificationCode string
	ExpiresAt        time.Time
	Attempts         int
	Verified         bool
	VerifiedAt       *time.Time
	CreatedAt        time.Time
}
