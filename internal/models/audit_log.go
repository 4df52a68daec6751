package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditOverrideAgent AuditAction = "OVERRIDE_AGENT"
	AuditReassign      AuditAction = "REASSIGN_AFTER_REJECTION"
	AuditCloseProperty AuditAction = "CLOSE_PROPERTY"
)

type AuditTargetType string

const (
	TargetAppointment AuditTargetType = "APPOINTMENT"
	TargetProperty    AuditTargetType = "PROPERTY"
)

type AuditLog struct {
	ID         uuid.UUID        `json:"id"`
	ActorID    uuid.UUID        `json:"actor_id"`
	ActorRole  RoleType         `json:"actor_role"`
	Action     AuditAction      `json:"action"`
	TargetID   uuid.UUID        `json:"target_id"`
	TargetType AuditTargetType  `json:"target_type"`
	Details    *json.RawMessage `json:"details,omitempty"` // before/after snapshot
	CreatedAt  time.Time        `json:"created_at"`
}
