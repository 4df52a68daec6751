package models

import "github.com/google/uuid"

type RoleType string

const (
	RoleCustomer RoleType = "customer"
	RoleAgent    RoleType = "agent"
	RoleAdmin    RoleType = "admin"
	// RoleSystem is used for sweeps and promotions the engine performs itself.
	RoleSystem RoleType = "system"
)

func (r RoleType) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

type Capability string

const (
	CapBook        Capability = "book"
	CapCancelOwn   Capability = "cancel_own"
	CapAgentAct    Capability = "agent_act"
	CapOverride    Capability = "override"
	CapManageAgent Capability = "manage_agent"
	CapViewQueues  Capability = "view_queues"
	CapMessage     Capability = "message"
)

var roleCapabilities = map[RoleType]map[Capability]bool{
	RoleCustomer: {
		CapBook:      true,
		CapCancelOwn: true,
		CapMessage:   true,
	},
	RoleAgent: {
		CapAgentAct:    true,
		CapManageAgent: true,
		CapViewQueues:  true,
		CapMessage:     true,
	},
	RoleAdmin: {
		CapBook:        true,
		CapCancelOwn:   true,
		CapAgentAct:    true,
		CapOverride:    true,
		CapManageAgent: true,
		CapViewQueues:  true,
	},
}

// Actor is whoever is calling into the engine.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role RoleType  `json:"role"`
}

func (a Actor) Can(c Capability) bool {
	if a.Role == RoleSystem {
		return true
	}
	return roleCapabilities[a.Role][c]
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// SystemActor is used for background work.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: RoleSystem}
}
