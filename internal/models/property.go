package models

import (
	"time"

	"github.com/google/uuid"
)

type PropertyStatusType string

const (
	PropertyStatusAvailable PropertyStatusType = "available"
	PropertyStatusPending   PropertyStatusType = "pending"
	PropertyStatusSold      PropertyStatusType = "sold"
	PropertyStatusRented    PropertyStatusType = "rented"
)

// IsClosed reports whether the listing no longer accepts viewings.
func (s PropertyStatusType) IsClosed() bool {
	return s == PropertyStatusSold || s == PropertyStatusRented
}

type Property struct {
	Versioned

	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Address     string             `json:"address"`
	City        string             `json:"city"`
	State       string             `json:"state"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	Status      PropertyStatusType `json:"status"`
	IsExclusive bool               `json:"is_exclusive"`

	// Historical record of the first customer to book. Written once and
	// never consulted when purchase rights are derived.
	FirstViewerCustomerID *uuid.UUID `json:"first_viewer_customer_id,omitempty"`
	FirstViewerTimestamp  *time.Time `json:"first_viewer_timestamp,omitempty"`

	AssignedAgentID *uuid.UUID `json:"assigned_agent_id,omitempty"`
	SoldByAgentID   *uuid.UUID `json:"sold_by_agent_id,omitempty"`
	SoldDate        *time.Time `json:"sold_date,omitempty"`
	SalePrice       *float64   `json:"sale_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Property) GetID() string {
	return p.ID.String()
}

func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	cp := *p
	cp.FirstViewerCustomerID = clonePtr(p.FirstViewerCustomerID)
	cp.FirstViewerTimestamp = clonePtr(p.FirstViewerTimestamp)
	cp.AssignedAgentID = clonePtr(p.AssignedAgentID)
	cp.SoldByAgentID = clonePtr(p.SoldByAgentID)
	cp.SoldDate = clonePtr(p.SoldDate)
	cp.SalePrice = clonePtr(p.SalePrice)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
