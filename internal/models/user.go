package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer or admin account. Agents are stored separately.
type User struct {
	Versioned

	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Role        RoleType  `json:"role"`
	SMSVerified bool      `json:"sms_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) GetID() string {
	return u.ID.String()
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Contact is the minimal view of a party that delivery needs.
type Contact struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	SMSVerified bool      `json:"sms_verified"`
}
