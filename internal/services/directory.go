package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
)

// UserDirectory resolves any party (customer, admin or agent) to contact
// details and verification state.
type UserDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*models.Contact, error)
}

type repoDirectory struct {
	userRepo  repositories.UserRepository
	agentRepo repositories.AgentRepository
}

func NewUserDirectory(userRepo repositories.UserRepository, agentRepo repositories.AgentRepository) UserDirectory {
	return &repoDirectory{userRepo: userRepo, agentRepo: agentRepo}
}

// Lookup returns nil, nil when id is unknown.
func (d *repoDirectory) Lookup(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	u, err := d.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return &models.Contact{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			SMSVerified: u.SMSVerified,
		}, nil
	}

	a, err := d.agentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return &models.Contact{
			ID:          a.ID,
			Name:        a.Name,
			Email:       a.Email,
			PhoneNumber: a.PhoneNumber,
			SMSVerified: a.SMSVerified,
		}, nil
	}
	return nil, nil
}
