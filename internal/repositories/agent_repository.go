package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/booking-service/internal/models"
)

// AgentRepository stores agents together with the slots and unavailable
// periods they own.
type AgentRepository interface {
	Create(ctx context.Context, a *models.Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	List(ctx context.Context) ([]*models.Agent, error)
	UpdateIfVersion(ctx context.Context, a *models.Agent, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Agent) error) error
}

type agentRepo struct {
	table *memoryTable[*models.Agent]
}

func NewAgentRepository() AgentRepository {
	return &agentRepo{table: newMemoryTable((*models.Agent).Clone)}
}

func (r *agentRepo) Create(_ context.Context, a *models.Agent) error {
	r.table.insert(a)
	return nil
}

func (r *agentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	return r.table.get(ctx, id.String())
}

func (r *agentRepo) List(_ context.Context) ([]*models.Agent, error) {
	return r.table.list(), nil
}

func (r *agentRepo) UpdateIfVersion(ctx context.Context, a *models.Agent, expected int64) (pgconn.CommandTag, error) {
	return r.table.updateIfVersion(ctx, a, expected)
}

func (r *agentRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Agent) error) error {
	return WithRetry(ctx, defaultMaxRetries, id.String(), r.table.get, r.UpdateIfVersion, mutate)
}
