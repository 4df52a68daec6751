package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/booking-service/internal/models"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context) ([]*models.Property, error)
	UpdateIfVersion(ctx context.Context, p *models.Property, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error
}

type propertyRepo struct {
	table *memoryTable[*models.Property]
}

func NewPropertyRepository() PropertyRepository {
	return &propertyRepo{table: newMemoryTable((*models.Property).Clone)}
}

func (r *propertyRepo) Create(_ context.Context, p *models.Property) error {
	r.table.insert(p)
	return nil
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.table.get(ctx, id.String())
}

func (r *propertyRepo) List(_ context.Context) ([]*models.Property, error) {
	return r.table.list(), nil
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return r.table.updateIfVersion(ctx, p, expected)
}

func (r *propertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return WithRetry(ctx, defaultMaxRetries, id.String(), r.table.get, r.UpdateIfVersion, mutate)
}
