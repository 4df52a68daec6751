package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/booking-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateIfVersion(ctx context.Context, u *models.User, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error
}

type userRepo struct {
	table *memoryTable[*models.User]
}

func NewUserRepository() UserRepository {
	return &userRepo{table: newMemoryTable((*models.User).Clone)}
}

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.table.insert(u)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.table.get(ctx, id.String())
}

func (r *userRepo) UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	return r.table.updateIfVersion(ctx, u, expected)
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return WithRetry(ctx, defaultMaxRetries, id.String(), r.table.get, r.UpdateIfVersion, mutate)
}
