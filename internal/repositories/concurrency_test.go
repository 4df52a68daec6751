package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func TestWithRetry_NotFound(t *testing.T) {
	repo := NewPropertyRepository()
	err := repo.UpdateWithRetry(context.Background(), uuid.New(), func(*models.Property) error { return nil })
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestWithRetry_MutateErrorAborts(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository()
	a := &models.Agent{ID: uuid.New(), Name: "Ana"}
	require.NoError(t, repo.Create(ctx, a))

	boom := errors.New("boom")
	err := repo.UpdateWithRetry(ctx, a.ID, func(cur *models.Agent) error {
		cur.Name = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := repo.GetByID(ctx, a.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, int64(1), got.RowVersion)
}

func TestMemoryTable_AgentSlotsAreCopied(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository()
	a := &models.Agent{ID: uuid.New(), Availability: []models.AvailabilitySlot{{ID: uuid.New()}}}
	require.NoError(t, repo.Create(ctx, a))

	got, _ := repo.GetByID(ctx, a.ID)
	got.Availability[0].IsBooked = true

	again, _ := repo.GetByID(ctx, a.ID)
	assert.False(t, again.Availability[0].IsBooked)
}

type failingAuditRepo struct{}

func (failingAuditRepo) Create(context.Context, *models.AuditLog) error   { return errors.New("db down") }
func (failingAuditRepo) List(context.Context) ([]*models.AuditLog, error) { return nil, nil }

func TestMirroredAuditLog_PrimaryFailureSkipsMemory(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryAuditLogRepository()
	repo := NewMirroredAuditLogRepository(failingAuditRepo{}, mem)

	err := repo.Create(ctx, &models.AuditLog{ID: uuid.New()})
	require.Error(t, err)

	list, _ := repo.List(ctx)
	assert.Empty(t, list)
}

func TestAdminAlertRepo_CreateOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminAlertRepository()
	apptID := uuid.New()

	ok, err := repo.CreateOnce(ctx, &models.AdminAlert{ID: uuid.New(), Type: models.AlertApprovalTimeout, AppointmentID: apptID})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CreateOnce(ctx, &models.AdminAlert{ID: uuid.New(), Type: models.AlertApprovalTimeout, AppointmentID: apptID})
	require.NoError(t, err)
	assert.False(t, ok)

	list, _ := repo.List(ctx)
	assert.Len(t, list, 1)
}
