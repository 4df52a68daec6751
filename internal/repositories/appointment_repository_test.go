package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
)

var testDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newAppt(prop, agent uuid.UUID, ts time.Time, start models.TimeOfDay) *models.Appointment {
	return &models.Appointment{
		ID:                      uuid.New(),
		PropertyID:              prop,
		CustomerID:              uuid.New(),
		AgentID:                 agent,
		Date:                    testDate,
		StartTime:               start,
		Status:                  models.AppointmentStatusPending,
		BookingAttemptTimestamp: ts,
	}
}

func ids(list []*models.Appointment) []uuid.UUID {
	out := make([]uuid.UUID, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestAppointmentRepo_PropertyIndexOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	prop, agent := uuid.New(), uuid.New()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	late := newAppt(prop, agent, base.Add(time.Minute), models.NewTimeOfDay(9, 0))
	early := newAppt(prop, agent, base, models.NewTimeOfDay(10, 0))
	tieA := newAppt(prop, agent, base.Add(time.Minute), models.NewTimeOfDay(11, 0))

	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, tieA))

	got, err := repo.ListByProperty(ctx, prop)
	require.NoError(t, err)
	// equal timestamps keep insertion order
	assert.Equal(t, []uuid.UUID{early.ID, late.ID, tieA.ID}, ids(got))
}

func TestAppointmentRepo_UpdateReindexesAgent(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	prop, oldAgent, newAgent := uuid.New(), uuid.New(), uuid.New()
	a := newAppt(prop, oldAgent, testDate, models.NewTimeOfDay(9, 0))
	require.NoError(t, repo.Create(ctx, a))

	err := repo.UpdateWithRetry(ctx, a.ID, func(cur *models.Appointment) error {
		cur.AgentID = newAgent
		return nil
	})
	require.NoError(t, err)

	old, _ := repo.ListByAgentOnDate(ctx, oldAgent, testDate)
	assert.Empty(t, old)
	moved, _ := repo.ListByAgentOnDate(ctx, newAgent, testDate)
	require.Len(t, moved, 1)
	assert.Equal(t, int64(2), moved[0].RowVersion)

	slot, _ := repo.ListBySlot(ctx, moved[0].SlotKey())
	assert.Len(t, slot, 1)
}

func TestAppointmentRepo_StaleVersionRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	a := newAppt(uuid.New(), uuid.New(), testDate, models.NewTimeOfDay(9, 0))
	require.NoError(t, repo.Create(ctx, a))

	stale, _ := repo.GetByID(ctx, a.ID)
	fresh, _ := repo.GetByID(ctx, a.ID)

	fresh.Status = models.AppointmentStatusAccepted
	tag, err := repo.UpdateIfVersion(ctx, fresh, fresh.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.RowsAffected())

	stale.Status = models.AppointmentStatusCancelled
	tag, err = repo.UpdateIfVersion(ctx, stale, stale.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tag.RowsAffected())

	got, _ := repo.GetByID(ctx, a.ID)
	assert.Equal(t, models.AppointmentStatusAccepted, got.Status)
}

func TestAppointmentRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	a := newAppt(uuid.New(), uuid.New(), testDate, models.NewTimeOfDay(9, 0))
	require.NoError(t, repo.Create(ctx, a))

	got, _ := repo.GetByID(ctx, a.ID)
	got.Status = models.AppointmentStatusCancelled

	again, _ := repo.GetByID(ctx, a.ID)
	assert.Equal(t, models.AppointmentStatusPending, again.Status)
}
