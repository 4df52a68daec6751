package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/booking-service/internal/models"
)

// AppointmentRepository keeps three secondary indexes, each ordered by
// (BookingAttemptTimestamp, insertion order):
//
//   - per property, for the purchase-priority queue
//   - per slot key, for waitlists
//   - per agent and date, for conflict checks
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	UpdateIfVersion(ctx context.Context, a *models.Appointment, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Appointment) error) error

	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Appointment, error)
	ListBySlot(ctx context.Context, key models.SlotKey) ([]*models.Appointment, error)
	ListByAgentOnDate(ctx context.Context, agentID uuid.UUID, date time.Time) ([]*models.Appointment, error)
	ListByStatus(ctx context.Context, status models.AppointmentStatusType) ([]*models.Appointment, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Appointment, error)
}

type apptRow struct {
	appt *models.Appointment
	seq  int64
}

type appointmentRepo struct {
	mu      sync.RWMutex
	rows    map[uuid.UUID]*apptRow
	nextSeq int64

	byProperty  map[uuid.UUID][]uuid.UUID
	bySlot      map[string][]uuid.UUID
	byAgentDate map[string][]uuid.UUID
}

func NewAppointmentRepository() AppointmentRepository {
	return &appointmentRepo{
		rows:        make(map[uuid.UUID]*apptRow),
		byProperty:  make(map[uuid.UUID][]uuid.UUID),
		bySlot:      make(map[string][]uuid.UUID),
		byAgentDate: make(map[string][]uuid.UUID),
	}
}

func agentDateKey(agentID uuid.UUID, date time.Time) string {
	return agentID.String() + "|" + date.Format("2006-01-02")
}

func (r *appointmentRepo) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.SetRowVersion(1)
	r.nextSeq++
	row := &apptRow{appt: a.Clone(), seq: r.nextSeq}
	r.rows[a.ID] = row
	r.index(row)
	return nil
}

func (r *appointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return row.appt.Clone(), nil
}

func (r *appointmentRepo) UpdateIfVersion(_ context.Context, a *models.Appointment, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[a.ID]
	if !ok || row.appt.RowVersion != expected {
		return tagUnchanged, nil
	}

	r.unindex(row)
	a.SetRowVersion(expected + 1)
	row.appt = a.Clone()
	r.index(row)
	return tagUpdated, nil
}

func (r *appointmentRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Appointment) error) error {
	return WithRetry(ctx, defaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.Appointment, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion,
		mutate,
	)
}

func (r *appointmentRepo) ListByProperty(_ context.Context, propertyID uuid.UUID) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byProperty[propertyID]), nil
}

func (r *appointmentRepo) ListBySlot(_ context.Context, key models.SlotKey) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.bySlot[key.String()]), nil
}

func (r *appointmentRepo) ListByAgentOnDate(_ context.Context, agentID uuid.UUID, date time.Time) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byAgentDate[agentDateKey(agentID, date)]), nil
}

func (r *appointmentRepo) ListByStatus(_ context.Context, status models.AppointmentStatusType) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Appointment
	for _, row := range r.sortedRows() {
		if row.appt.Status == status {
			out = append(out, row.appt.Clone())
		}
	}
	return out, nil
}

func (r *appointmentRepo) ListByParticipant(_ context.Context, participantID uuid.UUID) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Appointment
	for _, row := range r.sortedRows() {
		if row.appt.CustomerID == participantID || row.appt.AgentID == participantID {
			out = append(out, row.appt.Clone())
		}
	}
	return out, nil
}

// ----- index maintenance (caller holds r.mu) -----

func (r *appointmentRepo) less(a, b *apptRow) bool {
	if !a.appt.BookingAttemptTimestamp.Equal(b.appt.BookingAttemptTimestamp) {
		return a.appt.BookingAttemptTimestamp.Before(b.appt.BookingAttemptTimestamp)
	}
	return a.seq < b.seq
}

func (r *appointmentRepo) insertOrdered(ids []uuid.UUID, row *apptRow) []uuid.UUID {
	i := sort.Search(len(ids), func(i int) bool {
		return r.less(row, r.rows[ids[i]])
	})
	ids = append(ids, uuid.Nil)
	copy(ids[i+1:], ids[i:])
	ids[i] = row.appt.ID
	return ids
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *appointmentRepo) index(row *apptRow) {
	a := row.appt
	r.byProperty[a.PropertyID] = r.insertOrdered(r.byProperty[a.PropertyID], row)
	sk := a.SlotKey().String()
	r.bySlot[sk] = r.insertOrdered(r.bySlot[sk], row)
	ak := agentDateKey(a.AgentID, a.Date)
	r.byAgentDate[ak] = r.insertOrdered(r.byAgentDate[ak], row)
}

func (r *appointmentRepo) unindex(row *apptRow) {
	a := row.appt
	r.byProperty[a.PropertyID] = remove(r.byProperty[a.PropertyID], a.ID)
	sk := a.SlotKey().String()
	r.bySlot[sk] = remove(r.bySlot[sk], a.ID)
	ak := agentDateKey(a.AgentID, a.Date)
	r.byAgentDate[ak] = remove(r.byAgentDate[ak], a.ID)
}

func (r *appointmentRepo) collect(ids []uuid.UUID) []*models.Appointment {
	out := make([]*models.Appointment, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rows[id].appt.Clone())
	}
	return out
}

func (r *appointmentRepo) sortedRows() []*apptRow {
	rows := make([]*apptRow, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return r.less(rows[i], rows[j]) })
	return rows
}
