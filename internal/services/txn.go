package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

/*
txn is a unit of work built while the caller holds the relevant keyed
locks. Entities are loaded once as private copies; every read through the
txn sees the txn's own pending changes. commit writes audit entries first,
so a failing audit store aborts the whole operation before any entity is
touched, then persists entities and finally emits notifications.
*/
type txn struct {
	s   *BookingService
	now time.Time

	props  map[uuid.UUID]*models.Property
	agents map[uuid.UUID]*models.Agent
	appts  map[uuid.UUID]*models.Appointment

	dirtyProps  map[uuid.UUID]bool
	dirtyAgents map[uuid.UUID]bool
	dirtyAppts  map[uuid.UUID]bool
	created     []*models.Appointment

	audits []*models.AuditLog
	events []models.Notification
}

func (s *BookingService) newTxn() *txn {
	return &txn{
		s:           s,
		now:         s.clock.Now(),
		props:       make(map[uuid.UUID]*models.Property),
		agents:      make(map[uuid.UUID]*models.Agent),
		appts:       make(map[uuid.UUID]*models.Appointment),
		dirtyProps:  make(map[uuid.UUID]bool),
		dirtyAgents: make(map[uuid.UUID]bool),
		dirtyAppts:  make(map[uuid.UUID]bool),
	}
}

// ----- loading -----

func (t *txn) property(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	if p, ok := t.props[id]; ok {
		return p, nil
	}
	p, err := t.s.propRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("property %s: %w", id, utils.ErrNotFound)
	}
	t.props[id] = p
	return p, nil
}

func (t *txn) agent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	if a, ok := t.agents[id]; ok {
		return a, nil
	}
	a, err := t.s.agentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("agent %s: %w", id, utils.ErrNotFound)
	}
	t.agents[id] = a
	return a, nil
}

func (t *txn) appointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if a, ok := t.appts[id]; ok {
		return a, nil
	}
	a, err := t.s.apptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, utils.ErrNotFound)
	}
	t.appts[id] = a
	return a, nil
}

// merge swaps stored rows for the txn's copies, adds created rows, keeps
// those matching keep, and orders by booking timestamp (stable).
func (t *txn) merge(stored []*models.Appointment, keep func(*models.Appointment) bool) []*models.Appointment {
	out := make([]*models.Appointment, 0, len(stored)+len(t.created))
	for _, a := range stored {
		if local, ok := t.appts[a.ID]; ok {
			a = local
		} else {
			t.appts[a.ID] = a
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	for _, a := range t.created {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BookingAttemptTimestamp.Before(out[j].BookingAttemptTimestamp)
	})
	return out
}

func (t *txn) propertyAppointments(ctx context.Context, propertyID uuid.UUID) ([]*models.Appointment, error) {
	stored, err := t.s.apptRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return t.merge(stored, func(a *models.Appointment) bool { return a.PropertyID == propertyID }), nil
}

func (t *txn) slotAppointments(ctx context.Context, key models.SlotKey) ([]*models.Appointment, error) {
	stored, err := t.s.apptRepo.ListBySlot(ctx, key)
	if err != nil {
		return nil, err
	}
	return t.merge(stored, func(a *models.Appointment) bool { return a.SlotKey() == key }), nil
}

func (t *txn) agentAppointments(ctx context.Context, agentID uuid.UUID, date time.Time) ([]*models.Appointment, error) {
	stored, err := t.s.apptRepo.ListByAgentOnDate(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	return t.merge(stored, func(a *models.Appointment) bool {
		return a.AgentID == agentID && a.Date.Equal(date)
	}), nil
}

// ----- staging -----

func (t *txn) touchProperty(p *models.Property) {
	p.UpdatedAt = t.now
	t.props[p.ID] = p
	t.dirtyProps[p.ID] = true
}

func (t *txn) touchAgent(a *models.Agent) {
	a.UpdatedAt = t.now
	t.agents[a.ID] = a
	t.dirtyAgents[a.ID] = true
}

func (t *txn) touchAppointment(a *models.Appointment) {
	a.UpdatedAt = t.now
	if t.isCreated(a.ID) {
		return
	}
	t.appts[a.ID] = a
	t.dirtyAppts[a.ID] = true
}

func (t *txn) create(a *models.Appointment) {
	a.CreatedAt = t.now
	a.UpdatedAt = t.now
	t.created = append(t.created, a)
}

func (t *txn) isCreated(id uuid.UUID) bool {
	for _, a := range t.created {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (t *txn) audit(actor models.Actor, action models.AuditAction, targetID uuid.UUID, targetType models.AuditTargetType, details any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	msg := json.RawMessage(raw)
	t.audits = append(t.audits, &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Details:    &msg,
		CreatedAt:  t.now,
	})
	return nil
}

func (t *txn) notify(recipientID uuid.UUID, role models.RoleType, typ models.NotificationType, appt *models.Appointment, message string) {
	n := models.Notification{
		ID:            uuid.New(),
		RecipientID:   recipientID,
		RecipientRole: role,
		Type:          typ,
		Message:       message,
		CreatedAt:     t.now,
	}
	if appt != nil {
		n.AppointmentID = utils.Ptr(appt.ID)
		n.PropertyID = utils.Ptr(appt.PropertyID)
	}
	t.events = append(t.events, n)
}

// ----- commit -----

func (t *txn) commit(ctx context.Context) error {
	for _, entry := range t.audits {
		if err := t.s.auditRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}
	}

	for _, a := range t.created {
		if err := t.s.apptRepo.Create(ctx, a); err != nil {
			return err
		}
	}
	for id := range t.dirtyAppts {
		a := t.appts[id]
		if err := checkTag(t.s.apptRepo.UpdateIfVersion(ctx, a, a.RowVersion)); err != nil {
			return err
		}
	}
	for id := range t.dirtyProps {
		p := t.props[id]
		if err := checkTag(t.s.propRepo.UpdateIfVersion(ctx, p, p.RowVersion)); err != nil {
			return err
		}
	}
	for id := range t.dirtyAgents {
		a := t.agents[id]
		if err := checkTag(t.s.agentRepo.UpdateIfVersion(ctx, a, a.RowVersion)); err != nil {
			return err
		}
	}

	for id := range t.touchedAgents() {
		t.s.cache.Invalidate(ctx, id)
	}

	for _, n := range t.events {
		t.s.notifier.Emit(ctx, n)
	}
	return nil
}

func checkTag(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return utils.NewRowVersionConflictError(nil)
	}
	return nil
}

// touchedAgents are the agents whose availability may have changed.
func (t *txn) touchedAgents() map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for id := range t.dirtyAgents {
		out[id] = struct{}{}
	}
	for id := range t.dirtyAppts {
		out[t.appts[id].AgentID] = struct{}{}
		if prev := t.appts[id].PreviousAgentID; prev != nil {
			out[*prev] = struct{}{}
		}
	}
	for _, a := range t.created {
		out[a.AgentID] = struct{}{}
	}
	return out
}
