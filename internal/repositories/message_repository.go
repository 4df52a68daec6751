package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*models.Message, error)
}

type messageRepo struct {
	mu       sync.RWMutex
	messages map[uuid.UUID][]models.Message
}

func NewMessageRepository() MessageRepository {
	return &messageRepo{messages: make(map[uuid.UUID][]models.Message)}
}

func (r *messageRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.AppointmentID] = append(r.messages[m.AppointmentID], *m)
	return nil
}

func (r *messageRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.messages[appointmentID]
	out := make([]*models.Message, len(list))
	for i := range list {
		m := list[i]
		out[i] = &m
	}
	return out, nil
}
