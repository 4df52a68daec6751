package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
}

type notificationRepo struct {
	mu    sync.RWMutex
	items []models.Notification
}

func NewNotificationRepository() NotificationRepository {
	return &notificationRepo{}
}

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *n)
	return nil
}

func (r *notificationRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Notification
	for i := range r.items {
		if r.items[i].RecipientID == recipientID {
			n := r.items[i]
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r *notificationRepo) List(_ context.Context) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Notification, len(r.items))
	for i := range r.items {
		n := r.items[i]
		out[i] = &n
	}
	return out, nil
}

type AdminAlertRepository interface {
	// CreateOnce stores the alert unless one of the same type already exists
	// for the appointment. Reports whether it was stored.
	CreateOnce(ctx context.Context, alert *models.AdminAlert) (bool, error)
	List(ctx context.Context) ([]*models.AdminAlert, error)
}

type adminAlertRepo struct {
	mu     sync.RWMutex
	alerts []models.AdminAlert
	seen   map[string]struct{}
}

func NewAdminAlertRepository() AdminAlertRepository {
	return &adminAlertRepo{seen: make(map[string]struct{})}
}

func (r *adminAlertRepo) CreateOnce(_ context.Context, alert *models.AdminAlert) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := string(alert.Type) + "|" + alert.AppointmentID.String()
	if _, ok := r.seen[key]; ok {
		return false, nil
	}
	r.seen[key] = struct{}{}
	r.alerts = append(r.alerts, *alert)
	return true, nil
}

func (r *adminAlertRepo) List(_ context.Context) ([]*models.AdminAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.AdminAlert, len(r.alerts))
	for i := range r.alerts {
		a := r.alerts[i]
		out[i] = &a
	}
	return out, nil
}
