package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

type SMSVerificationRepository interface {
	CreateCode(ctx context.Context, subjectID uuid.UUID, role models.RoleType, code string, now, expiresAt time.Time) error
	// GetCode returns the most recent code for the subject, or nil.
	GetCode(ctx context.Context, subjectID uuid.UUID) (*models.SMSVerificationCode, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	CleanupExpired(ctx context.Context, now time.Time) error
}

type smsVerificationRepo struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.SMSVerificationCode
	// latest code id per subject
	latest map[uuid.UUID]uuid.UUID
}

func NewSMSVerificationRepository() SMSVerificationRepository {
	return &smsVerificationRepo{
		codes:  make(map[uuid.UUID]*models.SMSVerificationCode),
		latest: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *smsVerificationRepo) CreateCode(
	_ context.Context,
	subjectID uuid.UUID,
	role models.RoleType,
	code string,
	now, expiresAt time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &models.SMSVerificationCode{
		ID:               uuid.New(),
		SubjectID:        subjectID,
		SubjectRole:      role,
		VerificationCode: code,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
	}
	r.codes[rec.ID] = rec
	r.latest[subjectID] = rec.ID
	return nil
}

func (r *smsVerificationRepo) GetCode(_ context.Context, subjectID uuid.UUID) (*models.SMSVerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.latest[subjectID]
	if !ok {
		return nil, nil
	}
	cp := *r.codes[id]
	return &cp, nil
}

func (r *smsVerificationRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.codes[id]; ok {
		rec.Attempts++
	}
	return nil
}

func (r *smsVerificationRepo) MarkVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.codes[id]; ok {
		rec.Verified = true
		rec.VerifiedAt = &at
	}
	return nil
}

func (r *smsVerificationRepo) CleanupExpired(_ context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.codes {
		if now.After(rec.ExpiresAt) && !rec.Verified {
			delete(r.codes, id)
			if r.latest[rec.SubjectID] == id {
				delete(r.latest, rec.SubjectID)
			}
		}
	}
	return nil
}
