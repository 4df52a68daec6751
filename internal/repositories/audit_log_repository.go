package repositories

import (
	"context"
	"sync"

	"github.com/poofware/booking-service/internal/models"
)

type AuditLogRepository interface {
	Create(ctx context.Context, logEntry *models.AuditLog) error
	List(ctx context.Context) ([]*models.AuditLog, error)
}

type memoryAuditLogRepo struct {
	mu      sync.RWMutex
	entries []models.AuditLog
}

func NewMemoryAuditLogRepository() AuditLogRepository {
	return &memoryAuditLogRepo{}
}

func (r *memoryAuditLogRepo) Create(_ context.Context, logEntry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *logEntry)
	return nil
}

func (r *memoryAuditLogRepo) List(_ context.Context) ([]*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.AuditLog, len(r.entries))
	for i := range r.entries {
		e := r.entries[i]
		out[i] = &e
	}
	return out, nil
}

// pgAuditLogRepo writes to the audit_logs table. Reads stay in memory.
type pgAuditLogRepo struct {
	db DB
}

func NewPgAuditLogRepository(db DB) AuditLogRepository {
	return &pgAuditLogRepo{db: db}
}

const auditLogSchema = `
    CREATE TABLE IF NOT EXISTS audit_logs (
        id          UUID PRIMARY KEY,
        actor_id    UUID NOT NULL,
        actor_role  TEXT NOT NULL,
        action      TEXT NOT NULL,
        target_id   UUID NOT NULL,
        target_type TEXT NOT NULL,
        details     JSONB,
        created_at  TIMESTAMPTZ NOT NULL
    )
`

// EnsureAuditLogSchema creates the audit_logs table when missing.
func EnsureAuditLogSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, auditLogSchema)
	return err
}

func (r *pgAuditLogRepo) Create(ctx context.Context, logEntry *models.AuditLog) error {
	q := `
        INSERT INTO audit_logs (
            id, actor_id, actor_role, action, target_id, target_type, details, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.Exec(ctx, q,
		logEntry.ID,
		logEntry.ActorID,
		logEntry.ActorRole,
		logEntry.Action,
		logEntry.TargetID,
		logEntry.TargetType,
		logEntry.Details,
		logEntry.CreatedAt,
	)
	return err
}

func (r *pgAuditLogRepo) List(ctx context.Context) ([]*models.AuditLog, error) {
	q := `
        SELECT id, actor_id, actor_role, action, target_id, target_type, details, created_at
        FROM audit_logs
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.ActorRole,
			&e.Action,
			&e.TargetID,
			&e.TargetType,
			&e.Details,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// mirroredAuditLogRepo writes the durable copy first so a database failure
// leaves both stores unchanged.
type mirroredAuditLogRepo struct {
	primary AuditLogRepository
	memory  AuditLogRepository
}

func NewMirroredAuditLogRepository(primary, memory AuditLogRepository) AuditLogRepository {
	return &mirroredAuditLogRepo{primary: primary, memory: memory}
}

func (r *mirroredAuditLogRepo) Create(ctx context.Context, logEntry *models.AuditLog) error {
	if err := r.primary.Create(ctx, logEntry); err != nil {
		return err
	}
	return r.memory.Create(ctx, logEntry)
}

func (r *mirroredAuditLogRepo) List(ctx context.Context) ([]*models.AuditLog, error) {
	return r.memory.List(ctx)
}
