package repositories

import (
	"context"
	"sync"

	"github.com/jackc/pgconn"
)

/*
memoryTable is the process-local stand-in for a versioned table. It stores
private copies, so callers can never alias stored state:

	• get / list hand out clones
	• insert / updateIfVersion store clones
*/
type memoryTable[T EntityWithVersion] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
	clone func(T) T
}

func newMemoryTable[T EntityWithVersion](clone func(T) T) *memoryTable[T] {
	return &memoryTable[T]{rows: make(map[string]T), clone: clone}
}

func (m *memoryTable[T]) insert(entity T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := entity.GetID()
	if _, exists := m.rows[id]; !exists {
		m.order = append(m.order, id)
	}
	cp := m.clone(entity)
	cp.SetRowVersion(1)
	entity.SetRowVersion(1)
	m.rows[id] = cp
}

func (m *memoryTable[T]) get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		var zero T
		return zero, nil
	}
	return m.clone(row), nil
}

func (m *memoryTable[T]) list() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.clone(m.rows[id]))
	}
	return out
}

// updateIfVersion bumps the row version of entity on success.
func (m *memoryTable[T]) updateIfVersion(_ context.Context, entity T, expected int64) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.rows[entity.GetID()]
	if !ok || current.GetRowVersion() != expected {
		return tagUnchanged, nil
	}
	entity.SetRowVersion(expected + 1)
	m.rows[entity.GetID()] = m.clone(entity)
	return tagUpdated, nil
}
