package lock

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MutexMap hands out one mutex per key. Entries are never evicted; the key
// space is bounded by the number of agents and properties.
type MutexMap struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func NewMutexMap() *MutexMap {
	return &MutexMap{
		mutexes: make(map[string]*sync.Mutex),
	}
}

func (m *MutexMap) Lock(key string) {
	m.getMutex(key).Lock()
}

func (m *MutexMap) Unlock(key string) {
	m.getMutex(key).Unlock()
}

// LockAll acquires every key in sorted order, skipping duplicates, and
// returns a function releasing them in reverse. Sorting keeps two callers
// that need overlapping key sets from deadlocking.
func (m *MutexMap) LockAll(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		m.Lock(k)
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			m.Unlock(sorted[i])
		}
	}
}

func (m *MutexMap) getMutex(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mu, ok := m.mutexes[key]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	m.mutexes[key] = mu
	return mu
}

func AgentKey(id uuid.UUID) string    { return "agent:" + id.String() }
func PropertyKey(id uuid.UUID) string { return "property:" + id.String() }
