package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMutexMap_LockUnlock(t *testing.T) {
	m := NewMutexMap()

	m.Lock("agent1")
	m.Unlock("agent1")

	m.Lock("agent1")
	m.Unlock("agent1")
}

func TestMutexMap_DifferentKeys(t *testing.T) {
	m := NewMutexMap()
	done := make(chan struct{})

	m.Lock("agent1")
	go func() {
		m.Lock("agent2")
		m.Unlock("agent2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("agent2 blocked by agent1")
	}
	m.Unlock("agent1")
}

func TestMutexMap_LockAllDedupes(t *testing.T) {
	m := NewMutexMap()
	unlock := m.LockAll("b", "a", "b")
	unlock()

	// Everything released: locking again must not block.
	unlock = m.LockAll("a", "b")
	unlock()
}

func TestMutexMap_LockAllOppositeOrders(t *testing.T) {
	m := NewMutexMap()
	a := AgentKey(uuid.New())
	p := PropertyKey(uuid.New())
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var unlock func()
			if i%2 == 0 {
				unlock = m.LockAll(a, p)
			} else {
				unlock = m.LockAll(p, a)
			}
			atomic.AddInt64(&counter, 1)
			unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(200), counter)
}
