// Package clock is the engine's only source of "now". Every timestamp the
// engine records is truncated to whole seconds.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns wall-clock time in UTC.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC().Truncate(time.Second)}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC().Truncate(time.Second)
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d).Truncate(time.Second)
	f.mu.Unlock()
}
