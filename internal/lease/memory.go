package lease

import (
	"context"
	"sync"
	"time"
)

// MemoryLease is a single-process Lease for tests and local development.
type MemoryLease struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{held: make(map[string]time.Time)}
}

func (l *MemoryLease) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if exp, ok := l.held[key]; ok && time.Now().Before(exp) {
		return func() {}, false, nil
	}
	l.held[key] = time.Now().Add(ttl)

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, true, nil
}
