package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const acquirePollInterval = 5 * time.Millisecond

// InProcessLocker serializes within a single process. It honors the same
// staleness-reclaim contract as the redis implementation, which makes it a
// faithful stand-in for tests and single-node deployments.
type InProcessLocker struct {
	mu         sync.Mutex
	held       map[string]*Handle
	staleAfter time.Duration
}

func NewInProcessLocker(staleAfter time.Duration) *InProcessLocker {
	return &InProcessLocker{
		held:       make(map[string]*Handle),
		staleAfter: staleAfter,
	}
}

func (l *InProcessLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error) {
	deadline := time.Now().Add(timeout)
	for {
		if handle := l.tryAcquire(key); handle != nil {
			return handle, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
		if time.Now().After(deadline) {
			return nil, ErrAcquireTimeout
		}
	}
}

func (l *InProcessLocker) tryAcquire(key string) *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current, exists := l.held[key]; exists {
		if l.staleAfter <= 0 || time.Since(current.AcquiredAt) < l.staleAfter {
			return nil
		}
		// Holder presumed crashed; reclaim.
		delete(l.held, key)
	}

	handle := &Handle{
		Key:        key,
		Owner:      uuid.New().String(),
		AcquiredAt: time.Now(),
	}
	l.held[key] = handle
	return handle
}

func (l *InProcessLocker) Release(ctx context.Context, handle *Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, exists := l.held[handle.Key]
	if !exists || current.Owner != handle.Owner {
		return ErrNotHeld
	}
	delete(l.held, handle.Key)
	return nil
}
