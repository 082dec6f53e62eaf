// Package distlock provides the named mutex collaborator that serializes all
// mutations against a table or tournament resource. Locks carry an ownership
// timestamp; a holder older than the staleness threshold is assumed to have
// crashed and its lock is forcibly reclaimed. That trades strict safety for
// liveness: a stalled-but-alive holder can lose its lock, and the next commit
// wins.
package distlock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAcquireTimeout = errors.New("distlock: acquire timed out")
	ErrNotHeld        = errors.New("distlock: lock not held by this handle")
)

// Handle proves ownership of an acquired lock.
type Handle struct {
	Key        string
	Owner      string
	AcquiredAt time.Time
}

// Locker is the distributed mutex primitive the gateway builds on.
type Locker interface {
	// Acquire blocks until the named lock is held or the timeout elapses.
	Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error)

	// Release frees the lock. Releasing a lock reclaimed by someone else
	// returns ErrNotHeld.
	Release(ctx context.Context, handle *Handle) error
}
