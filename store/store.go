// Package store is the persistence collaborator. The engine is agnostic to
// the backing store; it only needs get, update-with-diff, and an atomic
// multi-document batch commit.
package store

import (
	"context"
	"errors"

	"github.com/weedbox/pokergame"
)

var (
	ErrNotFound      = errors.New("store: game not found")
	ErrAlreadyExists = errors.New("store: game already exists")
)

type Store interface {
	// Get returns the current document. Implementations return a copy the
	// caller may mutate freely.
	Get(ctx context.Context, id string) (*pokergame.Game, error)

	// Create inserts a new document.
	Create(ctx context.Context, game *pokergame.Game) error

	// Update commits only the fields carried by the patch, leaving all
	// others untouched.
	Update(ctx context.Context, id string, patch *pokergame.GamePatch) error

	// BatchUpdate commits patches against several documents atomically:
	// either every patch lands or none do.
	BatchUpdate(ctx context.Context, patches map[string]*pokergame.GamePatch) error
}
