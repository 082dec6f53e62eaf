package store

import (
	"context"
	"sync"

	"github.com/weedbox/pokergame"
)

// MemoryStore keeps documents in process memory. Reads hand out deep copies
// so no caller ever observes a partial mutation; a whole BatchUpdate applies
// under one lock, which makes it atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*pokergame.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*pokergame.Game),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*pokergame.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, exists := s.games[id]
	if !exists {
		return nil, ErrNotFound
	}
	return game.Clone()
}

func (s *MemoryStore) Create(ctx context.Context, game *pokergame.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[game.ID]; exists {
		return ErrAlreadyExists
	}
	cloned, err := game.Clone()
	if err != nil {
		return err
	}
	s.games[game.ID] = cloned
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch *pokergame.GamePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(id, patch)
}

func (s *MemoryStore) BatchUpdate(ctx context.Context, patches map[string]*pokergame.GamePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every target first so a missing document cannot leave the
	// batch half applied.
	for id := range patches {
		if _, exists := s.games[id]; !exists {
			return ErrNotFound
		}
	}
	for id, patch := range patches {
		if err := s.applyLocked(id, patch); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) applyLocked(id string, patch *pokergame.GamePatch) error {
	game, exists := s.games[id]
	if !exists {
		return ErrNotFound
	}
	pokergame.ApplyPatch(game, patch)

	// Patches hold pointers into the caller's working copy; re-clone so the
	// stored document cannot be mutated behind our back.
	cloned, err := game.Clone()
	if err != nil {
		return err
	}
	s.games[id] = cloned
	return nil
}
