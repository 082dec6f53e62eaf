package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/weedbox/pokergame"
)

// PGStore persists game documents as JSONB rows. Updates take a row lock,
// apply the patch to the stored document, and write back in one transaction,
// so only the supplied fields change and concurrent writers serialize.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPGStore(pool *pgxpool.Pool, logger *zap.Logger) *PGStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGStore{pool: pool, logger: logger}
}

// Migrate creates the games table.
func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id            TEXT PRIMARY KEY,
			doc           JSONB NOT NULL,
			update_serial BIGINT NOT NULL DEFAULT 0,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PGStore) Get(ctx context.Context, id string) (*pokergame.Game, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM games WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}

	var game pokergame.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &game, nil
}

func (s *PGStore) Create(ctx context.Context, game *pokergame.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, doc, update_serial) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		game.ID, doc, game.UpdateSerial)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", game.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, id string, patch *pokergame.GamePatch) error {
	return s.BatchUpdate(ctx, map[string]*pokergame.GamePatch{id: patch})
}

func (s *PGStore) BatchUpdate(ctx context.Context, patches map[string]*pokergame.GamePatch) error {
	// Lock rows in a stable order so concurrent batches cannot deadlock.
	ids := make([]string, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("store: begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if err := s.updateInTx(ctx, tx, id, patches[id]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

func (s *PGStore) updateInTx(ctx context.Context, tx pgx.Tx, id string, patch *pokergame.GamePatch) error {
	var doc []byte
	err := tx.QueryRow(ctx, `SELECT doc FROM games WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: lock %s: %w", id, err)
	}

	var game pokergame.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return fmt.Errorf("store: decode %s: %w", id, err)
	}
	pokergame.ApplyPatch(&game, patch)

	updated, err := json.Marshal(&game)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE games SET doc = $2, update_serial = $3, updated_at = now() WHERE id = $1`,
		id, updated, game.UpdateSerial); err != nil {
		return fmt.Errorf("store: update %s: %w", id, err)
	}
	return nil
}
