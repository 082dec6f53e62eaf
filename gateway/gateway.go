// Package gateway wraps the pure hand engine with the serialized execution
// discipline: acquire the resource mutex, load state, run the engine, diff,
// commit, release. It is the only component that writes table documents.
package gateway

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weedbox/syncsaga"
	"github.com/weedbox/timebank"
	"go.uber.org/zap"

	"github.com/weedbox/pokergame"
	"github.com/weedbox/pokergame/distlock"
	"github.com/weedbox/pokergame/store"
)

var (
	// ErrNeedsBroaderLock signals that an operation holding only a table
	// lock discovered it needs tournament-wide consistency. The caller must
	// retry under the tournament lock; proceeding would commit a partially
	// consistent view.
	ErrNeedsBroaderLock = errors.New("gateway: operation requires tournament-wide lock")

	ErrTableNotReady = errors.New("gateway: table cannot start a hand")
)

type GatewayOpt func(*Gateway)

type Gateway struct {
	store  store.Store
	locker distlock.Locker
	cfg    pokergame.Config
	logger *zap.Logger

	lockWait     time.Duration
	lockAttempts int
	maxForward   int

	nowFn  func() time.Time
	seedFn func() int64

	mu          sync.Mutex
	timers      map[string]*timebank.TimeBank
	readyGroups map[string]*readyGroup

	onGameUpdated  func(*pokergame.Game)
	onErrorUpdated func(string, error)
}

// readyGroup tracks the between-hands readiness of one table.
type readyGroup struct {
	rg      *syncsaga.ReadyGroup
	players map[string]int64
}

func NewGateway(s store.Store, l distlock.Locker, cfg pokergame.Config, opts ...GatewayOpt) *Gateway {
	gw := &Gateway{
		store:          s,
		locker:         l,
		cfg:            cfg,
		logger:         zap.NewNop(),
		lockWait:       3 * time.Second,
		lockAttempts:   3,
		maxForward:     32,
		nowFn:          time.Now,
		seedFn:         rand.Int63,
		timers:         make(map[string]*timebank.TimeBank),
		readyGroups:    make(map[string]*readyGroup),
		onGameUpdated:  func(*pokergame.Game) {},
		onErrorUpdated: func(string, error) {},
	}
	for _, opt := range opts {
		opt(gw)
	}
	return gw
}

func WithLogger(logger *zap.Logger) GatewayOpt {
	return func(gw *Gateway) {
		gw.logger = logger
	}
}

func WithLockWait(wait time.Duration, attempts int) GatewayOpt {
	return func(gw *Gateway) {
		gw.lockWait = wait
		gw.lockAttempts = attempts
	}
}

// WithClock and WithSeedSource pin time and shuffle seeds for tests.
func WithClock(fn func() time.Time) GatewayOpt {
	return func(gw *Gateway) {
		gw.nowFn = fn
	}
}

func WithSeedSource(fn func() int64) GatewayOpt {
	return func(gw *Gateway) {
		gw.seedFn = fn
	}
}

func (gw *Gateway) OnGameUpdated(fn func(*pokergame.Game)) {
	gw.onGameUpdated = fn
}

func (gw *Gateway) OnErrorUpdated(fn func(string, error)) {
	gw.onErrorUpdated = fn
}

type CreateTableOptions struct {
	ID           string
	TournamentID string
	Type         string
	BigBlind     float64
	PotIncrement float64
}

// CreateTable registers a new empty table document.
func (gw *Gateway) CreateTable(ctx context.Context, opts CreateTableOptions) (*pokergame.Game, error) {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Type == "" {
		opts.Type = pokergame.GameType_Cash
	}
	if opts.PotIncrement <= 0 {
		opts.PotIncrement = 0.01
	}

	game := &pokergame.Game{
		ID:           opts.ID,
		TournamentID: opts.TournamentID,
		Type:         opts.Type,
		BigBlind:     pokergame.RoundToCent(opts.BigBlind),
		PotIncrement: opts.PotIncrement,
		Players:      make([]*pokergame.Player, 0),
		Hands:        make([]*pokergame.Hand, 0),
		ActiveHandID: pokergame.UnsetValue,
		UpdateAt:     gw.nowFn().Unix(),
	}
	if err := gw.store.Create(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// JoinTable seats a player with their buy-in. Rejoining a seated player adds
// chips and clears the away flag instead.
func (gw *Gateway) JoinTable(ctx context.Context, tableID, playerID string, buyIn float64) error {
	_, err := gw.withGame(ctx, tableID, func(g *pokergame.Game) (*pokergame.Result, error) {
		if p := g.FindPlayer(playerID); p != nil {
			p.Stack = pokergame.RoundToCent(p.Stack + buyIn)
			p.Active = true
			p.Away = false
			p.BustedAt = 0
			return nil, nil
		}
		g.Players = append(g.Players, &pokergame.Player{
			ID:       playerID,
			Stack:    pokergame.RoundToCent(buyIn),
			Active:   true,
			Position: g.NextPosition(),
		})
		return nil, nil
	})
	return err
}

// LeaveTable soft-deletes the player. Their chips in an unsettled hand stay
// committed; the engine folds them through the timeout policy.
func (gw *Gateway) LeaveTable(ctx context.Context, tableID, playerID string) error {
	_, err := gw.withGame(ctx, tableID, func(g *pokergame.Game) (*pokergame.Result, error) {
		p := g.FindPlayer(playerID)
		if p == nil {
			return nil, pokergame.ErrPlayerNotFound
		}
		p.Active = false
		p.Away = true
		return nil, nil
	})
	return err
}

// StartHand opens the next hand and fast-forwards it to the first decision.
func (gw *Gateway) StartHand(ctx context.Context, tableID string) (*pokergame.Result, error) {
	return gw.withGame(ctx, tableID, func(g *pokergame.Game) (*pokergame.Result, error) {
		// A double start is a caller mistake, not document corruption.
		if g.ActiveHand() != nil {
			return nil, ErrTableNotReady
		}
		if _, err := pokergame.StartHand(gw.cfg, g, gw.nowFn().UnixMilli(), gw.seedFn()); err != nil {
			return nil, err
		}
		return gw.advanceLoop(g, nil)
	})
}

// SubmitAction validates and applies a player action, then pushes the hand
// forward until someone else must act or the hand settles.
func (gw *Gateway) SubmitAction(ctx context.Context, tableID, playerID string, directive pokergame.ActionType, amount float64) (*pokergame.Result, error) {
	return gw.withGame(ctx, tableID, func(g *pokergame.Game) (*pokergame.Result, error) {
		return gw.advanceLoop(g, &pokergame.ActionRequest{
			PlayerID: playerID,
			Type:     directive,
			Amount:   amount,
		})
	})
}

// EnforceTimeout runs the timeout policy for the table. Safe to call
// redundantly: when nobody has timed out and nothing advances, no write
// happens.
func (gw *Gateway) EnforceTimeout(ctx context.Context, tableID string) (*pokergame.Result, error) {
	return gw.AdvanceTable(ctx, tableID)
}

// AdvanceTable recomputes the table's directive from persisted state with no
// submitted action, applying any due forced actions or street advances.
func (gw *Gateway) AdvanceTable(ctx context.Context, tableID string) (*pokergame.Result, error) {
	return gw.withGame(ctx, tableID, func(g *pokergame.Game) (*pokergame.Result, error) {
		return gw.advanceLoop(g, nil)
	})
}

// PlayerReady marks a player ready for the next hand; once every participant
// is ready (or the payout delay expires) the table advances early.
func (gw *Gateway) PlayerReady(ctx context.Context, tableID, playerID string) error {
	gw.mu.Lock()
	group, exists := gw.readyGroups[tableID]
	gw.mu.Unlock()
	if !exists {
		return nil
	}
	idx, ok := group.players[playerID]
	if !ok {
		return pokergame.ErrPlayerNotFound
	}
	group.rg.Ready(idx)
	return nil
}

// GetTable returns a read-only copy of the table document.
func (gw *Gateway) GetTable(ctx context.Context, tableID string) (*pokergame.Game, error) {
	return gw.store.Get(ctx, tableID)
}
