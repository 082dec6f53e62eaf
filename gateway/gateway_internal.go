package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weedbox/syncsaga"
	"github.com/weedbox/timebank"
	"go.uber.org/zap"

	"github.com/weedbox/pokergame"
	"github.com/weedbox/pokergame/distlock"
)

type gameMutator func(g *pokergame.Game) (*pokergame.Result, error)

// withGame serializes a mutation on one table document. The table lock is
// tried first; when the mutation turns out to touch tournament-wide state
// the whole thing is retried under the tournament lock.
func (gw *Gateway) withGame(ctx context.Context, tableID string, fn gameMutator) (*pokergame.Result, error) {
	res, err := gw.withGameScoped(ctx, tableID, false, fn)
	if errors.Is(err, ErrNeedsBroaderLock) {
		res, err = gw.withGameScoped(ctx, tableID, true, fn)
	}
	return res, err
}

func (gw *Gateway) withGameScoped(ctx context.Context, tableID string, wide bool, fn gameMutator) (*pokergame.Result, error) {
	keys := []string{"table." + tableID}
	if wide {
		// Metadata like the tournament id never changes after creation, so
		// the unlocked read is safe here.
		peek, err := gw.store.Get(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if peek.TournamentID != "" {
			keys = []string{
				"tournament." + peek.TournamentID,
				"tournament." + peek.TournamentID + ".table." + tableID,
			}
		}
	}

	handles := make([]*distlock.Handle, 0, len(keys))
	defer func() {
		for i := len(handles) - 1; i >= 0; i-- {
			if err := gw.locker.Release(context.Background(), handles[i]); err != nil {
				gw.logger.Warn("lock release failed",
					zap.String("key", handles[i].Key),
					zap.Error(err))
			}
		}
	}()
	for _, key := range keys {
		h, err := gw.acquire(ctx, key)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	current, err := gw.store.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	working, err := current.Clone()
	if err != nil {
		return nil, err
	}

	res, err := fn(working)
	if err != nil {
		if pokergame.IsFatal(err) {
			gw.logger.Error("engine reported fatal state",
				zap.String("table_id", tableID),
				zap.Error(err))
		}
		gw.onErrorUpdated(tableID, err)
		return nil, err
	}

	// Eliminations move chips out of this table's scope in a tournament;
	// that needs the tournament lock before anything is committed.
	if !wide && working.TournamentID != "" && res != nil && len(res.Eliminated) > 0 {
		return nil, ErrNeedsBroaderLock
	}

	patch, err := pokergame.DiffGame(current, working)
	if err != nil {
		return nil, err
	}
	if !patch.Empty() {
		now := gw.nowFn().Unix()
		serial := working.UpdateSerial + 1
		working.UpdateAt = now
		working.UpdateSerial = serial
		patch.UpdateAt = &now
		patch.UpdateSerial = &serial
		if err := gw.store.Update(ctx, tableID, patch); err != nil {
			return nil, err
		}
		gw.onGameUpdated(working)
		gw.scheduleFollowup(working, res)
	}

	return res, nil
}

func (gw *Gateway) acquire(ctx context.Context, key string) (*distlock.Handle, error) {
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt < gw.lockAttempts; attempt++ {
		h, err := gw.locker.Acquire(ctx, key, gw.lockWait)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, distlock.ErrAcquireTimeout) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("gateway: lock %s: %w", key, distlock.ErrAcquireTimeout)
}

// advanceLoop pushes the game forward until a directive that requires waiting:
// a player decision, or a payout phase with a configured pause. Zero-delay
// directives are consumed inline so a single call carries a hand across
// streets and into the next hand.
func (gw *Gateway) advanceLoop(g *pokergame.Game, req *pokergame.ActionRequest) (*pokergame.Result, error) {
	var eliminated []string
	for i := 0; i < gw.maxForward; i++ {
		now := gw.nowFn().UnixMilli()

		var res *pokergame.Result
		var err error
		switch {
		case req != nil:
			res, err = pokergame.Advance(gw.cfg, g, req, now)
			req = nil
		case g.ActiveHand() == nil:
			// Between hands. Falls through to the next-hand directive below.
			res = &pokergame.Result{Directive: pokergame.Directive_NextHand}
		default:
			res, err = pokergame.EnforceTimeout(gw.cfg, g, now)
		}
		if err != nil {
			return nil, err
		}
		// Eliminations can happen on an iteration the loop then steps past;
		// carry them onto whatever result is finally returned.
		eliminated = append(eliminated, res.Eliminated...)
		res.Eliminated = eliminated

		switch res.Directive {
		case pokergame.Directive_PlayerAction:
			// An away player never gets a real decision window; loop so the
			// next EnforceTimeout pass forces their cheapest action now.
			if p := g.FindPlayer(res.ActingPlayerID); p != nil && p.Away {
				continue
			}
			return res, nil
		case pokergame.Directive_ShortHandPayout, pokergame.Directive_HandPayout:
			if gw.cfg.DelayFor(res.Directive) > 0 {
				return res, nil
			}
		case pokergame.Directive_NextHand:
			if gw.cfg.DelayFor(res.Directive) > 0 {
				return res, nil
			}
			if len(g.DealablePlayers()) < 2 {
				return res, nil
			}
			if _, err := pokergame.StartHand(gw.cfg, g, now, gw.seedFn()); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("gateway: fast-forward did not converge: %w", pokergame.ErrAdvanceLoopBounded)
}

// scheduleFollowup arms the timer that will wake the table when the current
// directive expires: the acting timeout for a player decision, or the
// configured pause after a payout.
func (gw *Gateway) scheduleFollowup(g *pokergame.Game, res *pokergame.Result) {
	if res == nil {
		return
	}

	switch res.Directive {
	case pokergame.Directive_PlayerAction:
		// Small grace so the wake lands after the engine's own deadline.
		gw.armTimer(g.ID, gw.cfg.TimeoutFor(g)+time.Second)
	case pokergame.Directive_ShortHandPayout, pokergame.Directive_HandPayout:
		delay := gw.cfg.DelayFor(res.Directive)
		if delay <= 0 {
			return
		}
		gw.armTimer(g.ID, delay)
		gw.prepareNextHand(g, delay)
	case pokergame.Directive_NextHand:
		if delay := gw.cfg.DelayFor(res.Directive); delay > 0 {
			gw.armTimer(g.ID, delay)
		}
	}
}

func (gw *Gateway) armTimer(tableID string, d time.Duration) {
	gw.mu.Lock()
	if prev, exists := gw.timers[tableID]; exists {
		prev.Cancel()
	}
	tb := timebank.NewTimeBank()
	gw.timers[tableID] = tb
	gw.mu.Unlock()

	err := tb.NewTask(d, func(isCancelled bool) {
		if isCancelled {
			return
		}
		if _, err := gw.AdvanceTable(context.Background(), tableID); err != nil {
			gw.logger.Error("scheduled advance failed",
				zap.String("table_id", tableID),
				zap.Error(err))
			gw.onErrorUpdated(tableID, err)
		}
	})
	if err != nil {
		gw.logger.Error("failed to arm table timer",
			zap.String("table_id", tableID),
			zap.Error(err))
	}
}

// prepareNextHand opens a readiness window for the players still seated. The
// table deals again as soon as everyone reports ready, or when the window
// times out, whichever comes first.
func (gw *Gateway) prepareNextHand(g *pokergame.Game, window time.Duration) {
	players := g.DealablePlayers()
	if len(players) < 2 {
		return
	}

	group := &readyGroup{
		rg:      syncsaga.NewReadyGroup(),
		players: make(map[string]int64),
	}

	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	group.rg.SetTimeoutInterval(seconds)
	group.rg.OnTimeout(func(rg *syncsaga.ReadyGroup) {
		// Auto ready by default
		states := rg.GetParticipantStates()
		for playerIdx, isReady := range states {
			if !isReady {
				rg.Ready(playerIdx)
			}
		}
	})
	tableID := g.ID
	group.rg.OnCompleted(func(rg *syncsaga.ReadyGroup) {
		gw.mu.Lock()
		delete(gw.readyGroups, tableID)
		gw.mu.Unlock()
		gw.cancelTimer(tableID)
		if _, err := gw.AdvanceTable(context.Background(), tableID); err != nil {
			gw.logger.Error("next hand advance failed",
				zap.String("table_id", tableID),
				zap.Error(err))
			gw.onErrorUpdated(tableID, err)
		}
	})

	group.rg.ResetParticipants()
	for idx, p := range players {
		group.players[p.ID] = int64(idx)
		group.rg.Add(int64(idx), false)
	}

	gw.mu.Lock()
	if prev, exists := gw.readyGroups[tableID]; exists {
		prev.rg.Stop()
	}
	gw.readyGroups[tableID] = group
	gw.mu.Unlock()

	group.rg.Start()
}

func (gw *Gateway) cancelTimer(tableID string) {
	gw.mu.Lock()
	tb, exists := gw.timers[tableID]
	gw.mu.Unlock()
	if exists {
		tb.Cancel()
	}
}

// Close stops all armed timers and ready groups. In-flight operations finish
// normally.
func (gw *Gateway) Close() {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	for _, tb := range gw.timers {
		tb.Cancel()
	}
	for _, group := range gw.readyGroups {
		group.rg.Stop()
	}
	gw.timers = make(map[string]*timebank.TimeBank)
	gw.readyGroups = make(map[string]*readyGroup)
}
