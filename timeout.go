package pokergame

import "time"

// EnforceTimeout applies the directive/timeout policy to the current
// next-to-act player: if they are flagged away, or the round has waited
// longer than the configured timeout since its last activity, the cheapest
// non-fold option is played for them and they are marked away going forward.
//
// Calling this when nobody has timed out is a no-op that returns the current
// directive unchanged, so periodic sweeps are safe to run redundantly.
func EnforceTimeout(cfg Config, g *Game, now int64) (*Result, error) {
	result, err := Advance(cfg, g, nil, now)
	if err != nil {
		return nil, err
	}
	if result.Directive != Directive_PlayerAction {
		return result, nil
	}

	p := g.FindPlayer(result.ActingPlayerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}

	if !p.Away {
		h := g.ActiveHand()
		r := h.ActiveRound()
		elapsed := time.Duration(now-lastActivity(r)) * time.Millisecond
		if elapsed < cfg.TimeoutFor(g) {
			return result, nil
		}
	}

	forced := cheapestOption(result.LegalActions)
	if !cfg.KeepPresentOnTimeout {
		p.Away = true
	}

	return Advance(cfg, g, &ActionRequest{
		PlayerID: result.ActingPlayerID,
		Type:     forced.Type,
		Amount:   forced.Total,
		Forced:   true,
	}, now)
}

// lastActivity is the round's most recent action time, or its opening time
// on a street nobody has acted on yet.
func lastActivity(r *Round) int64 {
	last := r.OpenedAt
	for _, a := range r.Actions {
		if a.Time > last {
			last = a.Time
		}
	}
	return last
}

// cheapestOption prefers a free check or call over folding; folding is the
// fallback when continuing would cost chips.
func cheapestOption(options []*Action) *Action {
	var fold *Action
	for _, o := range options {
		switch o.Type {
		case Action_Check:
			return o
		case Action_Call:
			if o.Contribution == 0 {
				return o
			}
		case Action_Fold:
			fold = o
		}
	}
	return fold
}
