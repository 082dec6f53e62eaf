package pokergame

// OptionsForPlayer computes the exhaustive legal action set for playerID in
// the given round, with amounts fully computed. The result is deterministic
// and order-stable: fold, then check or call, then bet or raise, then all-in.
func OptionsForPlayer(g *Game, h *Hand, r *Round, playerID string) ([]*Action, error) {
	// A disagreement between stored totals and recomputed contributions means
	// a lost update slipped through the gateway; resolving money on top of it
	// would break the zero-sum invariant downstream.
	if err := r.VerifyContributions(); err != nil {
		return nil, err
	}

	if h.PlayerState(playerID) == nil {
		return nil, ErrPlayerNotFound
	}

	contributed := r.PlayerTotal(playerID)
	remaining, err := h.RemainingBalance(g, playerID)
	if err != nil {
		return nil, err
	}
	maxAllowed := RoundToCent(remaining + contributed)
	maxBet, _ := r.MaxOtherTotal(playerID)

	for _, amount := range []float64{contributed, remaining, maxAllowed, maxBet} {
		if err := validAmount(amount); err != nil {
			return nil, err
		}
	}

	options := make([]*Action, 0, 4)
	options = append(options, &Action{
		PlayerID:   playerID,
		Type:       Action_Fold,
		Total:      contributed,
		Voluntary:  true,
		Conforming: true,
	})

	if RoundToCent(contributed) < maxBet {
		callTotal := maxBet
		capped := maxAllowed <= maxBet
		if capped {
			callTotal = maxAllowed
		}
		options = append(options, &Action{
			PlayerID:     playerID,
			Type:         Action_Call,
			Total:        callTotal,
			Contribution: RoundToCent(callTotal - contributed),
			AllIn:        capped,
			Voluntary:    true,
			Conforming:   true,
		})
	} else {
		options = append(options, &Action{
			PlayerID:   playerID,
			Type:       Action_Check,
			Total:      contributed,
			Voluntary:  true,
			Conforming: true,
		})
	}

	if remaining <= 0 {
		return options, nil
	}

	minRaise := r.MinRaiseSize(g.BigBlind)
	raiseTotal := RoundToCent(maxBet + minRaise)
	wagerType := Action_Raise
	if maxBet == 0 {
		wagerType = Action_Bet
	}

	// A sized raise is only legal when it leaves someone able to respond and
	// the player can exceed it without going all-in; the all-in option below
	// covers everything else.
	if maxAllowed > maxBet && raiseTotal < maxAllowed && opponentCanRespond(g, h, r, playerID, maxBet) {
		options = append(options, &Action{
			PlayerID:     playerID,
			Type:         wagerType,
			Total:        raiseTotal,
			Raise:        minRaise,
			Contribution: RoundToCent(raiseTotal - contributed),
			Voluntary:    true,
			Conforming:   true,
		})
	}

	allIn := &Action{
		PlayerID:     playerID,
		Type:         Action_AllIn,
		Total:        maxAllowed,
		Contribution: RoundToCent(maxAllowed - contributed),
		AllIn:        true,
		Voluntary:    true,
		Conforming:   true,
	}
	if maxAllowed > maxBet {
		allIn.Raise = RoundToCent(maxAllowed - maxBet)
		allIn.Conforming = allIn.Raise >= minRaise
	}
	options = append(options, allIn)

	return options, nil
}

// opponentCanRespond reports whether any other unfolded player could still
// put chips in over maxBet, so a raise is not uncallable.
func opponentCanRespond(g *Game, h *Hand, r *Round, playerID string, maxBet float64) bool {
	for _, ps := range h.PlayerStates {
		if ps.PlayerID == playerID {
			continue
		}
		p := g.FindPlayer(ps.PlayerID)
		if p == nil || !p.Active {
			continue
		}
		if h.Folded(ps.PlayerID) || h.WentAllIn(ps.PlayerID) {
			continue
		}
		remaining, err := h.RemainingBalance(g, ps.PlayerID)
		if err != nil {
			continue
		}
		if RoundToCent(remaining+r.PlayerTotal(ps.PlayerID)) > maxBet {
			return true
		}
	}
	return false
}
