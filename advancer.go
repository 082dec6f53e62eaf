package pokergame

// StartHand opens a new hand: rotates the dealer to the next player holding
// chips, snapshots participants in acting order, and records the deck seed.
// The first Advance call with no action deals hole cards and posts blinds.
//
// handID must be a unix-millisecond timestamp; it is bumped if a prior hand
// already carries an equal or later one, so hand ids stay strictly monotonic.
func StartHand(cfg Config, g *Game, handID int64, deckSeed int64) (*Hand, error) {
	if unsettled, err := g.UnsettledHand(); err != nil {
		return nil, err
	} else if unsettled != nil {
		return nil, fatalf(ErrHandNotCompleted, "hand %d still unsettled", unsettled.ID)
	}

	players := g.DealablePlayers()
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	for _, h := range g.Hands {
		if h.ID >= handID {
			handID = h.ID + 1
		}
	}

	dealer := nextDealer(g, players)
	ordered := rotateAfter(players, dealer)

	hand := &Hand{
		ID:       handID,
		DealerID: dealer.ID,
		DeckSeed: deckSeed,
	}
	if len(ordered) == 2 {
		// Heads-up: the dealer posts the small blind and acts first pre-flop.
		hand.SmallBlindID = dealer.ID
		hand.BigBlindID = ordered[0].ID
	} else {
		hand.SmallBlindID = ordered[0].ID
		hand.BigBlindID = ordered[1].ID
	}
	for _, p := range ordered {
		hand.PlayerStates = append(hand.PlayerStates, &HandPlayerState{
			PlayerID:      p.ID,
			StartingStack: p.Stack,
		})
	}

	g.Hands = append(g.Hands, hand)
	g.ActiveHandID = hand.ID
	return hand, nil
}

// Advance is the pure engine step. Given the current game document and an
// optional submitted action it validates, appends, closes rounds, opens
// streets, and settles showdowns until a player actually needs to act or the
// hand ends. Fast-forwarding runs as a bounded loop, never open recursion.
func Advance(cfg Config, g *Game, req *ActionRequest, now int64) (*Result, error) {
	h := g.ActiveHand()
	if h == nil {
		return nil, ErrNoActiveHand
	}
	if h.PayoutsApplied {
		return &Result{Directive: Directive_NextHand}, nil
	}

	maxIterations := cfg.MaxAdvanceIterations
	if maxIterations <= 0 {
		maxIterations = 64
	}

	for i := 0; i < maxIterations; i++ {
		if len(h.Rounds) == 0 {
			if err := openPreflop(g, h, now); err != nil {
				return nil, err
			}
			continue
		}

		r := h.ActiveRound()
		if r == nil {
			return settleHand(cfg, g, h, now)
		}

		// The moment a single active player remains the hand short-circuits
		// to payout, no matter the street.
		if len(h.ActivePlayerIDs(g)) <= 1 {
			r.Active = false
			return settleHand(cfg, g, h, now)
		}

		acting := nextToAct(g, h, r)
		if acting == "" {
			r.Active = false
			if len(h.ActivePlayerIDs(g)) <= 1 || r.Type == Round_River {
				return settleHand(cfg, g, h, now)
			}
			if err := openStreet(h, nextRound[r.Type], now); err != nil {
				return nil, err
			}
			continue
		}

		if req == nil {
			options, err := OptionsForPlayer(g, h, r, acting)
			if err != nil {
				return nil, err
			}
			return &Result{
				Directive:      Directive_PlayerAction,
				ActingPlayerID: acting,
				LegalActions:   options,
			}, nil
		}

		action, err := validateAction(g, h, r, acting, req, now)
		if err != nil {
			return nil, err
		}
		r.Actions = append(r.Actions, action)
		req = nil
	}

	return nil, fatalf(ErrAdvanceLoopBounded, "hand %d", h.ID)
}

// nextDealer rotates the button to the first chip-holding player past the
// previous hand's dealer.
func nextDealer(g *Game, players []*Player) *Player {
	prevPos := UnsetValue
	var last *Hand
	for _, h := range g.Hands {
		if last == nil || h.ID > last.ID {
			last = h
		}
	}
	if last != nil {
		if prev := g.FindPlayer(last.DealerID); prev != nil {
			prevPos = prev.Position
		}
	}

	for _, p := range players {
		if p.Position > prevPos {
			return p
		}
	}
	return players[0]
}

// rotateAfter orders players by seat starting with the player after dealer,
// leaving the dealer last.
func rotateAfter(players []*Player, dealer *Player) []*Player {
	dealerIdx := 0
	for i, p := range players {
		if p.ID == dealer.ID {
			dealerIdx = i
			break
		}
	}
	ordered := make([]*Player, 0, len(players))
	for i := 1; i <= len(players); i++ {
		ordered = append(ordered, players[(dealerIdx+i)%len(players)])
	}
	return ordered
}

// openPreflop deals two hole cards to every participant in seating order
// starting after the dealer, then posts the blinds as non-voluntary,
// possibly-all-in bets.
func openPreflop(g *Game, h *Hand, now int64) error {
	if g.FindPlayer(h.DealerID) == nil || h.PlayerState(h.SmallBlindID) == nil || h.PlayerState(h.BigBlindID) == nil {
		return fatalf(ErrDealerNotFound, "hand %d dealer %s", h.ID, h.DealerID)
	}

	deck := h.Deck()
	for _, ps := range h.PlayerStates {
		cards, err := deck.Deal(2)
		if err != nil {
			return err
		}
		ps.HoleCards = cards
	}
	h.CardsDealt = deck.CardsDealt()

	firstToAct := 2
	if len(h.PlayerStates) == 2 {
		firstToAct = 1
	}
	r := &Round{
		Type:             Round_Preflop,
		Actions:          make([]*Action, 0),
		Active:           true,
		FirstToActOffset: firstToAct,
		OpenedAt:         now,
	}
	h.Rounds = append(h.Rounds, r)

	smallBlind := RoundToCent(g.BigBlind / 2)
	for _, post := range []struct {
		playerID string
		amount   float64
	}{
		{h.SmallBlindID, smallBlind},
		{h.BigBlindID, g.BigBlind},
	} {
		p := g.FindPlayer(post.playerID)
		if p == nil {
			return fatalf(ErrDealerNotFound, "hand %d blind poster %s", h.ID, post.playerID)
		}
		amount := post.amount
		allIn := false
		if p.Stack <= amount {
			amount = RoundToCent(p.Stack)
			allIn = true
		}
		r.Actions = append(r.Actions, &Action{
			PlayerID:     post.playerID,
			Type:         Action_Bet,
			Total:        amount,
			Contribution: amount,
			AllIn:        allIn,
			Voluntary:    false,
			Conforming:   true,
			Time:         now,
		})
	}

	return nil
}

// openStreet deals the street's community cards and opens a fresh round.
func openStreet(h *Hand, rt RoundType, now int64) error {
	deck := h.Deck()
	cards, err := deck.Deal(communityCardCount[rt])
	if err != nil {
		return err
	}
	h.CardsDealt = deck.CardsDealt()

	h.Rounds = append(h.Rounds, &Round{
		Type:             rt,
		Cards:            cards,
		Actions:          make([]*Action, 0),
		Active:           true,
		FirstToActOffset: 0,
		OpenedAt:         now,
	})
	return nil
}

// roundMaxTotal is the highest cumulative total any player has committed this
// round.
func roundMaxTotal(r *Round) float64 {
	max := 0.0
	seen := map[string]bool{}
	for i := len(r.Actions) - 1; i >= 0; i-- {
		a := r.Actions[i]
		if seen[a.PlayerID] {
			continue
		}
		seen[a.PlayerID] = true
		if a.Total > max {
			max = a.Total
		}
	}
	return RoundToCent(max)
}

// needsToAct reports whether the player still owes a decision this round: no
// action yet, an action below the round's max total, or only a forced blind.
func needsToAct(g *Game, h *Hand, r *Round, playerID string) bool {
	p := g.FindPlayer(playerID)
	if p == nil || !p.Active {
		return false
	}
	if h.Folded(playerID) || h.WentAllIn(playerID) {
		return false
	}

	last := r.LastAction(playerID)
	if last == nil {
		return true
	}
	if !last.Voluntary {
		return true
	}
	return !centEqual(last.Total, roundMaxTotal(r))
}

// nextToAct walks the acting order from the seat after the last action (or
// the round's first-to-act offset on a fresh street) and returns the first
// player still owing a decision, or "" when the round should close.
func nextToAct(g *Game, h *Hand, r *Round) string {
	order := h.PlayerStates
	n := len(order)
	if n == 0 {
		return ""
	}

	start := r.FirstToActOffset % n
	if len(r.Actions) > 0 {
		lastPlayerID := r.Actions[len(r.Actions)-1].PlayerID
		for i, ps := range order {
			if ps.PlayerID == lastPlayerID {
				start = (i + 1) % n
				break
			}
		}
	}

	for i := 0; i < n; i++ {
		playerID := order[(start+i)%n].PlayerID
		if needsToAct(g, h, r, playerID) {
			return playerID
		}
	}
	return ""
}

// validateAction recomputes the legal set for the expected actor and checks
// the submitted action against it. Fold, check, and call must match the
// computed option exactly; bet, raise, and all-in totals are recomputed from
// the submitted amount and re-validated against the remaining balance.
func validateAction(g *Game, h *Hand, r *Round, acting string, req *ActionRequest, now int64) (*Action, error) {
	if req.Type == "" {
		return nil, ErrNoActionSubmitted
	}
	if req.PlayerID != acting {
		return nil, ErrNotYourTurn
	}

	options, err := OptionsForPlayer(g, h, r, acting)
	if err != nil {
		return nil, err
	}

	var option *Action
	for _, o := range options {
		if o.Type == req.Type {
			option = o
			break
		}
	}
	if option == nil {
		return nil, ErrIllegalAction
	}

	var action Action
	switch req.Type {
	case Action_Fold, Action_Check, Action_Call, Action_AllIn:
		if req.Amount != 0 && !centEqual(req.Amount, option.Total) {
			return nil, ErrIllegalActionAmount
		}
		action = *option

	case Action_Bet, Action_Raise:
		total := RoundToCent(req.Amount)
		if err := validAmount(total); err != nil {
			return nil, err
		}
		contributed := r.PlayerTotal(acting)
		remaining, err := h.RemainingBalance(g, acting)
		if err != nil {
			return nil, err
		}
		maxAllowed := RoundToCent(remaining + contributed)
		maxBet, _ := r.MaxOtherTotal(acting)

		if total > maxAllowed {
			return nil, ErrInsufficientBalance
		}
		if total < option.Total {
			return nil, ErrIllegalActionAmount
		}

		action = Action{
			PlayerID:     acting,
			Type:         req.Type,
			Total:        total,
			Raise:        RoundToCent(total - maxBet),
			Contribution: RoundToCent(total - contributed),
			AllIn:        centEqual(total, maxAllowed),
			Voluntary:    true,
			Conforming:   RoundToCent(total-maxBet) >= r.MinRaiseSize(g.BigBlind),
		}

	default:
		return nil, ErrIllegalAction
	}

	action.Forced = req.Forced
	action.Time = now
	return &action, nil
}

// settleHand resolves the showdown, records payouts, and applies them to
// player stacks. A single surviving player short-circuits to a sole-winner
// payout with cards hidden.
func settleHand(cfg Config, g *Game, h *Hand, now int64) (*Result, error) {
	for _, r := range h.Rounds {
		r.Active = false
	}

	kind := Directive_HandPayout
	if len(h.ActivePlayerIDs(g)) <= 1 {
		kind = Directive_ShortHandPayout
	}

	payouts, err := ResolveShowdown(cfg, g, h)
	if err != nil {
		return nil, err
	}
	h.Payouts = payouts
	eliminated := ApplyPayouts(g, h, now)

	return &Result{
		Directive:  kind,
		Payouts:    payouts,
		Eliminated: eliminated,
	}, nil
}
