package pokergame

import (
	"sort"
)

// ResolveShowdown ranks the surviving hands, builds contribution-tiered side
// pots, and distributes them. It is called once no further action is legal:
// either every street has been dealt or a single active player remains.
//
// Folded players fund the pots they contributed to but win nothing and reveal
// nothing. Ties split a tier evenly, rounded down to the pot increment, with
// the integer-division remainder awarded to the first winner in tie order.
func ResolveShowdown(cfg Config, g *Game, h *Hand) ([]*Payout, error) {
	activeIDs := h.ActivePlayerIDs(g)
	if len(activeIDs) == 0 {
		return nil, fatalf(ErrDealerNotFound, "no active players at showdown of hand %d", h.ID)
	}
	soleWinner := len(activeIDs) == 1

	contributions := map[string]float64{}
	for _, ps := range h.PlayerStates {
		c := h.Contribution(ps.PlayerID)
		if err := validAmount(c); err != nil {
			return nil, err
		}
		contributions[ps.PlayerID] = c
	}

	strengths := map[string]handStrength{}
	if !soleWinner {
		community := h.CommunityCards()
		for _, playerID := range activeIDs {
			ps := h.PlayerState(playerID)
			strength, err := rankHand(ps.HoleCards, community)
			if err != nil {
				return nil, err
			}
			strengths[playerID] = strength
		}
	}

	tiedWith := map[string][]string{}
	for _, a := range activeIDs {
		for _, b := range activeIDs {
			if a != b && strengths[a] == strengths[b] {
				tiedWith[a] = append(tiedWith[a], b)
			}
		}
	}

	gross := distributePots(g, activeIDs, contributions, strengths)

	payouts := make([]*Payout, 0, len(h.PlayerStates))
	net := 0.0
	for _, ps := range h.PlayerStates {
		payout := &Payout{
			PlayerID: ps.PlayerID,
			Gross:    RoundToCent(gross[ps.PlayerID]),
			Net:      RoundToCent(gross[ps.PlayerID] - contributions[ps.PlayerID]),
			TiedWith: tiedWith[ps.PlayerID],
		}
		if soleWinner && ps.PlayerID == activeIDs[0] {
			payout.SoleWinner = true
		} else if !soleWinner && !h.Folded(ps.PlayerID) {
			payout.Cards = revealCards(cfg.RevealPolicy, ps.HoleCards)
		}
		net += payout.Net
		payouts = append(payouts, payout)
	}

	// The nets must cancel exactly. Anything else is a bookkeeping bug and
	// must never be persisted.
	if RoundToCent(net) != 0 {
		return nil, fatalf(ErrNonZeroSum, "hand %d nets sum to %.2f", h.ID, net)
	}

	return payouts, nil
}

// distributePots builds side pots from ascending contribution tiers. Each
// tier is funded by every contributor, folded players included, up to the
// tier level; its winners are the best-ranked active players whose
// contribution reaches the tier.
func distributePots(g *Game, activeIDs []string, contributions map[string]float64, strengths map[string]handStrength) map[string]float64 {
	levels := make([]float64, 0, len(activeIDs))
	seen := map[float64]bool{}
	for _, playerID := range activeIDs {
		level := RoundToCent(contributions[playerID])
		if level > 0 && !seen[level] {
			seen[level] = true
			levels = append(levels, level)
		}
	}
	sort.Float64s(levels)

	gross := map[string]float64{}
	prev := 0.0
	for _, level := range levels {
		tier := 0.0
		for _, c := range contributions {
			tier += clamp(c, level) - clamp(c, prev)
		}
		tier = RoundToCent(tier)

		winners := tierWinners(activeIDs, contributions, strengths, level)
		if len(winners) == 0 {
			prev = level
			continue
		}

		share := FloorToIncrement(tier/float64(len(winners)), g.PotIncrement)
		remainder := RoundToCent(tier - share*float64(len(winners)))
		for i, winner := range winners {
			gross[winner] = RoundToCent(gross[winner] + share)
			if i == 0 {
				// Deterministic: the odd chip goes to the first winner in
				// tie order, never a random recipient.
				gross[winner] = RoundToCent(gross[winner] + remainder)
			}
		}
		prev = level
	}
	return gross
}

// tierWinners returns the best-ranked active players whose contribution
// reaches the tier level, in acting order.
func tierWinners(activeIDs []string, contributions map[string]float64, strengths map[string]handStrength, level float64) []string {
	eligible := make([]string, 0, len(activeIDs))
	for _, playerID := range activeIDs {
		if RoundToCent(contributions[playerID]) >= level {
			eligible = append(eligible, playerID)
		}
	}
	if len(eligible) <= 1 {
		return eligible
	}

	best := strengths[eligible[0]]
	for _, playerID := range eligible[1:] {
		if strengths[playerID] > best {
			best = strengths[playerID]
		}
	}
	winners := make([]string, 0, len(eligible))
	for _, playerID := range eligible {
		if strengths[playerID] == best {
			winners = append(winners, playerID)
		}
	}
	return winners
}

func clamp(v, limit float64) float64 {
	if v < limit {
		return v
	}
	return limit
}

// revealCards applies the show/hide policy to a player's own hole cards.
func revealCards(policy RevealPolicy, hole []Card) []Card {
	if len(hole) != 2 {
		return nil
	}
	switch policy {
	case Reveal_None:
		return nil
	case Reveal_First:
		return []Card{hole[0]}
	case Reveal_Second:
		return []Card{hole[1]}
	default:
		return []Card{hole[0], hole[1]}
	}
}

// ApplyPayouts settles the hand's payouts into player stacks and flags
// eliminations. Tournament players who bust are soft-removed; cash players
// simply sit out until they rebuy.
func ApplyPayouts(g *Game, h *Hand, now int64) []string {
	eliminated := make([]string, 0)
	for _, payout := range h.Payouts {
		p := g.FindPlayer(payout.PlayerID)
		if p == nil {
			continue
		}
		p.Stack = RoundToCent(p.Stack + payout.Net)
		if p.Stack == 0 {
			p.BustedAt = now
			if g.Type == GameType_Tournament {
				p.Active = false
				eliminated = append(eliminated, p.ID)
			}
		}
	}
	h.PayoutsApplied = true
	g.ActiveHandID = UnsetValue
	return eliminated
}
