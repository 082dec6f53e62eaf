package pokergame

import (
	"github.com/thoas/go-funk"
)

// Hand is one deal of the game. Its ID is a monotonic unix-millisecond
// timestamp used as a causal ordering key across hands. Once PayoutsApplied
// is set the hand is immutable.
type Hand struct {
	ID             int64              `json:"id"`
	DealerID       string             `json:"dealer_id"`
	SmallBlindID   string             `json:"small_blind_id"`
	BigBlindID     string             `json:"big_blind_id"`
	Rounds         []*Round           `json:"rounds"`
	PlayerStates   []*HandPlayerState `json:"player_states"`
	DeckSeed       int64              `json:"deck_seed"`
	DeckAlgorithm  string             `json:"deck_algorithm,omitempty"`
	CardsDealt     int                `json:"cards_dealt"`
	Payouts        []*Payout          `json:"payouts,omitempty"`
	PayoutsApplied bool               `json:"payouts_applied"`
}

// HandPlayerState snapshots a participant at deal time. PlayerStates are held
// in acting order: seating order starting with the seat after the dealer, so
// the dealer is last.
type HandPlayerState struct {
	PlayerID      string  `json:"player_id"`
	HoleCards     []Card  `json:"hole_cards"`
	StartingStack float64 `json:"starting_stack"`
}

// Round is one street of betting. Exactly one round of a hand is active at a
// time, or none once the hand has moved to payout.
type Round struct {
	Type             RoundType `json:"type"`
	Cards            []Card    `json:"cards,omitempty"`
	Actions          []*Action `json:"actions"`
	Active           bool      `json:"active"`
	FirstToActOffset int       `json:"first_to_act_offset"`
	OpenedAt         int64     `json:"opened_at"`
}

// Action is immutable once appended. Total is the cumulative chips the player
// has committed this round; Contribution is what this action added.
type Action struct {
	PlayerID     string     `json:"player_id"`
	Type         ActionType `json:"type"`
	Total        float64    `json:"total"`
	Raise        float64    `json:"raise,omitempty"`
	Contribution float64    `json:"contribution"`
	AllIn        bool       `json:"all_in,omitempty"`
	Voluntary    bool       `json:"voluntary"`
	Conforming   bool       `json:"conforming"`
	Forced       bool       `json:"forced,omitempty"`
	Time         int64      `json:"time"`
}

// Payout is the terminal money record for one participant. Net is payout
// minus contribution; the nets of a resolved hand sum to exactly zero.
type Payout struct {
	PlayerID   string   `json:"player_id"`
	Net        float64  `json:"net"`
	Gross      float64  `json:"gross"`
	Cards      []Card   `json:"cards,omitempty"`
	SoleWinner bool     `json:"sole_winner,omitempty"`
	TiedWith   []string `json:"tied_with,omitempty"`
}

func (h *Hand) PlayerState(playerID string) *HandPlayerState {
	for _, ps := range h.PlayerStates {
		if ps.PlayerID == playerID {
			return ps
		}
	}
	return nil
}

// ActiveRound returns the round currently open for betting, or nil.
func (h *Hand) ActiveRound() *Round {
	for _, r := range h.Rounds {
		if r.Active {
			return r
		}
	}
	return nil
}

func (h *Hand) Round(rt RoundType) *Round {
	for _, r := range h.Rounds {
		if r.Type == rt {
			return r
		}
	}
	return nil
}

// CommunityCards returns all community cards dealt so far, street by street.
func (h *Hand) CommunityCards() []Card {
	cards := make([]Card, 0, 5)
	for _, r := range h.Rounds {
		cards = append(cards, r.Cards...)
	}
	return cards
}

// Folded reports whether the player has folded at any street of this hand.
func (h *Hand) Folded(playerID string) bool {
	for _, r := range h.Rounds {
		for _, a := range r.Actions {
			if a.PlayerID == playerID && a.Type == Action_Fold {
				return true
			}
		}
	}
	return false
}

// WentAllIn reports whether the player has committed their whole stack.
func (h *Hand) WentAllIn(playerID string) bool {
	for _, r := range h.Rounds {
		for _, a := range r.Actions {
			if a.PlayerID == playerID && a.AllIn {
				return true
			}
		}
	}
	return false
}

// Contribution sums the player's committed chips across all rounds.
func (h *Hand) Contribution(playerID string) float64 {
	total := 0.0
	for _, r := range h.Rounds {
		total += r.PlayerTotal(playerID)
	}
	return RoundToCent(total)
}

// RemainingBalance is the player's stack minus everything committed this hand.
func (h *Hand) RemainingBalance(g *Game, playerID string) (float64, error) {
	p := g.FindPlayer(playerID)
	if p == nil {
		return 0, ErrPlayerNotFound
	}
	return RoundToCent(p.Stack - h.Contribution(playerID)), nil
}

// ActivePlayerIDs returns hand participants who have not folded and are still
// seated, in acting order.
func (h *Hand) ActivePlayerIDs(g *Game) []string {
	ids := make([]string, 0, len(h.PlayerStates))
	for _, ps := range h.PlayerStates {
		p := g.FindPlayer(ps.PlayerID)
		if p == nil || !p.Active {
			continue
		}
		if h.Folded(ps.PlayerID) {
			continue
		}
		ids = append(ids, ps.PlayerID)
	}
	return ids
}

// Deck rebuilds the hand's deck at its persisted cursor.
func (h *Hand) Deck() *Deck {
	return NewDeckAt(h.DeckSeed, h.DeckAlgorithm, h.CardsDealt)
}

// PlayerTotal returns the cumulative chips the player has committed this
// round, taken from their latest action. Folds carry the prior total forward.
func (r *Round) PlayerTotal(playerID string) float64 {
	if a := r.LastAction(playerID); a != nil {
		return a.Total
	}
	return 0
}

func (r *Round) LastAction(playerID string) *Action {
	for i := len(r.Actions) - 1; i >= 0; i-- {
		if r.Actions[i].PlayerID == playerID {
			return r.Actions[i]
		}
	}
	return nil
}

// HasActed reports whether the player has made any move this round.
func (r *Round) HasActed(playerID string) bool {
	return r.LastAction(playerID) != nil
}

// MaxOtherTotal finds the highest committed total among players other than
// playerID. Ties between equal totals resolve in favor of a non-all-in
// action, so the reported allIn flag only binds when every action at the top
// total was an all-in.
func (r *Round) MaxOtherTotal(playerID string) (float64, bool) {
	maxTotal := 0.0
	maxAllIn := false
	seen := map[string]bool{}
	for i := len(r.Actions) - 1; i >= 0; i-- {
		a := r.Actions[i]
		if a.PlayerID == playerID || seen[a.PlayerID] {
			continue
		}
		seen[a.PlayerID] = true
		if a.Total > maxTotal {
			maxTotal = a.Total
			maxAllIn = a.AllIn
		} else if centEqual(a.Total, maxTotal) && maxAllIn && !a.AllIn {
			maxAllIn = false
		}
	}
	return RoundToCent(maxTotal), maxAllIn
}

// MinRaiseSize is the smallest legal raise over the current max bet: the big
// blind, or the last conforming raise if larger. Under-sized all-in raises do
// not reset the minimum.
func (r *Round) MinRaiseSize(bigBlind float64) float64 {
	min := bigBlind
	for _, a := range r.Actions {
		if a.Raise > 0 && a.Conforming && a.Raise > min {
			min = a.Raise
		}
	}
	return RoundToCent(min)
}

// VerifyContributions recomputes every player's round total from their
// actions' contributions and cross-checks it against the stored cumulative
// totals. A mismatch is a lost update and must abort the operation.
func (r *Round) VerifyContributions() error {
	sums := map[string]float64{}
	for _, a := range r.Actions {
		sums[a.PlayerID] += a.Contribution
	}
	for playerID, sum := range sums {
		if !centEqual(sum, r.PlayerTotal(playerID)) {
			return fatalf(ErrLostUpdate, "player %s: contributions %.2f, total %.2f", playerID, sum, r.PlayerTotal(playerID))
		}
	}
	return nil
}

// findPayout returns the payout record for playerID, or nil.
func (h *Hand) findPayout(playerID string) *Payout {
	if p, ok := funk.Find(h.Payouts, func(p *Payout) bool {
		return p.PlayerID == playerID
	}).(*Payout); ok {
		return p
	}
	return nil
}
