package pokergame

import (
	"encoding/json"
	"sort"

	"github.com/thoas/go-funk"
)

// Game is the persisted table document. Players are kept sorted by seating
// position; at most one hand is unsettled at a time.
type Game struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id,omitempty"`
	Type         string    `json:"type"`
	BigBlind     float64   `json:"big_blind"`
	PotIncrement float64   `json:"pot_increment"`
	Players      []*Player `json:"players"`
	Hands        []*Hand   `json:"hands"`
	ActiveHandID int64     `json:"active_hand_id"`
	UpdateAt     int64     `json:"update_at"`
	UpdateSerial int64     `json:"update_serial"`
}

// Player is a seated participant. Stack is the chips not yet wagered in the
// current hand; betting subtracts from it only when payouts are applied.
type Player struct {
	ID       string  `json:"id"`
	Stack    float64 `json:"stack"`
	Active   bool    `json:"active"`
	Away     bool    `json:"away"`
	Position int     `json:"position"`
	BustedAt int64   `json:"busted_at,omitempty"`
}

func (g *Game) FindPlayer(playerID string) *Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// ActivePlayers returns seated players still in the game, in position order.
func (g *Game) ActivePlayers() []*Player {
	players := funk.Filter(g.Players, func(p *Player) bool {
		return p.Active
	}).([]*Player)
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})
	return players
}

// DealablePlayers returns active players holding chips, in position order.
// Away players are dealt in; their turns resolve through the timeout policy.
func (g *Game) DealablePlayers() []*Player {
	players := funk.Filter(g.ActivePlayers(), func(p *Player) bool {
		return p.Stack > 0
	}).([]*Player)
	return players
}

// ActiveHand returns the hand identified by ActiveHandID, or nil.
func (g *Game) ActiveHand() *Hand {
	if g.ActiveHandID == UnsetValue || g.ActiveHandID == 0 {
		return nil
	}
	for _, h := range g.Hands {
		if h.ID == g.ActiveHandID {
			return h
		}
	}
	return nil
}

// UnsettledHand returns the hand whose payouts have not been applied, or nil.
// More than one unsettled hand violates the table invariant, which the caller
// treats as a state-integrity failure.
func (g *Game) UnsettledHand() (*Hand, error) {
	var found *Hand
	for _, h := range g.Hands {
		if h.PayoutsApplied {
			continue
		}
		if found != nil {
			return nil, fatalf(ErrHandNotCompleted, "hands %d and %d both unsettled", found.ID, h.ID)
		}
		found = h
	}
	return found, nil
}

// NextPosition returns the lowest free seating position.
func (g *Game) NextPosition() int {
	pos := 0
	for _, p := range g.Players {
		if p.Position >= pos {
			pos = p.Position + 1
		}
	}
	return pos
}

// Clone deep-copies the document through its JSON form, so engine runs can
// work on a scratch copy and diff against the original.
func (g *Game) Clone() (*Game, error) {
	encoded, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var cloned Game
	if err := json.Unmarshal(encoded, &cloned); err != nil {
		return nil, err
	}
	return &cloned, nil
}

func (g *Game) GetJSON() (string, error) {
	encoded, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
