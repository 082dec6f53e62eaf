package pokergame

import (
	"bytes"
	"encoding/json"
	"sort"
)

// GamePatch is a minimal field-level diff between two versions of a table
// document. Scalars are present only when changed; players and hands carry
// the full new value of only the entries that changed. The gateway commits
// patches, never whole documents, so concurrent unrelated fields survive.
type GamePatch struct {
	Type         *string `json:"type,omitempty"`
	BigBlind     *float64 `json:"big_blind,omitempty"`
	PotIncrement *float64 `json:"pot_increment,omitempty"`
	ActiveHandID *int64   `json:"active_hand_id,omitempty"`
	UpdateAt     *int64   `json:"update_at,omitempty"`
	UpdateSerial *int64   `json:"update_serial,omitempty"`

	Players        map[string]*Player `json:"players,omitempty"`
	RemovedPlayers []string           `json:"removed_players,omitempty"`
	Hands          map[int64]*Hand    `json:"hands,omitempty"`
}

// Empty reports whether the patch carries no changes at all.
func (p *GamePatch) Empty() bool {
	return p.Type == nil && p.BigBlind == nil && p.PotIncrement == nil &&
		p.ActiveHandID == nil && p.UpdateAt == nil && p.UpdateSerial == nil &&
		len(p.Players) == 0 && len(p.RemovedPlayers) == 0 && len(p.Hands) == 0
}

// DiffGame computes the patch that turns old into updated. Both documents must
// share the same ID; element equality is judged on the JSON form, the same
// representation the store persists.
func DiffGame(old, updated *Game) (*GamePatch, error) {
	patch := &GamePatch{}

	if old.Type != updated.Type {
		patch.Type = &updated.Type
	}
	if old.BigBlind != updated.BigBlind {
		patch.BigBlind = &updated.BigBlind
	}
	if old.PotIncrement != updated.PotIncrement {
		patch.PotIncrement = &updated.PotIncrement
	}
	if old.ActiveHandID != updated.ActiveHandID {
		patch.ActiveHandID = &updated.ActiveHandID
	}
	if old.UpdateAt != updated.UpdateAt {
		patch.UpdateAt = &updated.UpdateAt
	}
	if old.UpdateSerial != updated.UpdateSerial {
		patch.UpdateSerial = &updated.UpdateSerial
	}

	oldPlayers := map[string]*Player{}
	for _, p := range old.Players {
		oldPlayers[p.ID] = p
	}
	for _, p := range updated.Players {
		prev, exists := oldPlayers[p.ID]
		if !exists {
			addPlayerToPatch(patch, p)
			continue
		}
		same, err := jsonEqual(prev, p)
		if err != nil {
			return nil, err
		}
		if !same {
			addPlayerToPatch(patch, p)
		}
	}
	for _, p := range old.Players {
		if updated.FindPlayer(p.ID) == nil {
			patch.RemovedPlayers = append(patch.RemovedPlayers, p.ID)
		}
	}
	sort.Strings(patch.RemovedPlayers)

	oldHands := map[int64]*Hand{}
	for _, h := range old.Hands {
		oldHands[h.ID] = h
	}
	for _, h := range updated.Hands {
		prev, exists := oldHands[h.ID]
		if !exists {
			addHandToPatch(patch, h)
			continue
		}
		same, err := jsonEqual(prev, h)
		if err != nil {
			return nil, err
		}
		if !same {
			addHandToPatch(patch, h)
		}
	}

	return patch, nil
}

// ApplyPatch merges a patch into the document in place. Only supplied fields
// are touched.
func ApplyPatch(g *Game, patch *GamePatch) {
	if patch.Type != nil {
		g.Type = *patch.Type
	}
	if patch.BigBlind != nil {
		g.BigBlind = *patch.BigBlind
	}
	if patch.PotIncrement != nil {
		g.PotIncrement = *patch.PotIncrement
	}
	if patch.ActiveHandID != nil {
		g.ActiveHandID = *patch.ActiveHandID
	}
	if patch.UpdateAt != nil {
		g.UpdateAt = *patch.UpdateAt
	}
	if patch.UpdateSerial != nil {
		g.UpdateSerial = *patch.UpdateSerial
	}

	for _, removedID := range patch.RemovedPlayers {
		for i, p := range g.Players {
			if p.ID == removedID {
				g.Players = append(g.Players[:i], g.Players[i+1:]...)
				break
			}
		}
	}
	for _, p := range patch.Players {
		replaced := false
		for i, existing := range g.Players {
			if existing.ID == p.ID {
				g.Players[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			g.Players = append(g.Players, p)
		}
	}
	sort.Slice(g.Players, func(i, j int) bool {
		return g.Players[i].Position < g.Players[j].Position
	})

	for _, h := range patch.Hands {
		replaced := false
		for i, existing := range g.Hands {
			if existing.ID == h.ID {
				g.Hands[i] = h
				replaced = true
				break
			}
		}
		if !replaced {
			g.Hands = append(g.Hands, h)
		}
	}
	sort.Slice(g.Hands, func(i, j int) bool {
		return g.Hands[i].ID < g.Hands[j].ID
	})
}

func addPlayerToPatch(patch *GamePatch, p *Player) {
	if patch.Players == nil {
		patch.Players = map[string]*Player{}
	}
	patch.Players[p.ID] = p
}

func addHandToPatch(patch *GamePatch, h *Hand) {
	if patch.Hands == nil {
		patch.Hands = map[int64]*Hand{}
	}
	patch.Hands[h.ID] = h
}

func jsonEqual(a, b interface{}) (bool, error) {
	encodedA, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	encodedB, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(encodedA, encodedB), nil
}
