package pokergame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testNow = int64(1700000000000)

// newTestGame seats players in order with the given stacks, big blind 10.
func newTestGame(stacks ...float64) *Game {
	names := []string{"Jeffrey", "Chuck", "Fred", "Konrad", "Arnold"}
	g := &Game{
		ID:           "table-test",
		Type:         GameType_Cash,
		BigBlind:     10,
		PotIncrement: 0.01,
		ActiveHandID: UnsetValue,
	}
	for i, stack := range stacks {
		g.Players = append(g.Players, &Player{
			ID:       names[i],
			Stack:    stack,
			Active:   true,
			Position: i,
		})
	}
	return g
}

// dealTestHand starts a hand and advances to the first decision.
func dealTestHand(t *testing.T, cfg Config, g *Game) *Result {
	_, err := StartHand(cfg, g, testNow, 42)
	assert.Nil(t, err)

	result, err := Advance(cfg, g, nil, testNow)
	assert.Nil(t, err)
	assert.Equal(t, Directive_PlayerAction, result.Directive)
	return result
}

// submit plays one action and returns the next directive.
func submit(t *testing.T, cfg Config, g *Game, playerID string, at ActionType, amount float64) *Result {
	result, err := Advance(cfg, g, &ActionRequest{PlayerID: playerID, Type: at, Amount: amount}, testNow)
	assert.Nil(t, err)
	return result
}

// checkDown plays the cheapest available action for everyone until the hand
// settles, and returns the payout directive.
func checkDown(t *testing.T, cfg Config, g *Game) *Result {
	for i := 0; i < 100; i++ {
		result, err := Advance(cfg, g, nil, testNow)
		assert.Nil(t, err)
		if result.Directive != Directive_PlayerAction {
			return result
		}
		forced := cheapestOption(result.LegalActions)
		if forced.Type == Action_Fold {
			// checkDown never folds; call instead
			for _, o := range result.LegalActions {
				if o.Type == Action_Call {
					forced = o
				}
			}
		}
		result, err = Advance(cfg, g, &ActionRequest{
			PlayerID: result.ActingPlayerID,
			Type:     forced.Type,
			Amount:   forced.Total,
		}, testNow)
		assert.Nil(t, err)
		if result.Directive != Directive_PlayerAction {
			return result
		}
	}
	t.Fatal("hand did not settle")
	return nil
}

func totalChips(g *Game) float64 {
	total := 0.0
	for _, p := range g.Players {
		total += p.Stack
	}
	return RoundToCent(total)
}

func optionTypes(options []*Action) []ActionType {
	types := make([]ActionType, 0, len(options))
	for _, o := range options {
		types = append(types, o.Type)
	}
	return types
}

func findOption(options []*Action, at ActionType) *Action {
	for _, o := range options {
		if o.Type == at {
			return o
		}
	}
	return nil
}
