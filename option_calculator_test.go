package pokergame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsFacingABet(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	result := dealTestHand(t, cfg, g)

	// opener faces the big blind: fold, call, raise, all-in in that order
	assert.Equal(t,
		[]ActionType{Action_Fold, Action_Call, Action_Raise, Action_AllIn},
		optionTypes(result.LegalActions))

	call := findOption(result.LegalActions, Action_Call)
	assert.Equal(t, 10.0, call.Total)
	assert.Equal(t, 10.0, call.Contribution)
	assert.False(t, call.AllIn)

	raise := findOption(result.LegalActions, Action_Raise)
	assert.Equal(t, 20.0, raise.Total)
	assert.Equal(t, 10.0, raise.Raise)
	assert.True(t, raise.Conforming)

	allIn := findOption(result.LegalActions, Action_AllIn)
	assert.Equal(t, 150.0, allIn.Total)
	assert.True(t, allIn.AllIn)
	assert.True(t, allIn.Conforming)
}

func TestOptionsAreDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	h := g.ActiveHand()
	r := h.ActiveRound()
	first, err := OptionsForPlayer(g, h, r, "Jeffrey")
	assert.Nil(t, err)
	second, err := OptionsForPlayer(g, h, r, "Jeffrey")
	assert.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestOptionsFirstPostflopAction(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	submit(t, cfg, g, "Jeffrey", Action_Call, 10)
	submit(t, cfg, g, "Chuck", Action_Call, 10)
	result := submit(t, cfg, g, "Fred", Action_Check, 0)

	// nothing wagered yet: the aggressive option is a bet, not a raise
	assert.Equal(t,
		[]ActionType{Action_Fold, Action_Check, Action_Bet, Action_AllIn},
		optionTypes(result.LegalActions))

	bet := findOption(result.LegalActions, Action_Bet)
	assert.Equal(t, 10.0, bet.Total)
	assert.Equal(t, 10.0, bet.Raise)
}

func TestUndersizedAllInDoesNotResetMinRaise(t *testing.T) {
	g := newTestGame(200, 15, 200)
	h := &Hand{
		ID: testNow,
		PlayerStates: []*HandPlayerState{
			{PlayerID: "Jeffrey", StartingStack: 200},
			{PlayerID: "Chuck", StartingStack: 15},
			{PlayerID: "Fred", StartingStack: 200},
		},
	}
	r := &Round{
		Type:   Round_Flop,
		Active: true,
		Actions: []*Action{
			{PlayerID: "Jeffrey", Type: Action_Bet, Total: 10, Raise: 10, Contribution: 10, Voluntary: true, Conforming: true},
			{PlayerID: "Chuck", Type: Action_AllIn, Total: 15, Raise: 5, Contribution: 15, AllIn: true, Voluntary: true, Conforming: false},
		},
	}
	h.Rounds = []*Round{r}

	// the 5-chip all-in bump is under-sized; the minimum stays the big blind
	assert.Equal(t, 10.0, r.MinRaiseSize(g.BigBlind))

	options, err := OptionsForPlayer(g, h, r, "Fred")
	assert.Nil(t, err)
	raise := findOption(options, Action_Raise)
	assert.NotNil(t, raise)
	assert.Equal(t, 25.0, raise.Total)
	assert.Equal(t, 10.0, raise.Raise)
}

func TestNoRaiseWhenOpponentAllIn(t *testing.T) {
	g := newTestGame(50, 200)
	h := &Hand{
		ID: testNow,
		PlayerStates: []*HandPlayerState{
			{PlayerID: "Jeffrey", StartingStack: 50},
			{PlayerID: "Chuck", StartingStack: 200},
		},
	}
	r := &Round{
		Type:   Round_Flop,
		Active: true,
		Actions: []*Action{
			{PlayerID: "Jeffrey", Type: Action_AllIn, Total: 50, Raise: 50, Contribution: 50, AllIn: true, Voluntary: true, Conforming: true},
		},
	}
	h.Rounds = []*Round{r}

	// raising an all-in nobody can answer is pointless; call or get out
	options, err := OptionsForPlayer(g, h, r, "Chuck")
	assert.Nil(t, err)
	assert.Equal(t,
		[]ActionType{Action_Fold, Action_Call, Action_AllIn},
		optionTypes(options))
	assert.Equal(t, 50.0, findOption(options, Action_Call).Total)
}

func TestShortStackCallIsAllIn(t *testing.T) {
	g := newTestGame(200, 30)
	h := &Hand{
		ID: testNow,
		PlayerStates: []*HandPlayerState{
			{PlayerID: "Jeffrey", StartingStack: 200},
			{PlayerID: "Chuck", StartingStack: 30},
		},
	}
	r := &Round{
		Type:   Round_Flop,
		Active: true,
		Actions: []*Action{
			{PlayerID: "Jeffrey", Type: Action_Bet, Total: 80, Raise: 80, Contribution: 80, Voluntary: true, Conforming: true},
		},
	}
	h.Rounds = []*Round{r}

	options, err := OptionsForPlayer(g, h, r, "Chuck")
	assert.Nil(t, err)
	call := findOption(options, Action_Call)
	assert.Equal(t, 30.0, call.Total)
	assert.True(t, call.AllIn)
	assert.Nil(t, findOption(options, Action_Raise))
}

func TestOptionsDetectLostUpdate(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	h := g.ActiveHand()
	r := h.ActiveRound()
	r.Actions[0].Contribution = 3 // corrupt the bookkeeping

	_, err := OptionsForPlayer(g, h, r, "Jeffrey")
	assert.ErrorIs(t, err, ErrLostUpdate)
	assert.True(t, IsFatal(err))
}
