package pokergame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartHandPositions(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)

	hand, err := StartHand(cfg, g, testNow, 42)
	assert.Nil(t, err)

	// first hand: button on the first seat, blinds clockwise from it
	assert.Equal(t, "Jeffrey", hand.DealerID)
	assert.Equal(t, "Chuck", hand.SmallBlindID)
	assert.Equal(t, "Fred", hand.BigBlindID)

	// acting order starts after the dealer, dealer last
	assert.Equal(t, "Chuck", hand.PlayerStates[0].PlayerID)
	assert.Equal(t, "Fred", hand.PlayerStates[1].PlayerID)
	assert.Equal(t, "Jeffrey", hand.PlayerStates[2].PlayerID)
	assert.Equal(t, hand.ID, g.ActiveHandID)
}

func TestStartHandHeadsUpBlinds(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150)

	hand, err := StartHand(cfg, g, testNow, 42)
	assert.Nil(t, err)
	assert.Equal(t, "Jeffrey", hand.DealerID)
	assert.Equal(t, "Jeffrey", hand.SmallBlindID)
	assert.Equal(t, "Chuck", hand.BigBlindID)

	// the dealer posts the small blind and opens the preflop action
	result, err := Advance(cfg, g, nil, testNow)
	assert.Nil(t, err)
	assert.Equal(t, "Jeffrey", result.ActingPlayerID)
}

func TestStartHandDealerRotates(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)

	dealTestHand(t, cfg, g)
	submit(t, cfg, g, "Jeffrey", Action_Fold, 0)
	submit(t, cfg, g, "Chuck", Action_Fold, 0)

	hand, err := StartHand(cfg, g, testNow+1, 43)
	assert.Nil(t, err)
	assert.Equal(t, "Chuck", hand.DealerID)
	assert.True(t, hand.ID > testNow)
}

func TestStartHandRejectsUnsettled(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	_, err := StartHand(cfg, g, testNow+1, 43)
	assert.ErrorIs(t, err, ErrHandNotCompleted)
	assert.True(t, IsFatal(err))
}

func TestStartHandNotEnoughPlayers(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150)

	_, err := StartHand(cfg, g, testNow, 42)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestPreflopBlindsAndFirstToAct(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)

	result := dealTestHand(t, cfg, g)

	// the player after the big blind opens
	assert.Equal(t, "Jeffrey", result.ActingPlayerID)

	hand := g.ActiveHand()
	r := hand.ActiveRound()
	assert.Equal(t, Round_Preflop, r.Type)
	assert.Equal(t, 2, len(r.Actions))
	assert.Equal(t, 5.0, r.Actions[0].Total)
	assert.Equal(t, 10.0, r.Actions[1].Total)
	assert.False(t, r.Actions[0].Voluntary)
	assert.False(t, r.Actions[1].Voluntary)

	// everyone holds two cards and the cursor persisted
	for _, ps := range hand.PlayerStates {
		assert.Equal(t, 2, len(ps.HoleCards))
	}
	assert.Equal(t, 6, hand.CardsDealt)
}

func TestAdvanceRejectsWrongTurn(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	before, err := g.GetJSON()
	assert.Nil(t, err)

	_, err = Advance(cfg, g, &ActionRequest{PlayerID: "Fred", Type: Action_Fold}, testNow)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = Advance(cfg, g, &ActionRequest{PlayerID: "Jeffrey"}, testNow)
	assert.ErrorIs(t, err, ErrNoActionSubmitted)

	// a rejected action mutates nothing
	after, err := g.GetJSON()
	assert.Nil(t, err)
	assert.Equal(t, before, after)
}

func TestBigBlindGetsOption(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	result := submit(t, cfg, g, "Jeffrey", Action_Call, 10)
	assert.Equal(t, "Chuck", result.ActingPlayerID)
	result = submit(t, cfg, g, "Chuck", Action_Call, 10)

	// everyone has matched the blind, but the big blind still gets a say
	assert.Equal(t, Directive_PlayerAction, result.Directive)
	assert.Equal(t, "Fred", result.ActingPlayerID)
	assert.NotNil(t, findOption(result.LegalActions, Action_Check))

	result = submit(t, cfg, g, "Fred", Action_Check, 0)
	assert.Equal(t, Directive_PlayerAction, result.Directive)

	// the flop opened with three cards and the small blind acts first
	flop := g.ActiveHand().ActiveRound()
	assert.Equal(t, Round_Flop, flop.Type)
	assert.Equal(t, 3, len(flop.Cards))
	assert.Equal(t, "Chuck", result.ActingPlayerID)
}

func TestFoldToOneShortCircuits(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	submit(t, cfg, g, "Jeffrey", Action_Fold, 0)
	result := submit(t, cfg, g, "Chuck", Action_Fold, 0)

	assert.Equal(t, Directive_ShortHandPayout, result.Directive)

	hand := g.ActiveHand()
	assert.Nil(t, hand)
	assert.Equal(t, int64(UnsetValue), g.ActiveHandID)

	// the big blind collects the small blind without showing cards
	settled := g.Hands[0]
	assert.True(t, settled.PayoutsApplied)
	winner := settled.findPayout("Fred")
	assert.True(t, winner.SoleWinner)
	assert.Nil(t, winner.Cards)
	assert.Equal(t, 5.0, winner.Net)
	assert.Equal(t, 155.0, g.FindPlayer("Fred").Stack)
	assert.Equal(t, 145.0, g.FindPlayer("Chuck").Stack)
	assert.Equal(t, 150.0, g.FindPlayer("Jeffrey").Stack)
}

func TestRaiseAmountValidation(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	dealTestHand(t, cfg, g)

	// min raise over the big blind is to 20
	_, err := Advance(cfg, g, &ActionRequest{PlayerID: "Jeffrey", Type: Action_Raise, Amount: 15}, testNow)
	assert.ErrorIs(t, err, ErrIllegalActionAmount)

	_, err = Advance(cfg, g, &ActionRequest{PlayerID: "Jeffrey", Type: Action_Raise, Amount: 500}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	result := submit(t, cfg, g, "Jeffrey", Action_Raise, 30)
	assert.Equal(t, "Chuck", result.ActingPlayerID)

	r := g.ActiveHand().ActiveRound()
	last := r.LastAction("Jeffrey")
	assert.Equal(t, 30.0, last.Total)
	assert.Equal(t, 20.0, last.Raise)
	assert.True(t, last.Conforming)

	// the minimum re-raise now carries the 20 raise size
	assert.Equal(t, 20.0, r.MinRaiseSize(g.BigBlind))
}

func TestFullHandReachesShowdown(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	before := totalChips(g)

	dealTestHand(t, cfg, g)
	result := checkDown(t, cfg, g)

	assert.Equal(t, Directive_HandPayout, result.Directive)
	assert.Equal(t, before, totalChips(g))

	hand := g.Hands[0]
	assert.True(t, hand.PayoutsApplied)
	assert.Equal(t, 5, len(hand.CommunityCards()))
	assert.Nil(t, hand.ActiveRound())

	net := 0.0
	for _, payout := range hand.Payouts {
		net += payout.Net
	}
	assert.Equal(t, 0.0, RoundToCent(net))
}

func TestAdvanceWithoutActiveHand(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150)

	_, err := Advance(cfg, g, nil, testNow)
	assert.ErrorIs(t, err, ErrNoActiveHand)
}
