package pokergame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// showdownHand builds a settled-betting hand with fixed cards and
// contributions, bypassing the deck.
func showdownHand(holes map[string][]Card, community []Card, contributions map[string]float64, folded ...string) *Hand {
	h := &Hand{ID: testNow}
	names := []string{"Jeffrey", "Chuck", "Fred", "Konrad", "Arnold"}
	r := &Round{Type: Round_Preflop}
	for _, name := range names {
		hole, ok := holes[name]
		if !ok {
			continue
		}
		h.PlayerStates = append(h.PlayerStates, &HandPlayerState{
			PlayerID:  name,
			HoleCards: hole,
		})
		r.Actions = append(r.Actions, &Action{
			PlayerID:     name,
			Type:         Action_Bet,
			Total:        contributions[name],
			Contribution: contributions[name],
			Voluntary:    true,
			Conforming:   true,
		})
	}
	for _, name := range folded {
		r.Actions = append(r.Actions, &Action{
			PlayerID:  name,
			Type:      Action_Fold,
			Total:     contributions[name],
			Voluntary: true,
		})
	}
	h.Rounds = []*Round{r, {Type: Round_Flop, Cards: community[:3]}, {Type: Round_Turn, Cards: community[3:4]}, {Type: Round_River, Cards: community[4:5]}}
	return h
}

func payoutNets(payouts []*Payout) map[string]float64 {
	nets := map[string]float64{}
	for _, p := range payouts {
		nets[p.PlayerID] = p.Net
	}
	return nets
}

func TestRankHandOrdering(t *testing.T) {
	community := []Card{"2c", "7d", "9h", "Js", "Qd"}

	aces, err := rankHand([]Card{"Ac", "Ad"}, community)
	assert.Nil(t, err)
	kings, err := rankHand([]Card{"Kc", "Kd"}, community)
	assert.Nil(t, err)
	assert.True(t, aces > kings)

	flushBoard := []Card{"2h", "7h", "9h", "Js", "Qd"}
	flush, err := rankHand([]Card{"Ah", "Kh"}, flushBoard)
	assert.Nil(t, err)
	straight, err := rankHand([]Card{"Td", "8c"}, flushBoard)
	assert.Nil(t, err)
	assert.True(t, flush > straight)

	_, err = rankHand([]Card{"Ah"}, community)
	assert.NotNil(t, err)
}

func TestShowdownSingleWinnerZeroSum(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)
	h := showdownHand(
		map[string][]Card{
			"Jeffrey": {"Jh", "Th"},
			"Chuck":   {"As", "Ad"},
			"Fred":    {"2d", "2s"},
		},
		[]Card{"Ah", "Kh", "Qh", "2c", "3d"},
		map[string]float64{"Jeffrey": 30, "Chuck": 30, "Fred": 30},
	)

	payouts, err := ResolveShowdown(cfg, g, h)
	assert.Nil(t, err)

	nets := payoutNets(payouts)
	assert.Equal(t, 60.0, nets["Jeffrey"])
	assert.Equal(t, -30.0, nets["Chuck"])
	assert.Equal(t, -30.0, nets["Fred"])

	// showdown participants reveal per policy, nobody is a sole winner
	for _, p := range payouts {
		assert.False(t, p.SoleWinner)
		assert.Equal(t, 2, len(p.Cards))
	}
}

func TestShowdownSidePots(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150, 150)

	// short stack holds the best hand: wins only the main pot it covered
	h := showdownHand(
		map[string][]Card{
			"Jeffrey": {"Ac", "Ad"},
			"Chuck":   {"Kc", "Kd"},
			"Fred":    {"Qc", "3c"},
		},
		[]Card{"2c", "7d", "9h", "Js", "Qd"},
		map[string]float64{"Jeffrey": 20, "Chuck": 50, "Fred": 50},
	)

	payouts, err := ResolveShowdown(cfg, g, h)
	assert.Nil(t, err)

	nets := payoutNets(payouts)
	assert.Equal(t, 40.0, nets["Jeffrey"])
	assert.Equal(t, 10.0, nets["Chuck"])
	assert.Equal(t, -50.0, nets["Fred"])
}

func TestShowdownTieSplitsWithOddCent(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(1, 1, 1)

	// both live players play the board; the folded player funds the pot
	h := showdownHand(
		map[string][]Card{
			"Jeffrey": {"2c", "3d"},
			"Chuck":   {"2h", "3s"},
			"Fred":    {"9c", "9d"},
		},
		[]Card{"Ah", "Kh", "Qd", "Jc", "Tc"},
		map[string]float64{"Jeffrey": 0.05, "Chuck": 0.05, "Fred": 0.05},
		"Fred",
	)

	payouts, err := ResolveShowdown(cfg, g, h)
	assert.Nil(t, err)

	nets := payoutNets(payouts)
	// 0.15 pot, 0.07 each, odd cent to the first winner in acting order
	assert.Equal(t, 0.03, nets["Jeffrey"])
	assert.Equal(t, 0.02, nets["Chuck"])
	assert.Equal(t, -0.05, nets["Fred"])

	h.Payouts = payouts
	assert.Equal(t, []string{"Chuck"}, h.findPayout("Jeffrey").TiedWith)
}

func TestShowdownReturnsUncalledBet(t *testing.T) {
	cfg := DefaultConfig()
	g := newTestGame(150, 150)

	// the over-bet portion nobody matched flows straight back
	h := showdownHand(
		map[string][]Card{
			"Jeffrey": {"Kc", "Kd"},
			"Chuck":   {"Ac", "Ad"},
		},
		[]Card{"2c", "7d", "9h", "Js", "Qd"},
		map[string]float64{"Jeffrey": 100, "Chuck": 40},
	)

	payouts, err := ResolveShowdown(cfg, g, h)
	assert.Nil(t, err)

	nets := payoutNets(payouts)
	assert.Equal(t, 40.0, nets["Chuck"])
	assert.Equal(t, -40.0, nets["Jeffrey"])
}

func TestApplyPayoutsEliminatesTournamentBusts(t *testing.T) {
	g := newTestGame(0, 150)
	g.Type = GameType_Tournament
	g.FindPlayer("Jeffrey").Stack = 30

	h := &Hand{
		ID: testNow,
		Payouts: []*Payout{
			{PlayerID: "Jeffrey", Net: -30},
			{PlayerID: "Chuck", Net: 30},
		},
	}
	g.Hands = []*Hand{h}
	g.ActiveHandID = h.ID

	eliminated := ApplyPayouts(g, h, testNow)
	assert.Equal(t, []string{"Jeffrey"}, eliminated)

	jeffrey := g.FindPlayer("Jeffrey")
	assert.Equal(t, 0.0, jeffrey.Stack)
	assert.False(t, jeffrey.Active)
	assert.Equal(t, testNow, jeffrey.BustedAt)
	assert.Equal(t, 180.0, g.FindPlayer("Chuck").Stack)
	assert.True(t, h.PayoutsApplied)
	assert.Equal(t, int64(UnsetValue), g.ActiveHandID)
}

func TestApplyPayoutsCashBustStaysSeated(t *testing.T) {
	g := newTestGame(30, 150)
	h := &Hand{
		ID: testNow,
		Payouts: []*Payout{
			{PlayerID: "Jeffrey", Net: -30},
			{PlayerID: "Chuck", Net: 30},
		},
	}
	g.Hands = []*Hand{h}
	g.ActiveHandID = h.ID

	eliminated := ApplyPayouts(g, h, testNow)
	assert.Empty(t, eliminated)

	// a busted cash player keeps the seat until they rebuy or leave
	jeffrey := g.FindPlayer("Jeffrey")
	assert.True(t, jeffrey.Active)
	assert.Equal(t, testNow, jeffrey.BustedAt)
}
