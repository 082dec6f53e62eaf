package pokergame

const (
	// General
	UnsetValue = -1

	// GameType
	GameType_Cash       = "cash"
	GameType_Tournament = "tournament"
)

// ActionType is the closed set of directives a submitted action can carry.
type ActionType string

const (
	Action_Fold  ActionType = "fold"
	Action_Check ActionType = "check"
	Action_Call  ActionType = "call"
	Action_Bet   ActionType = "bet"
	Action_Raise ActionType = "raise"
	Action_AllIn ActionType = "allin"
)

// RoundType identifies the street a betting round belongs to.
type RoundType string

const (
	Round_Preflop RoundType = "preflop"
	Round_Flop    RoundType = "flop"
	Round_Turn    RoundType = "turn"
	Round_River   RoundType = "river"
)

// DirectiveKind is the engine's verdict on what should happen next.
type DirectiveKind string

const (
	Directive_PlayerAction    DirectiveKind = "player_action"
	Directive_ShortHandPayout DirectiveKind = "short_hand_payout"
	Directive_HandPayout      DirectiveKind = "hand_payout"
	Directive_NextHand        DirectiveKind = "next_hand"
)

// RevealPolicy controls which of a requesting player's own hole cards are
// revealed at showdown.
type RevealPolicy string

const (
	Reveal_None   RevealPolicy = "show_none"
	Reveal_First  RevealPolicy = "show_first"
	Reveal_Second RevealPolicy = "show_second"
	Reveal_Both   RevealPolicy = "show_both"
)

// nextRound maps each street to its successor. River has none.
var nextRound = map[RoundType]RoundType{
	Round_Preflop: Round_Flop,
	Round_Flop:    Round_Turn,
	Round_Turn:    Round_River,
}

// communityCardCount is the number of community cards dealt when a street opens.
var communityCardCount = map[RoundType]int{
	Round_Flop:  3,
	Round_Turn:  1,
	Round_River: 1,
}
