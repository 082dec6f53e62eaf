package pokergame

// Result is the engine's verdict after an advance: what should happen next,
// who acts, and what they may legally do. The gateway maps the directive kind
// to its configured auto-advance delay.
type Result struct {
	Directive      DirectiveKind `json:"directive"`
	ActingPlayerID string        `json:"acting_player_id,omitempty"`
	LegalActions   []*Action     `json:"legal_actions,omitempty"`
	Payouts        []*Payout     `json:"payouts,omitempty"`

	// Eliminated lists players who busted when payouts were applied. On a
	// tournament table this forces the caller to hold the tournament-wide
	// lock before committing.
	Eliminated []string `json:"eliminated,omitempty"`
}

// ActionRequest is a submitted player action entering the engine.
type ActionRequest struct {
	PlayerID string     `json:"player_id"`
	Type     ActionType `json:"type"`
	Amount   float64    `json:"amount"`

	// Forced marks actions synthesized by the timeout policy.
	Forced bool `json:"forced,omitempty"`
}
