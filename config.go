package pokergame

import "time"

// Config is threaded explicitly into every engine entry point. There is no
// process-wide mutable configuration.
type Config struct {
	// ActionTimeout is how long the next-to-act player may think before the
	// timeout policy forces an action. TournamentActionTimeout overrides it
	// for tournament tables when set.
	ActionTimeout           time.Duration
	TournamentActionTimeout time.Duration

	// KeepPresentOnTimeout suppresses flagging a timed-out player as away.
	KeepPresentOnTimeout bool

	// Delays maps each directive kind to its auto-advance delay. A zero delay
	// tells the gateway to re-enter the engine immediately.
	Delays map[DirectiveKind]time.Duration

	// RevealPolicy applies to a requesting player's own hole cards at showdown.
	RevealPolicy RevealPolicy

	// MaxAdvanceIterations bounds the fast-forward loop inside Advance.
	MaxAdvanceIterations int
}

// DefaultConfig mirrors production defaults: payouts pause long enough to
// display results, everything else advances immediately.
func DefaultConfig() Config {
	return Config{
		ActionTimeout:           30 * time.Second,
		TournamentActionTimeout: 15 * time.Second,
		Delays: map[DirectiveKind]time.Duration{
			Directive_PlayerAction:    0,
			Directive_ShortHandPayout: 2 * time.Second,
			Directive_HandPayout:      5 * time.Second,
			Directive_NextHand:        0,
		},
		RevealPolicy:         Reveal_Both,
		MaxAdvanceIterations: 64,
	}
}

// TimeoutFor returns the acting timeout for the given game.
func (c Config) TimeoutFor(g *Game) time.Duration {
	if g.Type == GameType_Tournament && c.TournamentActionTimeout > 0 {
		return c.TournamentActionTimeout
	}
	return c.ActionTimeout
}

// DelayFor returns the auto-advance delay configured for a directive kind.
func (c Config) DelayFor(kind DirectiveKind) time.Duration {
	if d, ok := c.Delays[kind]; ok {
		return d
	}
	return 0
}
