package pokergame

import (
	"errors"
	"fmt"
)

// User-correctable errors. Detected before any state is written, reported to
// the caller and never fatal to the table.
var (
	ErrNotYourTurn         = errors.New("game: not your turn")
	ErrNoActionSubmitted   = errors.New("game: no action submitted")
	ErrIllegalAction       = errors.New("game: action not in legal set")
	ErrIllegalActionAmount = errors.New("game: illegal action amount")
	ErrInsufficientBalance = errors.New("game: insufficient balance")
	ErrPlayerNotFound      = errors.New("game: player not found")
	ErrNoActiveHand        = errors.New("game: no active hand")
	ErrGameFull            = errors.New("game: no empty seats available")
	ErrNotEnoughPlayers    = errors.New("game: not enough active players")
)

// State-integrity errors. They indicate a corrupted table document and must
// halt processing of that resource rather than be silently repaired.
var (
	ErrDealerNotFound     = errors.New("game: dealer not found among seated players")
	ErrDeckExhausted      = errors.New("deck: not enough cards remaining")
	ErrNonZeroSum         = errors.New("showdown: payouts do not sum to zero")
	ErrLostUpdate         = errors.New("game: round contribution bookkeeping mismatch")
	ErrHandNotCompleted   = errors.New("game: previous hand not completed")
	ErrInvalidAmount      = errors.New("game: computed amount is not a finite number")
	ErrAdvanceLoopBounded = errors.New("game: advance loop exceeded iteration guard")
)

var fatalErrs = []error{
	ErrDealerNotFound,
	ErrDeckExhausted,
	ErrNonZeroSum,
	ErrLostUpdate,
	ErrHandNotCompleted,
	ErrInvalidAmount,
	ErrAdvanceLoopBounded,
}

// IsFatal reports whether err is a state-integrity failure that requires
// operator intervention or an explicit reset of the table.
func IsFatal(err error) bool {
	for _, fe := range fatalErrs {
		if errors.Is(err, fe) {
			return true
		}
	}
	return false
}

func fatalf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
