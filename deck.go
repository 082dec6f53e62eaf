package pokergame

import (
	"math/rand"
)

const (
	// ShuffleAlgorithm_FisherYates is the default single-seed shuffle.
	ShuffleAlgorithm_FisherYates = "fisher-yates"

	// ShuffleAlgorithm_DoublePass reshuffles the deck a second time with a
	// seed derived from the first, for decks whose seed is partially public.
	ShuffleAlgorithm_DoublePass = "double-pass"
)

// Deck is a deterministic, seedable card sequence with a cursor. Rebuilding a
// deck from a persisted cursor and the same seed reproduces the remaining
// cards exactly, so a partially dealt hand survives a crash.
type Deck struct {
	seed      int64
	algorithm string
	cards     []Card
	dealt     int
}

// NewDeck builds a shuffled deck from seed. An empty algorithm selects
// fisher-yates; an unrecognized name is treated the same way.
func NewDeck(seed int64, algorithm string) *Deck {
	d := &Deck{
		seed:      seed,
		algorithm: algorithm,
		cards:     shuffleCards(seed, algorithm),
	}
	return d
}

// NewDeckAt rebuilds a deck whose cursor was persisted mid-hand.
func NewDeckAt(seed int64, algorithm string, cardsDealt int) *Deck {
	d := NewDeck(seed, algorithm)
	if cardsDealt > len(d.cards) {
		cardsDealt = len(d.cards)
	}
	d.dealt = cardsDealt
	return d
}

func shuffleCards(seed int64, algorithm string) []Card {
	cards := StandardDeckCards()
	r := rand.New(rand.NewSource(seed))
	fisherYates(cards, r)
	if algorithm == ShuffleAlgorithm_DoublePass {
		fisherYates(cards, rand.New(rand.NewSource(r.Int63())))
	}
	return cards
}

func fisherYates(cards []Card, r *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal returns the next n cards and advances the cursor. Requesting more
// cards than remain is a hand-level failure, never a silent truncation.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || d.dealt+n > len(d.cards) {
		return nil, fatalf(ErrDeckExhausted, "requested %d, remaining %d", n, len(d.cards)-d.dealt)
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.dealt:d.dealt+n])
	d.dealt += n
	return cards, nil
}

// CardsDealt returns the cursor position for persistence.
func (d *Deck) CardsDealt() int {
	return d.dealt
}

// Remaining returns how many cards are still undealt.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.dealt
}
