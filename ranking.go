package pokergame

import (
	"fmt"

	poker "github.com/paulhankin/poker"
)

// handStrength is an opaque comparable score from the ranking oracle.
// Greater is stronger; exact equality is a tie.
type handStrength int16

func toLibraryCard(c Card) (poker.Card, error) {
	var suit poker.Suit
	switch c.Suit() {
	case 'c':
		suit = poker.Club
	case 'd':
		suit = poker.Diamond
	case 'h':
		suit = poker.Heart
	case 's':
		suit = poker.Spade
	default:
		return 0, fmt.Errorf("invalid card %q", c)
	}

	// Engine ranks run 2..14 with Ace high; the library wants 1..13, Ace=1.
	rank := c.Rank()
	if rank == 14 {
		rank = 1
	}
	if rank < 1 || rank > 13 {
		return 0, fmt.Errorf("invalid card %q", c)
	}
	return poker.MakeCard(suit, poker.Rank(rank))
}

// rankHand scores the best 5-card hand out of two hole cards and five
// community cards.
func rankHand(hole []Card, community []Card) (handStrength, error) {
	if len(hole) != 2 || len(community) != 5 {
		return 0, fmt.Errorf("rank requires 2 hole and 5 community cards, got %d and %d", len(hole), len(community))
	}

	var cards [7]poker.Card
	for i, c := range append(append([]Card{}, hole...), community...) {
		lc, err := toLibraryCard(c)
		if err != nil {
			return 0, err
		}
		cards[i] = lc
	}
	return handStrength(poker.Eval7(&cards)), nil
}
