package pokergame

import "fmt"

// Card is a two-character symbol: rank then suit, e.g. "As", "Td", "9c".
type Card string

const (
	cardRanks = "23456789TJQKA"
	cardSuits = "cdhs"
)

// StandardDeckCards returns the 52 cards of a standard deck in canonical
// order, before any shuffle is applied.
func StandardDeckCards() []Card {
	cards := make([]Card, 0, 52)
	for _, s := range cardSuits {
		for _, r := range cardRanks {
			cards = append(cards, Card(fmt.Sprintf("%c%c", r, s)))
		}
	}
	return cards
}

// Rank returns the card rank as 2..14 with Ace high, or 0 for a malformed card.
func (c Card) Rank() int {
	if len(c) != 2 {
		return 0
	}
	for i, r := range cardRanks {
		if byte(r) == c[0] {
			return i + 2
		}
	}
	return 0
}

// Suit returns one of 'c', 'd', 'h', 's', or 0 for a malformed card.
func (c Card) Suit() byte {
	if len(c) != 2 {
		return 0
	}
	for i := range cardSuits {
		if cardSuits[i] == c[1] {
			return c[1]
		}
	}
	return 0
}

func (c Card) valid() bool {
	return c.Rank() != 0 && c.Suit() != 0
}
