package domain

import (
	"cmp"
	"fmt"
)

// Rank is a card rank. Ace is the lowest natural rank by default.
type Rank int32

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Joker
)

// rankSpace is the number of natural ranks.
const rankSpace = 13

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "Joker"}

func (r Rank) String() string {
	if r < Ace || r > Joker {
		return fmt.Sprintf("Rank(%d)", int32(r))
	}
	return rankNames[r]
}

// Suit is a card suit, ordered Clubs < Diamonds < Hearts < Spades.
type Suit int32

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
	JokerSuit
)

var suitNames = [...]string{"C", "D", "H", "S", "*"}

func (s Suit) String() string {
	if s < Clubs || s > JokerSuit {
		return fmt.Sprintf("Suit(%d)", int32(s))
	}
	return suitNames[s]
}

// Card is a single playing card. Cards carry no deck configuration; ordering and
// wildcard checks take the relevant ranks explicitly.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard builds a card. Jokers always get the joker suit.
func NewCard(rank Rank, suit Suit) Card {
	if rank == Joker {
		suit = JokerSuit
	}
	return Card{Rank: rank, Suit: suit}
}

// Data returns the rank and suit pair.
func (c Card) Data() (Rank, Suit) {
	return c.Rank, c.Suit
}

func (c Card) String() string {
	if c.Rank == Joker {
		return "Joker"
	}
	return c.Rank.String() + c.Suit.String()
}

// Position returns where a rank sits in the circular ordering topped by highRank.
// Natural ranks map to 0..12, where 12 is the high rank; jokers sit above all of them.
func Position(r Rank, highRank *Rank) int {
	if r == Joker {
		return rankSpace
	}
	offset := 0
	if highRank != nil && *highRank != Joker {
		offset = int(King - *highRank)
	}
	return (int(r) + offset) % rankSpace
}

// Compare orders two cards: by rank position under highRank, then by suit.
// It returns -1, 0 or +1.
func Compare(a, b Card, highRank *Rank) int {
	if a.Rank == b.Rank {
		return cmp.Compare(a.Suit, b.Suit)
	}
	return cmp.Compare(Position(a.Rank, highRank), Position(b.Rank, highRank))
}

// IsWildcard reports whether c acts as a wildcard under the given wildcard rank.
func IsWildcard(c Card, wildcard *Rank) bool {
	return wildcard != nil && c.Rank == *wildcard
}

// Value returns the penalty value of a card when left in hand at round end.
func (c Card) Value() int {
	switch {
	case c.Rank == Joker:
		return 0
	case c.Rank == Ace:
		return aceValue
	case c.Rank >= Ten:
		return faceValue
	default:
		return int(c.Rank) + 1
	}
}
