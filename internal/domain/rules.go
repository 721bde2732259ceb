package domain

import (
	"fmt"
	"slices"
)

// MeldKind identifies a meld variant.
type MeldKind string

const (
	// MeldSet is three or more cards of one rank.
	MeldSet MeldKind = "set"
	// MeldRun is three or more consecutive cards of one suit.
	MeldRun MeldKind = "run"
)

// Meld is a formed set or run. Rank is meaningful for sets, Suit for runs.
// Run cards are kept low to high with wildcards in the slots they fill.
type Meld struct {
	Kind  MeldKind `json:"kind"`
	Rank  Rank     `json:"rank"`
	Suit  Suit     `json:"suit"`
	Cards []Card   `json:"cards"`
}

// Clone returns a deep copy of the meld.
func (m Meld) Clone() Meld {
	m.Cards = slices.Clone(m.Cards)
	return m
}

func (m Meld) String() string {
	return fmt.Sprintf("%s%v", m.Kind, m.Cards)
}

// FormMeld tries to build a set, then a run, out of the hand cards at indices.
// On success it returns the meld and the remaining hand as a new slice.
// On failure the hand is untouched and the error carries both rejection reasons.
func FormMeld(hand []Card, indices []int, cfg DeckConfig) (Meld, []Card, error) {
	if len(indices) < MinMeldSize {
		return Meld{}, hand, fmt.Errorf("%w: a meld needs at least %d cards, got %d", ErrRuleViolation, MinMeldSize, len(indices))
	}
	picked, err := pickCards(hand, indices)
	if err != nil {
		return Meld{}, hand, err
	}

	wild := cfg.Wildcard()
	meld, setErr := NewSet(picked, wild)
	if setErr != nil {
		var runErr error
		meld, runErr = NewRun(picked, wild, cfg.HighRank)
		if runErr != nil {
			return Meld{}, hand, fmt.Errorf("%w: not a set (%v); not a run (%v)", ErrRuleViolation, setErr, runErr)
		}
	}
	return meld, removeIndices(hand, indices), nil
}

// NewSet validates cards as a set under the given wildcard rank.
// The set takes the rank of its first natural card.
func NewSet(cards []Card, wildcard *Rank) (Meld, error) {
	if len(cards) < MinMeldSize {
		return Meld{}, fmt.Errorf("%w: a set needs at least %d cards", ErrRuleViolation, MinMeldSize)
	}
	var rank *Rank
	for _, c := range cards {
		if IsWildcard(c, wildcard) {
			continue
		}
		if c.Rank == Joker {
			return Meld{}, fmt.Errorf("%w: joker is not wild in this deck", ErrRuleViolation)
		}
		if rank == nil {
			r := c.Rank
			rank = &r
			continue
		}
		if c.Rank != *rank {
			return Meld{}, fmt.Errorf("%w: %s does not match rank %s", ErrRuleViolation, c, *rank)
		}
	}
	if rank == nil {
		return Meld{}, fmt.Errorf("%w: a set cannot be only wildcards", ErrRuleViolation)
	}
	return Meld{Kind: MeldSet, Rank: *rank, Cards: slices.Clone(cards)}, nil
}

// NewRun validates cards as a run. Naturals are ordered by their position under
// highRank; every missing rank between two naturals consumes one wildcard, and
// leftover wildcards extend the high end first, then the low end.
func NewRun(cards []Card, wildcard *Rank, highRank *Rank) (Meld, error) {
	if len(cards) < MinMeldSize {
		return Meld{}, fmt.Errorf("%w: a run needs at least %d cards", ErrRuleViolation, MinMeldSize)
	}
	var naturals, wilds []Card
	for _, c := range cards {
		if IsWildcard(c, wildcard) {
			wilds = append(wilds, c)
		} else {
			naturals = append(naturals, c)
		}
	}
	if len(naturals) == 0 {
		return Meld{}, fmt.Errorf("%w: a run cannot be only wildcards", ErrRuleViolation)
	}
	slices.SortStableFunc(naturals, func(a, b Card) int { return Compare(a, b, highRank) })

	suit := naturals[0].Suit
	for _, c := range naturals {
		if c.Rank == Joker {
			return Meld{}, fmt.Errorf("%w: joker is not wild in this deck", ErrRuleViolation)
		}
		if c.Suit != suit {
			return Meld{}, fmt.Errorf("%w: %s is not %s", ErrRuleViolation, c, suit)
		}
	}

	seq := []Card{naturals[0]}
	for i := 1; i < len(naturals); i++ {
		prev := Position(naturals[i-1].Rank, highRank)
		cur := Position(naturals[i].Rank, highRank)
		if cur == prev {
			return Meld{}, fmt.Errorf("%w: duplicate rank %s", ErrRuleViolation, naturals[i].Rank)
		}
		for gap := cur - prev - 1; gap > 0; gap-- {
			if len(wilds) == 0 {
				return Meld{}, fmt.Errorf("%w: gap between %s and %s", ErrRuleViolation, naturals[i-1], naturals[i])
			}
			seq = append(seq, wilds[0])
			wilds = wilds[1:]
		}
		seq = append(seq, naturals[i])
	}

	low := Position(naturals[0].Rank, highRank)
	high := Position(naturals[len(naturals)-1].Rank, highRank)
	for _, w := range wilds {
		switch {
		case high < rankSpace-1:
			seq = append(seq, w)
			high++
		case low > 0:
			seq = append([]Card{w}, seq...)
			low--
		default:
			return Meld{}, fmt.Errorf("%w: a run cannot exceed %d cards", ErrRuleViolation, rankSpace)
		}
	}
	return Meld{Kind: MeldRun, Suit: suit, Cards: seq}, nil
}

// runBounds returns the positions of the lowest and highest slots of a run.
func (m Meld) runBounds(wildcard, highRank *Rank) (low, high int) {
	for i, c := range m.Cards {
		if !IsWildcard(c, wildcard) {
			low = Position(c.Rank, highRank) - i
			break
		}
	}
	return low, low + len(m.Cards) - 1
}

type placement int

const (
	placeHigh placement = iota
	placeLow
)

// fit decides where card would go on the meld, without changing anything.
func (m Meld) fit(card Card, cfg DeckConfig) (placement, error) {
	wild := cfg.Wildcard()
	isWild := IsWildcard(card, wild)
	if !isWild && card.Rank == Joker {
		return 0, fmt.Errorf("%w: joker is not wild in this deck", ErrRuleViolation)
	}

	switch m.Kind {
	case MeldSet:
		if isWild || card.Rank == m.Rank {
			return placeHigh, nil
		}
		return 0, fmt.Errorf("%w: %s does not match set of %s", ErrRuleViolation, card, m.Rank)
	case MeldRun:
		low, high := m.runBounds(wild, cfg.HighRank)
		if isWild {
			switch {
			case high < rankSpace-1:
				return placeHigh, nil
			case low > 0:
				return placeLow, nil
			}
			return 0, fmt.Errorf("%w: run is already complete", ErrRuleViolation)
		}
		if card.Suit != m.Suit {
			return 0, fmt.Errorf("%w: %s is not %s", ErrRuleViolation, card, m.Suit)
		}
		switch Position(card.Rank, cfg.HighRank) {
		case high + 1:
			return placeHigh, nil
		case low - 1:
			return placeLow, nil
		}
		return 0, fmt.Errorf("%w: %s does not extend the run", ErrRuleViolation, card)
	}
	return 0, fmt.Errorf("%w: unknown meld kind %q", ErrRuleViolation, m.Kind)
}

// CanLayoff reports whether card could be laid off onto m.
func (m Meld) CanLayoff(card Card, cfg DeckConfig) bool {
	_, err := m.fit(card, cfg)
	return err == nil
}

// Layoff moves hand[index] onto the meld and returns the remaining hand.
// On failure neither the meld nor the hand changes.
func Layoff(m *Meld, hand []Card, index int, cfg DeckConfig) ([]Card, error) {
	if index < 0 || index >= len(hand) {
		return hand, indexErr("card", index, len(hand))
	}
	card := hand[index]
	at, err := m.fit(card, cfg)
	if err != nil {
		return hand, err
	}
	if at == placeLow {
		m.Cards = append([]Card{card}, m.Cards...)
	} else {
		m.Cards = append(slices.Clone(m.Cards), card)
	}
	return removeIndices(hand, []int{index}), nil
}
