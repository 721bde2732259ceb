package domain

import "slices"

// pickCards returns the hand cards at indices, in index order. Indices must be
// in range and distinct.
func pickCards(hand []Card, indices []int) ([]Card, error) {
	seen := make(map[int]bool, len(indices))
	picked := make([]Card, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(hand) {
			return nil, indexErr("card", i, len(hand))
		}
		if seen[i] {
			return nil, indexErr("duplicate card", i, len(hand))
		}
		seen[i] = true
		picked = append(picked, hand[i])
	}
	return picked, nil
}

// removeIndices returns a new hand without the cards at indices, preserving order.
func removeIndices(hand []Card, indices []int) []Card {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make([]Card, 0, len(hand))
	for i, c := range hand {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

// HandValue sums the penalty values of the cards.
func HandValue(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value()
	}
	return total
}

// SortHand orders a hand by rank position under highRank, then suit.
func SortHand(cards []Card, highRank *Rank) {
	slices.SortStableFunc(cards, func(a, b Card) int { return Compare(a, b, highRank) })
}
