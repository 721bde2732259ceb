package bot

import (
	"fmt"
	"slices"

	"github.com/mhbka/rummy/internal/domain"
)

// exhaustiveMeldSearch bounds the hand size for which every subset is tried.
// Larger hands, after taking a big discard pile, only try 3 and 4 card melds.
const exhaustiveMeldSearch = 12

// GreedyBot melds whenever it can, biggest meld first, and throws away its
// most expensive loose card.
type GreedyBot struct {
	// TakeDiscards lets the bot draw the discard top when it fits a meld.
	TakeDiscards bool
	// Layoffs lets the bot lay cards off onto melds on the table.
	Layoffs bool
}

func (b *GreedyBot) NextAction(view domain.StateView, seat int) (Action, error) {
	if seat < 0 || seat >= len(view.Players) {
		return Action{}, fmt.Errorf("seat %d is not at the table", seat)
	}
	hand := view.Players[seat].Hand
	cfg := view.DeckConfig()

	switch phase := view.PhaseState.(type) {
	case domain.DrawPhase:
		if phase.HasDrawn {
			return Action{}, fmt.Errorf("already drew this turn")
		}
		if b.TakeDiscards && view.DiscardTop != nil && b.wants(*view.DiscardTop, hand, view, cfg) {
			return Action{Kind: ActionDrawDiscard}, nil
		}
		return Action{Kind: ActionDrawStock}, nil
	case domain.PlayPhase:
		if indices := findMeld(hand, cfg); indices != nil {
			return Action{Kind: ActionFormMeld, Indices: indices}, nil
		}
		if b.Layoffs {
			if action, ok := findLayoff(view, seat, cfg); ok {
				return action, nil
			}
		}
		return Action{Kind: ActionEndPlay}, nil
	case domain.DiscardPhase:
		if len(hand) == 0 {
			return Action{}, fmt.Errorf("nothing to discard")
		}
		return Action{Kind: ActionDiscard, CardIndex: discardChoice(hand, cfg)}, nil
	}
	return Action{}, fmt.Errorf("no action during %s", view.Phase)
}

func (b *GreedyBot) OnEvent(event interface{}) {}

// wants reports whether card would be melded or laid off right away.
func (b *GreedyBot) wants(card domain.Card, hand []domain.Card, view domain.StateView, cfg domain.DeckConfig) bool {
	if domain.IsWildcard(card, cfg.Wildcard()) {
		return true
	}
	withCard := append(slices.Clone(hand), card)
	last := len(withCard) - 1
	for i := 0; i < last; i++ {
		for j := i + 1; j < last; j++ {
			if _, _, err := domain.FormMeld(withCard, []int{i, j, last}, cfg); err == nil {
				return true
			}
		}
	}
	if !b.Layoffs {
		return false
	}
	for _, p := range view.Players {
		if !p.Active {
			continue
		}
		for _, m := range p.Melds {
			if m.CanLayoff(card, cfg) {
				return true
			}
		}
	}
	return false
}

// findMeld returns the indices of the largest meld in hand, or nil.
func findMeld(hand []domain.Card, cfg domain.DeckConfig) []int {
	maxSize := len(hand)
	if maxSize > exhaustiveMeldSearch {
		maxSize = 4
	}
	for size := maxSize; size >= domain.MinMeldSize; size-- {
		var found []int
		combinations(len(hand), size, func(indices []int) bool {
			if _, _, err := domain.FormMeld(hand, indices, cfg); err == nil {
				found = slices.Clone(indices)
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// combinations calls fn with every k-subset of [0, n) in lexicographic order
// until fn returns false.
func combinations(n, k int, fn func([]int) bool) {
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// findLayoff finds a natural card that extends any active player's meld.
// Wildcards are kept back unless they are the last card.
func findLayoff(view domain.StateView, seat int, cfg domain.DeckConfig) (Action, bool) {
	hand := view.Players[seat].Hand
	wild := cfg.Wildcard()
	for i, card := range hand {
		if domain.IsWildcard(card, wild) && len(hand) > 1 {
			continue
		}
		for s, p := range view.Players {
			if !p.Active {
				continue
			}
			for m, meld := range p.Melds {
				if meld.CanLayoff(card, cfg) {
					return Action{Kind: ActionLayoff, CardIndex: i, TargetSeat: s, MeldIndex: m}, true
				}
			}
		}
	}
	return Action{}, false
}

// discardChoice picks the card to throw: loose cards before cards that pair up
// or sit next to a same-suit card, then the highest value. Wildcards go last.
func discardChoice(hand []domain.Card, cfg domain.DeckConfig) int {
	wild := cfg.Wildcard()
	best, bestScore := 0, -1
	for i, card := range hand {
		score := card.Value()
		if !connected(hand, i, cfg.HighRank) {
			score += 100
		}
		if domain.IsWildcard(card, wild) {
			score = 0
		}
		if score >= bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func connected(hand []domain.Card, i int, highRank *domain.Rank) bool {
	card := hand[i]
	pos := domain.Position(card.Rank, highRank)
	for j, other := range hand {
		if j == i {
			continue
		}
		if other.Rank == card.Rank {
			return true
		}
		if other.Suit == card.Suit {
			if d := domain.Position(other.Rank, highRank) - pos; d == 1 || d == -1 {
				return true
			}
		}
	}
	return false
}
