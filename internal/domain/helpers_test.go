package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestRemoveIndicesKeepsOrder(t *testing.T) {
	hand := []Card{c(Ace, Clubs), c(Two, Clubs), c(Three, Clubs), c(Four, Clubs)}
	got := removeIndices(hand, []int{2, 0})
	want := []Card{c(Two, Clubs), c(Four, Clubs)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("removeIndices() = %v, want %v", got, want)
	}
	if len(hand) != 4 || hand[0] != c(Ace, Clubs) {
		t.Fatalf("input hand mutated: %v", hand)
	}
}

func TestPickCards(t *testing.T) {
	hand := []Card{c(Ace, Clubs), c(Two, Clubs), c(Three, Clubs)}
	tests := []struct {
		name    string
		indices []int
		want    []Card
		wantErr bool
	}{
		{name: "in index order", indices: []int{2, 0}, want: []Card{c(Three, Clubs), c(Ace, Clubs)}},
		{name: "negative", indices: []int{-1}, wantErr: true},
		{name: "past the end", indices: []int{3}, wantErr: true},
		{name: "repeated", indices: []int{1, 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickCards(hand, tt.indices)
			if tt.wantErr {
				if !errors.Is(err, ErrIndex) {
					t.Fatalf("pickCards() error = %v, want ErrIndex", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("pickCards() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("pickCards() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandValue(t *testing.T) {
	hand := []Card{c(Ace, Clubs), c(King, Hearts), c(Five, Spades), joker}
	if got := HandValue(hand); got != 30 {
		t.Fatalf("HandValue() = %d, want 30", got)
	}
	if got := HandValue(nil); got != 0 {
		t.Fatalf("HandValue(nil) = %d, want 0", got)
	}
}

func TestSortHand(t *testing.T) {
	hand := []Card{c(King, Spades), c(Ace, Hearts), c(Ace, Clubs), joker}
	SortHand(hand, nil)
	want := []Card{c(Ace, Clubs), c(Ace, Hearts), c(King, Spades), joker}
	if !reflect.DeepEqual(hand, want) {
		t.Fatalf("SortHand() = %v, want %v", hand, want)
	}

	SortHand(hand, rankPtr(Ace))
	want = []Card{c(King, Spades), c(Ace, Clubs), c(Ace, Hearts), joker}
	if !reflect.DeepEqual(hand, want) {
		t.Fatalf("SortHand(ace high) = %v, want %v", hand, want)
	}
}

func TestCardsToDeal(t *testing.T) {
	tests := []struct {
		players, packs, want int
	}{
		{2, 1, 10},
		{2, 2, 10},
		{3, 1, 7},
		{3, 2, 10},
		{5, 1, 7},
		{6, 1, 6},
		{7, 1, 6},
		{7, 2, 10},
		{0, 1, 0},
		{8, 1, 6},
	}
	for _, tt := range tests {
		if got := CardsToDeal(tt.players, tt.packs); got != tt.want {
			t.Fatalf("CardsToDeal(%d, %d) = %d, want %d", tt.players, tt.packs, got, tt.want)
		}
	}
}

func TestMoveCardClampsPosition(t *testing.T) {
	p := NewPlayer("a", true, 0)
	p.Hand = []Card{c(Ace, Clubs), c(Two, Clubs), c(Three, Clubs)}

	if err := p.MoveCard(0, 99); err != nil {
		t.Fatalf("MoveCard() error: %v", err)
	}
	want := []Card{c(Two, Clubs), c(Three, Clubs), c(Ace, Clubs)}
	if !reflect.DeepEqual(p.Hand, want) {
		t.Fatalf("hand = %v, want %v", p.Hand, want)
	}

	if err := p.MoveCard(2, 0); err != nil {
		t.Fatalf("MoveCard() error: %v", err)
	}
	want = []Card{c(Ace, Clubs), c(Two, Clubs), c(Three, Clubs)}
	if !reflect.DeepEqual(p.Hand, want) {
		t.Fatalf("hand = %v, want %v", p.Hand, want)
	}

	if err := p.MoveCard(3, 0); !errors.Is(err, ErrIndex) {
		t.Fatalf("MoveCard(out of range) error = %v, want ErrIndex", err)
	}
}
