package domain

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func c(r Rank, s Suit) Card { return Card{Rank: r, Suit: s} }

var joker = NewCard(Joker, JokerSuit)

func TestFormMeld(t *testing.T) {
	plain := DeckConfig{PackCount: 1}
	jokers := DeckConfig{PackCount: 1, UseJoker: true}
	twosWild := DeckConfig{PackCount: 1, WildcardRank: rankPtr(Two)}
	aceHigh := DeckConfig{PackCount: 1, HighRank: rankPtr(Ace)}
	threeHigh := DeckConfig{PackCount: 1, HighRank: rankPtr(Three)}

	tests := []struct {
		name      string
		cfg       DeckConfig
		hand      []Card
		indices   []int
		wantKind  MeldKind
		wantCards []Card
		wantErr   error
	}{
		{
			name:      "set of sevens",
			cfg:       plain,
			hand:      []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts), c(King, Spades)},
			indices:   []int{0, 1, 2},
			wantKind:  MeldSet,
			wantCards: []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts)},
		},
		{
			name:      "run given out of order",
			cfg:       plain,
			hand:      []Card{c(Five, Hearts), c(Three, Hearts), c(Four, Hearts)},
			indices:   []int{2, 0, 1},
			wantKind:  MeldRun,
			wantCards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)},
		},
		{
			name:    "two cards",
			cfg:     jokers,
			hand:    []Card{c(Seven, Clubs), c(Seven, Diamonds)},
			indices: []int{0, 1},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "unrelated cards",
			cfg:     plain,
			hand:    []Card{c(Seven, Clubs), c(Nine, Diamonds), c(Jack, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "run gap without wildcard",
			cfg:     plain,
			hand:    []Card{c(Three, Hearts), c(Five, Hearts), c(Six, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "run mixed suits",
			cfg:     plain,
			hand:    []Card{c(Three, Hearts), c(Four, Spades), c(Five, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:      "joker fills a gap",
			cfg:       jokers,
			hand:      []Card{c(Three, Hearts), joker, c(Five, Hearts)},
			indices:   []int{0, 1, 2},
			wantKind:  MeldRun,
			wantCards: []Card{c(Three, Hearts), joker, c(Five, Hearts)},
		},
		{
			name:      "joker extends below a king high run",
			cfg:       jokers,
			hand:      []Card{c(Queen, Hearts), c(King, Hearts), joker},
			indices:   []int{0, 1, 2},
			wantKind:  MeldRun,
			wantCards: []Card{joker, c(Queen, Hearts), c(King, Hearts)},
		},
		{
			name:    "only jokers",
			cfg:     jokers,
			hand:    []Card{joker, joker, joker},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "only wildcard rank",
			cfg:     twosWild,
			hand:    []Card{c(Two, Clubs), c(Two, Diamonds), c(Two, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:      "wildcard in a set",
			cfg:       twosWild,
			hand:      []Card{c(Nine, Spades), c(Two, Clubs), c(Nine, Hearts)},
			indices:   []int{0, 1, 2},
			wantKind:  MeldSet,
			wantCards: []Card{c(Nine, Spades), c(Two, Clubs), c(Nine, Hearts)},
		},
		{
			name:    "queen king ace is not a run by default",
			cfg:     plain,
			hand:    []Card{c(Queen, Hearts), c(King, Hearts), c(Ace, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:      "queen king ace with ace high",
			cfg:       aceHigh,
			hand:      []Card{c(Ace, Hearts), c(Queen, Hearts), c(King, Hearts)},
			indices:   []int{0, 1, 2},
			wantKind:  MeldRun,
			wantCards: []Card{c(Queen, Hearts), c(King, Hearts), c(Ace, Hearts)},
		},
		{
			name:      "king ace two with three high",
			cfg:       threeHigh,
			hand:      []Card{c(Two, Clubs), c(King, Clubs), c(Ace, Clubs)},
			indices:   []int{0, 1, 2},
			wantKind:  MeldRun,
			wantCards: []Card{c(King, Clubs), c(Ace, Clubs), c(Two, Clubs)},
		},
		{
			name:    "king ace two by default",
			cfg:     plain,
			hand:    []Card{c(Two, Clubs), c(King, Clubs), c(Ace, Clubs)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "duplicate rank in run",
			cfg:     DeckConfig{PackCount: 2},
			hand:    []Card{c(Three, Hearts), c(Three, Hearts), c(Four, Hearts)},
			indices: []int{0, 1, 2},
			wantErr: ErrRuleViolation,
		},
		{
			name:    "repeated index",
			cfg:     plain,
			hand:    []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts)},
			indices: []int{0, 0, 1},
			wantErr: ErrIndex,
		},
		{
			name:    "index out of range",
			cfg:     plain,
			hand:    []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts)},
			indices: []int{0, 1, 3},
			wantErr: ErrIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := slices.Clone(tt.hand)
			meld, rest, err := FormMeld(tt.hand, tt.indices, tt.cfg)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FormMeld() error = %v, want %v", err, tt.wantErr)
				}
				if !reflect.DeepEqual(rest, before) || !reflect.DeepEqual(tt.hand, before) {
					t.Fatalf("hand changed on failure: got %v, want %v", rest, before)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormMeld() unexpected error: %v", err)
			}
			if meld.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", meld.Kind, tt.wantKind)
			}
			if !reflect.DeepEqual(meld.Cards, tt.wantCards) {
				t.Fatalf("cards = %v, want %v", meld.Cards, tt.wantCards)
			}
			if len(rest) != len(tt.hand)-len(tt.indices) {
				t.Fatalf("remaining hand = %v", rest)
			}
		})
	}
}

func TestFormMeldReportsBothReasons(t *testing.T) {
	_, _, err := FormMeld([]Card{c(Seven, Clubs), c(Nine, Diamonds), c(Jack, Hearts)}, []int{0, 1, 2}, DeckConfig{})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, part := range []string{"not a set", "not a run"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("error %q does not mention %q", msg, part)
		}
	}
}

func TestSetResolvesFirstNaturalRank(t *testing.T) {
	meld, err := NewSet([]Card{c(Two, Clubs), c(Jack, Spades), c(Jack, Hearts)}, rankPtr(Two))
	if err != nil {
		t.Fatalf("NewSet() error: %v", err)
	}
	if meld.Rank != Jack {
		t.Fatalf("rank = %s, want J", meld.Rank)
	}
}

func TestLayoff(t *testing.T) {
	plain := DeckConfig{PackCount: 1}
	jokers := DeckConfig{PackCount: 1, UseJoker: true}

	sevens := Meld{Kind: MeldSet, Rank: Seven, Cards: []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts)}}
	hearts := Meld{Kind: MeldRun, Suit: Hearts, Cards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)}}
	topRun := Meld{Kind: MeldRun, Suit: Hearts, Cards: []Card{c(Jack, Hearts), c(Queen, Hearts), c(King, Hearts)}}
	gapRun := Meld{Kind: MeldRun, Suit: Hearts, Cards: []Card{c(Three, Hearts), joker, c(Five, Hearts)}}

	full := Meld{Kind: MeldRun, Suit: Spades}
	for r := Ace; r <= King; r++ {
		full.Cards = append(full.Cards, c(r, Spades))
	}

	tests := []struct {
		name      string
		cfg       DeckConfig
		meld      Meld
		card      Card
		wantCards []Card
		wantErr   error
	}{
		{
			name:      "set takes its rank",
			cfg:       plain,
			meld:      sevens,
			card:      c(Seven, Spades),
			wantCards: []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts), c(Seven, Spades)},
		},
		{
			name:    "set rejects other rank",
			cfg:     plain,
			meld:    sevens,
			card:    c(Eight, Spades),
			wantErr: ErrRuleViolation,
		},
		{
			name:      "set takes a joker",
			cfg:       jokers,
			meld:      sevens,
			card:      joker,
			wantCards: []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts), joker},
		},
		{
			name:      "run extends high",
			cfg:       plain,
			meld:      hearts,
			card:      c(Six, Hearts),
			wantCards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts), c(Six, Hearts)},
		},
		{
			name:      "run extends low",
			cfg:       plain,
			meld:      hearts,
			card:      c(Two, Hearts),
			wantCards: []Card{c(Two, Hearts), c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)},
		},
		{
			name:    "run rejects other suit",
			cfg:     plain,
			meld:    hearts,
			card:    c(Six, Spades),
			wantErr: ErrRuleViolation,
		},
		{
			name:    "run rejects non adjacent rank",
			cfg:     plain,
			meld:    hearts,
			card:    c(Seven, Hearts),
			wantErr: ErrRuleViolation,
		},
		{
			name:      "joker goes on top",
			cfg:       jokers,
			meld:      hearts,
			card:      joker,
			wantCards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts), joker},
		},
		{
			name:      "joker goes below a king high run",
			cfg:       jokers,
			meld:      topRun,
			card:      joker,
			wantCards: []Card{joker, c(Jack, Hearts), c(Queen, Hearts), c(King, Hearts)},
		},
		{
			name:      "run with filled gap extends high",
			cfg:       jokers,
			meld:      gapRun,
			card:      c(Six, Hearts),
			wantCards: []Card{c(Three, Hearts), joker, c(Five, Hearts), c(Six, Hearts)},
		},
		{
			name:    "complete run takes nothing",
			cfg:     jokers,
			meld:    full,
			card:    joker,
			wantErr: ErrRuleViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meld := tt.meld.Clone()
			hand := []Card{c(King, Clubs), tt.card}
			rest, err := Layoff(&meld, hand, 1, tt.cfg)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Layoff() error = %v, want %v", err, tt.wantErr)
				}
				if !reflect.DeepEqual(meld, tt.meld) {
					t.Fatalf("meld changed on failure: %v", meld)
				}
				if len(rest) != 2 {
					t.Fatalf("hand changed on failure: %v", rest)
				}
				return
			}
			if err != nil {
				t.Fatalf("Layoff() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(meld.Cards, tt.wantCards) {
				t.Fatalf("cards = %v, want %v", meld.Cards, tt.wantCards)
			}
			if !reflect.DeepEqual(rest, []Card{c(King, Clubs)}) {
				t.Fatalf("remaining hand = %v", rest)
			}
		})
	}
}

func TestLayoffBadIndex(t *testing.T) {
	meld := Meld{Kind: MeldSet, Rank: Seven, Cards: []Card{c(Seven, Clubs), c(Seven, Diamonds), c(Seven, Hearts)}}
	_, err := Layoff(&meld, []Card{c(Seven, Spades)}, 1, DeckConfig{})
	if !errors.Is(err, ErrIndex) {
		t.Fatalf("Layoff() error = %v, want ErrIndex", err)
	}
}
