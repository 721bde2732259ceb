package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(n int64) *int64 { return &n }

func unshuffled(cfg DeckConfig) *Deck {
	cfg.ShuffleSeed = seed(0)
	return NewDeck(cfg)
}

func TestNewDeckSizes(t *testing.T) {
	tests := []struct {
		name string
		cfg  DeckConfig
		want int
	}{
		{name: "one pack", cfg: DeckConfig{PackCount: 1}, want: 52},
		{name: "one pack with jokers", cfg: DeckConfig{PackCount: 1, UseJoker: true}, want: 54},
		{name: "two packs with jokers", cfg: DeckConfig{PackCount: 2, UseJoker: true}, want: 108},
		{name: "zero packs coerced to one", cfg: DeckConfig{PackCount: 0}, want: 52},
		{name: "wildcard rank drops jokers", cfg: DeckConfig{PackCount: 1, UseJoker: true, WildcardRank: rankPtr(Two)}, want: 52},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeck(tt.cfg)
			assert.Equal(t, tt.want, d.StockSize())
			assert.Zero(t, d.DiscardSize())
		})
	}
}

func TestDeckConfigNormalize(t *testing.T) {
	cfg := DeckConfig{PackCount: -3, UseJoker: true, WildcardRank: rankPtr(Five)}.Normalize()
	assert.Equal(t, 1, cfg.PackCount)
	assert.False(t, cfg.UseJoker)
	require.NotNil(t, cfg.Wildcard())
	assert.Equal(t, Five, *cfg.Wildcard())

	cfg = DeckConfig{WildcardRank: rankPtr(Joker)}.Normalize()
	assert.True(t, cfg.UseJoker)
	assert.Nil(t, cfg.WildcardRank)
	assert.Equal(t, Joker, *cfg.Wildcard())

	cfg = DeckConfig{HighRank: rankPtr(Joker)}.Normalize()
	assert.Nil(t, cfg.HighRank)
	assert.Nil(t, cfg.Wildcard())
}

func TestSeedZeroLeavesStockInOrder(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	stock := d.Stock()
	assert.Equal(t, Card{Rank: Ace, Suit: Clubs}, stock[0])
	assert.Equal(t, Card{Rank: King, Suit: Spades}, stock[51])

	top, err := d.Draw(1)
	require.NoError(t, err)
	assert.Equal(t, []Card{{Rank: King, Suit: Spades}}, top)
}

func TestFixedSeedIsReproducible(t *testing.T) {
	a := NewDeck(DeckConfig{PackCount: 2, UseJoker: true, ShuffleSeed: seed(42)})
	b := NewDeck(DeckConfig{PackCount: 2, UseJoker: true, ShuffleSeed: seed(42)})
	assert.Equal(t, a.Stock(), b.Stock())

	a.Reset()
	b.Reset()
	assert.Equal(t, a.Stock(), b.Stock())
}

func TestDrawTooManyLeavesStock(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	_, err := d.Draw(53)
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 52, d.StockSize())
}

func TestDrawSpecific(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	card, err := d.DrawSpecific(Queen, Hearts)
	require.NoError(t, err)
	assert.Equal(t, Card{Rank: Queen, Suit: Hearts}, card)
	assert.Equal(t, 51, d.StockSize())

	_, err = d.DrawSpecific(Queen, Hearts)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 51, d.StockSize())
}

func TestDiscardPile(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	_, ok := d.PeekDiscardPile()
	assert.False(t, ok)

	_, err := d.DrawDiscardPile(nil)
	require.ErrorIs(t, err, ErrCapacity)

	cards, err := d.Draw(3)
	require.NoError(t, err)
	d.AddToDiscardPile(cards...)

	top, ok := d.PeekDiscardPile()
	require.True(t, ok)
	assert.Equal(t, cards[2], top)

	four := 4
	_, err = d.DrawDiscardPile(&four)
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 3, d.DiscardSize())

	two := 2
	got, err := d.DrawDiscardPile(&two)
	require.NoError(t, err)
	assert.Equal(t, cards[1:], got)

	got, err = d.DrawDiscardPile(nil)
	require.NoError(t, err)
	assert.Equal(t, cards[:1], got)
	assert.Zero(t, d.DiscardSize())
}

func TestCardsAreConserved(t *testing.T) {
	d := NewDeck(DeckConfig{PackCount: 1, UseJoker: true, ShuffleSeed: seed(7)})
	total := func() int { return d.StockSize() + d.DiscardSize() }
	require.Equal(t, 54, total())

	drawn, err := d.Draw(20)
	require.NoError(t, err)
	d.AddToDiscardPile(drawn...)
	assert.Equal(t, 54, total())

	_, err = d.DrawDiscardPile(nil)
	require.NoError(t, err)
	assert.Equal(t, 34, total())

	more, err := d.Draw(10)
	require.NoError(t, err)
	d.AddToDiscardPile(more...)
	d.ShuffleDiscarded()
	assert.Equal(t, 34, total())
	assert.Zero(t, d.DiscardSize())

	again, err := d.Draw(5)
	require.NoError(t, err)
	d.AddToDiscardPile(again...)
	d.TurnoverDiscarded()
	assert.Equal(t, 34, total())
}

func TestShuffleDiscardedKeepsMultiset(t *testing.T) {
	d := NewDeck(DeckConfig{PackCount: 1, ShuffleSeed: seed(3)})
	drawn, err := d.Draw(52)
	require.NoError(t, err)
	d.AddToDiscardPile(drawn...)
	d.ShuffleDiscarded()

	got := d.Stock()
	want := slices.Clone(drawn)
	SortHand(got, nil)
	SortHand(want, nil)
	assert.Equal(t, want, got)
}

func TestTurnoverReversesDealOrder(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	original := d.Stock()

	drawn, err := d.Draw(52)
	require.NoError(t, err)
	d.AddToDiscardPile(drawn...)
	d.TurnoverDiscarded()

	want := slices.Clone(original)
	slices.Reverse(want)
	assert.Equal(t, want, d.Stock())
	assert.Zero(t, d.DiscardSize())
}

func TestTurnoverGoesUnderRemainingStock(t *testing.T) {
	d := unshuffled(DeckConfig{PackCount: 1})
	drawn, err := d.Draw(2) // QS, KS
	require.NoError(t, err)
	d.AddToDiscardPile(drawn...)
	d.TurnoverDiscarded()

	stock := d.Stock()
	assert.Equal(t, Card{Rank: King, Suit: Spades}, stock[0])
	assert.Equal(t, Card{Rank: Queen, Suit: Spades}, stock[1])
	assert.Equal(t, Card{Rank: Jack, Suit: Spades}, stock[len(stock)-1])
}

func TestSetWildcardRank(t *testing.T) {
	d := NewDeck(DeckConfig{PackCount: 1, UseJoker: true})
	d.SetWildcardRank(rankPtr(Four))
	assert.Equal(t, Four, *d.Config().Wildcard())
	assert.False(t, d.Config().UseJoker)

	d.Reset()
	assert.Equal(t, 52, d.StockSize())
}
