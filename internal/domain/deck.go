package domain

import (
	"fmt"
	"math/rand"
	"slices"
	"time"
)

// DeckConfig describes how a deck is generated.
type DeckConfig struct {
	PackCount int `json:"pack_count"`
	// ShuffleSeed makes shuffling reproducible. A seed of 0 leaves the stock unshuffled.
	ShuffleSeed *int64 `json:"shuffle_seed,omitempty"`
	// UseJoker adds two jokers per pack and makes them the wildcard.
	UseJoker bool `json:"use_joker"`
	// HighRank overrides King as the top of the rank order.
	HighRank *Rank `json:"high_rank,omitempty"`
	// WildcardRank makes every card of that rank a wildcard. Excludes UseJoker.
	WildcardRank *Rank `json:"wildcard_rank,omitempty"`
}

// Normalize coerces invalid settings instead of rejecting them: pack count is
// raised to 1, a joker high rank is dropped, and a wildcard rank disables jokers
// unless the wildcard rank is Joker itself, which means "use jokers".
func (c DeckConfig) Normalize() DeckConfig {
	if c.PackCount < 1 {
		c.PackCount = 1
	}
	if c.HighRank != nil && (*c.HighRank < Ace || *c.HighRank > King) {
		c.HighRank = nil
	}
	if c.WildcardRank != nil {
		switch {
		case *c.WildcardRank == Joker:
			c.UseJoker = true
			c.WildcardRank = nil
		case *c.WildcardRank < Ace || *c.WildcardRank > King:
			c.WildcardRank = nil
		default:
			c.UseJoker = false
		}
	}
	return c
}

// Wildcard returns the effective wildcard rank, or nil when there is none.
func (c DeckConfig) Wildcard() *Rank {
	if c.WildcardRank != nil {
		r := *c.WildcardRank
		return &r
	}
	if c.UseJoker {
		r := Joker
		return &r
	}
	return nil
}

// Size is the number of cards a fresh deck holds.
func (c DeckConfig) Size() int {
	n := cardsPerPack
	if c.UseJoker {
		n += jokersPerPack
	}
	return n * max(c.PackCount, 1)
}

// Deck holds the stock and the discard pile. The top of each is the end of its slice.
type Deck struct {
	config      DeckConfig
	rng         *rand.Rand
	stock       []Card
	discardPile []Card
}

// NewDeck builds and shuffles a deck from a normalized copy of cfg.
func NewDeck(cfg DeckConfig) *Deck {
	cfg = cfg.Normalize()
	var src rand.Source
	if cfg.ShuffleSeed != nil {
		src = rand.NewSource(*cfg.ShuffleSeed)
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	d := &Deck{config: cfg, rng: rand.New(src)}
	d.Reset()
	return d
}

// Reset regenerates the stock from the current config and clears the discard pile.
func (d *Deck) Reset() {
	d.stock = generate(d.config)
	d.discardPile = nil
	if d.config.ShuffleSeed != nil && *d.config.ShuffleSeed == 0 {
		return
	}
	d.shuffle()
}

func generate(cfg DeckConfig) []Card {
	cards := make([]Card, 0, cfg.Size())
	for p := 0; p < cfg.PackCount; p++ {
		for s := Clubs; s <= Spades; s++ {
			for r := Ace; r <= King; r++ {
				cards = append(cards, Card{Rank: r, Suit: s})
			}
		}
		if cfg.UseJoker {
			for j := 0; j < jokersPerPack; j++ {
				cards = append(cards, NewCard(Joker, JokerSuit))
			}
		}
	}
	return cards
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.stock), func(i, j int) { d.stock[i], d.stock[j] = d.stock[j], d.stock[i] })
}

// Draw removes amount cards from the top of the stock.
func (d *Deck) Draw(amount int) ([]Card, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative draw amount %d", ErrCapacity, amount)
	}
	if amount > len(d.stock) {
		return nil, fmt.Errorf("%w: draw %d from stock of %d", ErrCapacity, amount, len(d.stock))
	}
	cut := len(d.stock) - amount
	cards := slices.Clone(d.stock[cut:])
	d.stock = d.stock[:cut]
	return cards, nil
}

// DrawSpecific removes the topmost stock card matching rank and suit.
func (d *Deck) DrawSpecific(rank Rank, suit Suit) (Card, error) {
	want := NewCard(rank, suit)
	for i := len(d.stock) - 1; i >= 0; i-- {
		if d.stock[i] == want {
			d.stock = slices.Delete(d.stock, i, i+1)
			return want, nil
		}
	}
	return Card{}, fmt.Errorf("%w: %s is not in the stock", ErrCapacity, want)
}

// PeekDiscardPile returns the top discard without removing it.
func (d *Deck) PeekDiscardPile() (Card, bool) {
	if len(d.discardPile) == 0 {
		return Card{}, false
	}
	return d.discardPile[len(d.discardPile)-1], true
}

// DrawDiscardPile removes amount cards from the top of the discard pile, or the
// whole pile when amount is nil.
func (d *Deck) DrawDiscardPile(amount *int) ([]Card, error) {
	size := len(d.discardPile)
	if size == 0 {
		return nil, fmt.Errorf("%w: discard pile is empty", ErrCapacity)
	}
	n := size
	if amount != nil {
		n = *amount
	}
	if n < 1 || n > size {
		return nil, fmt.Errorf("%w: draw %d from discard pile of %d", ErrCapacity, n, size)
	}
	cards := slices.Clone(d.discardPile[size-n:])
	d.discardPile = d.discardPile[:size-n]
	return cards, nil
}

// AddToDiscardPile puts cards on the discard pile; the last card ends up on top.
func (d *Deck) AddToDiscardPile(cards ...Card) {
	d.discardPile = append(d.discardPile, cards...)
}

// ShuffleDiscarded moves the discard pile into the stock and shuffles the stock.
func (d *Deck) ShuffleDiscarded() {
	d.stock = append(d.stock, d.discardPile...)
	d.discardPile = nil
	d.shuffle()
}

// TurnoverDiscarded flips the discard pile face down underneath the stock, so
// the oldest discard becomes the next card drawn once the stock runs out.
func (d *Deck) TurnoverDiscarded() {
	turned := slices.Clone(d.discardPile)
	slices.Reverse(turned)
	d.stock = append(turned, d.stock...)
	d.discardPile = nil
}

// SetWildcardRank changes the wildcard for the next Reset.
func (d *Deck) SetWildcardRank(r *Rank) {
	cfg := d.config
	if r == nil {
		cfg.WildcardRank = nil
	} else {
		rank := *r
		cfg.WildcardRank = &rank
	}
	d.config = cfg.Normalize()
}

// Config returns the normalized deck configuration.
func (d *Deck) Config() DeckConfig { return d.config }

// Stock returns a copy of the stock, bottom first.
func (d *Deck) Stock() []Card { return slices.Clone(d.stock) }

// DiscardPile returns a copy of the discard pile, bottom first.
func (d *Deck) DiscardPile() []Card { return slices.Clone(d.discardPile) }

func (d *Deck) StockSize() int   { return len(d.stock) }
func (d *Deck) DiscardSize() int { return len(d.discardPile) }
