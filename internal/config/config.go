package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mhbka/rummy/internal/domain"
)

// DefaultVariant is used when a match does not ask for one.
const DefaultVariant = "standard"

// Variant is a named set of table rules.
type Variant struct {
	ID    string            `json:"id"`
	Rules domain.GameConfig `json:"rules"`
	Deck  domain.DeckConfig `json:"deck"`
}

type GameConfig struct {
	DefaultVariant      string    `json:"default_variant"`
	Variants            []Variant `json:"variants"`
	TurnDurationSeconds int       `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		c, err := ParseGameConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// ParseGameConfig decodes and validates a game configuration document.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects documents the engine cannot run. Values the deck coerces
// on its own (pack count, high rank) are left alone.
func (c *GameConfig) Validate() error {
	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if v.ID == "" {
			return fmt.Errorf("%w: variant without id", domain.ErrConfiguration)
		}
		if seen[v.ID] {
			return fmt.Errorf("%w: duplicate variant %q", domain.ErrConfiguration, v.ID)
		}
		seen[v.ID] = true
		if v.Rules.DealCount < 0 || v.Rules.MaxRounds < 0 {
			return fmt.Errorf("%w: variant %q has negative limits", domain.ErrConfiguration, v.ID)
		}
		if n := v.Rules.DiscardPileDrawAmount; n != nil && *n < 1 && *n != domain.DrawEntirePile {
			return fmt.Errorf("%w: variant %q discard draw amount %d", domain.ErrConfiguration, v.ID, *n)
		}
	}
	if c.DefaultVariant != "" && !seen[c.DefaultVariant] {
		return fmt.Errorf("%w: default variant %q not defined", domain.ErrConfiguration, c.DefaultVariant)
	}
	if c.TurnDurationSeconds < 0 || c.BotAutoFillDelaySeconds < 0 {
		return fmt.Errorf("%w: negative delay", domain.ErrConfiguration)
	}
	return nil
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetVariant returns the variant for an id, or the default if not found.
func GetVariant(id string) Variant {
	return cfg.Variant(id)
}

// Variant looks a variant up on c. A nil config or an unknown default gives
// standard rules with one pack and jokers.
func (c *GameConfig) Variant(id string) Variant {
	fallback := Variant{ID: DefaultVariant, Rules: domain.DefaultGameConfig(), Deck: domain.DeckConfig{PackCount: 1, UseJoker: true}}
	if c == nil {
		return fallback
	}

	target := id
	if target == "" {
		target = c.DefaultVariant
	}
	for _, v := range c.Variants {
		if v.ID == target {
			return v
		}
	}

	// Fallback to default variant if specific ID not found
	for _, v := range c.Variants {
		if v.ID == c.DefaultVariant {
			return v
		}
	}
	return fallback
}
