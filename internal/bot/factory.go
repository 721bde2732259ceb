package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects how much of the greedy strategy a bot uses.
type BotLevel int

const (
	// BotLevelEasy only draws from the stock.
	BotLevelEasy BotLevel = iota
	// BotLevelNormal also picks up discards it can meld.
	BotLevelNormal
)

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &GreedyBot{Layoffs: true}, nil
	case BotLevelNormal:
		return &GreedyBot{Layoffs: true, TakeDiscards: true}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// LevelFromDifficulty maps an identity's difficulty to a level.
func LevelFromDifficulty(difficulty string) BotLevel {
	if strings.EqualFold(difficulty, "easy") {
		return BotLevelEasy
	}
	return BotLevelNormal
}

// NewAgent builds the agent for a bot user, using its configured difficulty when known.
func NewAgent(userID string) (*Agent, error) {
	level := BotLevelNormal
	name := GetBotDisplayName(userID)
	if identity, ok := GetBotConfig(userID); ok {
		level = LevelFromDifficulty(identity.Difficulty)
	}
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: userID, Name: name, Strategy: brain}, nil
}
