package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these; test with errors.Is.
var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrCapacity      = errors.New("not enough cards")
	ErrIndex         = errors.New("index out of range")
	ErrRuleViolation = errors.New("rule violation")
	ErrPhaseSequence = errors.New("phase sequence violation")
)

var (
	ErrWrongPhase    = fmt.Errorf("%w: action not allowed in this phase", ErrPhaseSequence)
	ErrGameEnded     = fmt.Errorf("%w: game has ended", ErrPhaseSequence)
	ErrDuplicateID   = fmt.Errorf("%w: player id already seated", ErrRuleViolation)
	ErrTableFull     = fmt.Errorf("%w: table is full", ErrCapacity)
	ErrInactiveSeat  = fmt.Errorf("%w: player is not active", ErrRuleViolation)
	ErrCurrentPlayer = fmt.Errorf("%w: use QuitCurrentPlayer for the current player", ErrRuleViolation)
)

// ErrorKind returns the name of the error kind err wraps, or "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrIndex):
		return "index"
	case errors.Is(err, ErrRuleViolation):
		return "rule_violation"
	case errors.Is(err, ErrPhaseSequence):
		return "phase_sequence"
	default:
		return "unknown"
	}
}

func indexErr(what string, i, n int) error {
	return fmt.Errorf("%w: %s %d (have %d)", ErrIndex, what, i, n)
}
