package domain

import "slices"

// PhaseKind names a phase of the round lifecycle.
type PhaseKind string

const (
	PhaseDraw     PhaseKind = "draw"
	PhasePlay     PhaseKind = "play"
	PhaseDiscard  PhaseKind = "discard"
	PhaseRoundEnd PhaseKind = "round_end"
	PhaseGameEnd  PhaseKind = "game_end"
)

// Phase is one of DrawPhase, PlayPhase, DiscardPhase, RoundEndPhase or GameEndPhase.
type Phase interface {
	Kind() PhaseKind
}

// DrawPhase: the current player must draw from the stock or the discard pile.
type DrawPhase struct {
	HasDrawn bool `json:"has_drawn"`
}

// PlayPhase: the current player may form melds and lay off cards.
type PlayPhase struct {
	PlayCount int `json:"play_count"`
}

// DiscardPhase: the current player discards one card.
type DiscardPhase struct {
	HasDiscarded bool `json:"has_discarded"`
}

// RoundEndPhase: the round is over and may be scored.
type RoundEndPhase struct {
	HasScoredRound bool `json:"has_scored_round"`
}

// GameEndPhase is terminal.
type GameEndPhase struct{}

func (DrawPhase) Kind() PhaseKind     { return PhaseDraw }
func (PlayPhase) Kind() PhaseKind     { return PhasePlay }
func (DiscardPhase) Kind() PhaseKind  { return PhaseDiscard }
func (RoundEndPhase) Kind() PhaseKind { return PhaseRoundEnd }
func (GameEndPhase) Kind() PhaseKind  { return PhaseGameEnd }

// InTurn reports whether phase belongs to a player's turn rather than a round
// or game boundary.
func InTurn(phase Phase) bool {
	switch phase.(type) {
	case DrawPhase, PlayPhase, DiscardPhase:
		return true
	}
	return false
}

// Outcome reports what a successful action did to the phase.
type Outcome int

const (
	// SamePhase: the action succeeded and the player keeps acting in this phase.
	SamePhase Outcome = iota
	// NextPhase: the game moved on to the following phase.
	NextPhase
	// RoundEnded: the round ended early, for example because a hand emptied.
	RoundEnded
	// GameEnded: the game reached its terminal phase.
	GameEnded
)

func (o Outcome) String() string {
	switch o {
	case SamePhase:
		return "same_phase"
	case NextPhase:
		return "next_phase"
	case RoundEnded:
		return "round_ended"
	case GameEnded:
		return "game_ended"
	}
	return "unknown"
}

// Player is one seat at the table.
type Player struct {
	ID            string `json:"id"`
	Hand          []Card `json:"hand"`
	Melds         []Meld `json:"melds"`
	Active        bool   `json:"active"`
	JoinedInRound int    `json:"joined_in_round"`
}

// NewPlayer seats a player. Inactive players join at the next round start.
func NewPlayer(id string, active bool, joinedInRound int) *Player {
	return &Player{ID: id, Active: active, JoinedInRound: joinedInRound}
}

// Reset clears the hand and melds for a new round.
func (p *Player) Reset() {
	p.Hand = nil
	p.Melds = nil
}

// MoveCard moves the card at oldPos to newPos. newPos is clamped to the last slot.
func (p *Player) MoveCard(oldPos, newPos int) error {
	if oldPos < 0 || oldPos >= len(p.Hand) {
		return indexErr("hand position", oldPos, len(p.Hand))
	}
	if newPos < 0 {
		return indexErr("hand position", newPos, len(p.Hand))
	}
	newPos = min(newPos, len(p.Hand)-1)
	card := p.Hand[oldPos]
	hand := slices.Delete(slices.Clone(p.Hand), oldPos, oldPos+1)
	p.Hand = slices.Insert(hand, newPos, card)
	return nil
}

// clone returns a deep copy for read-only views.
func (p *Player) clone() Player {
	out := *p
	out.Hand = slices.Clone(p.Hand)
	out.Melds = make([]Meld, len(p.Melds))
	for i, m := range p.Melds {
		out.Melds[i] = m.Clone()
	}
	return out
}
