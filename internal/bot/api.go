package bot

import "github.com/mhbka/rummy/internal/domain"

// ActionKind is one step a bot takes during its turn.
type ActionKind int

const (
	ActionDrawStock ActionKind = iota
	ActionDrawDiscard
	ActionFormMeld
	ActionLayoff
	ActionEndPlay
	ActionDiscard
)

func (k ActionKind) String() string {
	switch k {
	case ActionDrawStock:
		return "draw_stock"
	case ActionDrawDiscard:
		return "draw_discard"
	case ActionFormMeld:
		return "form_meld"
	case ActionLayoff:
		return "layoff"
	case ActionEndPlay:
		return "end_play"
	case ActionDiscard:
		return "discard"
	}
	return "unknown"
}

// Action represents the decision made by the AI. Indices refer to the bot's
// hand as it is when the action is chosen.
type Action struct {
	Kind       ActionKind
	Indices    []int // ActionFormMeld
	CardIndex  int   // ActionLayoff, ActionDiscard
	TargetSeat int   // ActionLayoff
	MeldIndex  int   // ActionLayoff
}

// Brain is the interface that all bot strategies must implement.
// NextAction is asked again after every applied action until the turn passes.
type Brain interface {
	NextAction(view domain.StateView, seat int) (Action, error)
	OnEvent(event interface{})
}
