package bot

import (
	"fmt"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/domain"
)

// maxTurnSteps bounds one turn; every meld or layoff shrinks the hand, so a
// turn needs at most a draw, one step per card and a discard.
const maxTurnSteps = 128

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Act asks the agent for its next step in the current game state.
func (a *Agent) Act(game *domain.Game) (Action, error) {
	seat := game.PlayerIndex(a.ID)
	if seat < 0 {
		return Action{}, fmt.Errorf("bot %s is not seated", a.ID)
	}
	return a.Strategy.NextAction(game.ViewState(), seat)
}

// TakeTurn plays the agent's whole turn through svc. If the strategy asks for
// something the rules refuse, the turn is ended for it instead.
func (a *Agent) TakeTurn(svc *app.Service, game *domain.Game) ([]app.Event, error) {
	var events []app.Event
	for step := 0; step < maxTurnSteps; step++ {
		if game.CurrentPlayerID() != a.ID || !domain.InTurn(game.Phase()) {
			return events, nil
		}
		action, err := a.Act(game)
		if err == nil {
			var evs []app.Event
			evs, err = a.apply(svc, game, action)
			events = append(events, evs...)
		}
		if err != nil {
			evs, endErr := svc.EndTurn(game, a.ID)
			if endErr != nil {
				return events, fmt.Errorf("bot %s: %v; ending turn: %w", a.ID, err, endErr)
			}
			return append(events, evs...), nil
		}
		if action.Kind == ActionDiscard {
			return events, nil
		}
	}
	evs, err := svc.EndTurn(game, a.ID)
	return append(events, evs...), err
}

func (a *Agent) apply(svc *app.Service, game *domain.Game, action Action) ([]app.Event, error) {
	switch action.Kind {
	case ActionDrawStock:
		return svc.Draw(game, a.ID, app.DrawFromStock, nil)
	case ActionDrawDiscard:
		return svc.Draw(game, a.ID, app.DrawFromDiscard, nil)
	case ActionFormMeld:
		return svc.FormMeld(game, a.ID, action.Indices)
	case ActionLayoff:
		target, ok := game.Player(action.TargetSeat)
		if !ok {
			return nil, fmt.Errorf("no player at seat %d", action.TargetSeat)
		}
		return svc.Layoff(game, a.ID, action.CardIndex, target.ID, action.MeldIndex)
	case ActionEndPlay:
		return svc.EndPlay(game, a.ID)
	case ActionDiscard:
		return svc.Discard(game, a.ID, action.CardIndex)
	}
	return nil, fmt.Errorf("unknown action %v", action.Kind)
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event interface{}) {
	a.Strategy.OnEvent(event)
}
