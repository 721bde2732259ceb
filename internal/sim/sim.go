// Package sim plays whole games between bot agents without a server.
package sim

import (
	"errors"
	"fmt"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/bot"
	"github.com/mhbka/rummy/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNoAgent = errors.New("no agent for current player")

// Result summarizes one simulated game. Finished is false when the turn limit
// cut the game short.
type Result struct {
	GameID   string
	Rounds   int
	Turns    int
	WinnerID string
	Totals   map[string]int
	Finished bool
}

// Runner plays games through an app.Service.
type Runner struct {
	svc      *app.Service
	maxTurns int
	logger   zerolog.Logger
}

func NewRunner(svc *app.Service, maxTurns int, logger zerolog.Logger) *Runner {
	return &Runner{svc: svc, maxTurns: maxTurns, logger: logger}
}

// Play seats the agents in order and plays until the game ends or the turn
// limit is reached.
func (r *Runner) Play(agents []*bot.Agent) (Result, error) {
	res := Result{GameID: uuid.NewString()}
	log := r.logger.With().Str("game_id", res.GameID).Logger()

	ids := make([]string, 0, len(agents))
	byID := make(map[string]*bot.Agent, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	game, _, err := r.svc.StartGame(ids)
	if err != nil {
		return res, err
	}
	log.Debug().Int("players", len(ids)).Msg("game started")

	for res.Turns < r.maxTurns {
		var events []app.Event
		switch game.Phase().(type) {
		case domain.RoundEndPhase:
			events, err = r.svc.AdvanceRound(game, game.CurrentPlayerID())
		case domain.GameEndPhase:
			return res, fmt.Errorf("%w: game ended without a result", domain.ErrPhaseSequence)
		default:
			current := game.CurrentPlayerID()
			agent, ok := byID[current]
			if !ok {
				return res, fmt.Errorf("%w: %s", ErrNoAgent, current)
			}
			events, err = agent.TakeTurn(r.svc, game)
			res.Turns++
		}
		if err != nil {
			return res, err
		}

		for _, ev := range events {
			switch p := ev.Payload.(type) {
			case app.RoundEndedPayload:
				log.Debug().Int("round", p.Round).Str("winner", p.WinnerID).Int("turns", res.Turns).Msg("round ended")
			case app.GameEndedPayload:
				res.Rounds = p.Rounds
				res.WinnerID = p.WinnerID
				res.Totals = p.Totals
				res.Finished = true
				return res, nil
			}
		}
	}

	res.Rounds = game.Round()
	log.Warn().Int("turns", res.Turns).Int("round", res.Rounds).Msg("turn limit reached")
	return res, nil
}

// Tally counts wins per agent name over many results.
type Tally struct {
	Games      int
	Unfinished int
	Wins       map[string]int
	names      map[string]string
}

func NewTally(agents []*bot.Agent) *Tally {
	t := &Tally{Wins: make(map[string]int), names: make(map[string]string)}
	for _, a := range agents {
		t.names[a.ID] = a.Name
		t.Wins[a.Name] = 0
	}
	return t
}

func (t *Tally) Add(res Result) {
	t.Games++
	if !res.Finished {
		t.Unfinished++
		return
	}
	if name, ok := t.names[res.WinnerID]; ok {
		t.Wins[name]++
	}
}
