package app

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mhbka/rummy/internal/domain"
)

// Service contains Rummy use-cases operating on domain state. Every method takes
// the acting user id, checks it against the game, delegates to the engine and
// returns the events to dispatch.
type Service struct {
	rng   *rand.Rand
	rules domain.GameConfig
	deck  domain.DeckConfig
}

// NewService constructs a Service with provided rng or a time-seeded default.
// Games it starts use rules and deck; a deck without a shuffle seed is seeded from rng.
func NewService(rng *rand.Rand, rules domain.GameConfig, deck domain.DeckConfig) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, rules: rules, deck: deck}
}

var (
	ErrNoGame        = errors.New("no game in progress")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer = errors.New("player not found")
	ErrNotYourTurn   = errors.New("not your turn")
)

// StartGame seats the given users in order (empty strings are skipped), deals
// the first round and returns the new game.
func (s *Service) StartGame(playerIDs []string) (*domain.Game, []Event, error) {
	var seats []string
	for _, id := range playerIDs {
		if id != "" {
			seats = append(seats, id)
		}
	}
	if len(seats) < MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}

	deck := s.deck
	if deck.ShuffleSeed == nil {
		// 0 means unshuffled
		seed := s.rng.Int63n(math.MaxInt64-1) + 1
		deck.ShuffleSeed = &seed
	}
	game := domain.New(seats, s.rules, deck)
	out, err := game.ToNextRound()
	if err != nil {
		return nil, nil, err
	}
	if out == domain.GameEnded {
		return nil, nil, ErrTooFewPlayers
	}
	return game, roundStartedEvents(game), nil
}

// Draw draws for the current player and moves on to the play phase.
// amount only matters for discard-pile draws under a player-chosen policy.
func (s *Service) Draw(game *domain.Game, actorUserID string, source DrawSource, amount *int) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	before := handSize(game, actorUserID)

	var err error
	switch source {
	case DrawFromStock:
		_, err = game.DrawStock()
	case DrawFromDiscard:
		_, err = game.DrawDiscardPile(amount)
	default:
		err = fmt.Errorf("%w: unknown draw source %q", domain.ErrRuleViolation, source)
	}
	if err != nil {
		return nil, err
	}
	if _, err := game.ToPlay(); err != nil {
		return nil, err
	}

	view := game.ViewState()
	return []Event{
		{
			Kind: EventCardDrawn,
			Payload: CardDrawnPayload{
				UserID:      actorUserID,
				Source:      source,
				Count:       handSize(game, actorUserID) - before,
				StockSize:   view.StockSize,
				DiscardSize: view.DiscardSize,
				DiscardTop:  view.DiscardTop,
			},
		},
		handEvent(game, actorUserID),
		phaseEvent(game, actorUserID),
	}, nil
}

// FormMeld melds the actor's cards at indices.
func (s *Service) FormMeld(game *domain.Game, actorUserID string, indices []int) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	out, err := game.FormMeld(indices)
	if err != nil {
		return nil, err
	}

	p, _ := game.Player(game.PlayerIndex(actorUserID))
	events := []Event{
		{
			Kind: EventMeldFormed,
			Payload: MeldFormedPayload{
				UserID:   actorUserID,
				Meld:     p.Melds[len(p.Melds)-1],
				HandSize: len(p.Hand),
			},
		},
		handEvent(game, actorUserID),
	}
	if out == domain.RoundEnded {
		events = append(events, roundEndedEvents(game)...)
	}
	return events, nil
}

// Layoff lays the actor's card onto a meld owned by targetUserID.
func (s *Service) Layoff(game *domain.Game, actorUserID string, cardIndex int, targetUserID string, meldIndex int) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	target := game.PlayerIndex(targetUserID)
	if target < 0 {
		return nil, ErrUnknownPlayer
	}
	actor, _ := game.Player(game.CurrentPlayer())
	if cardIndex < 0 || cardIndex >= len(actor.Hand) {
		return nil, fmt.Errorf("%w: card %d out of range [0, %d)", domain.ErrIndex, cardIndex, len(actor.Hand))
	}
	card := actor.Hand[cardIndex]

	out, err := game.LayoffCard(cardIndex, target, meldIndex)
	if err != nil {
		return nil, err
	}

	owner, _ := game.Player(target)
	events := []Event{
		{
			Kind: EventCardLaidOff,
			Payload: CardLaidOffPayload{
				UserID:       actorUserID,
				TargetUserID: targetUserID,
				MeldIndex:    meldIndex,
				Card:         card,
				Meld:         owner.Melds[meldIndex],
				HandSize:     handSize(game, actorUserID),
			},
		},
		handEvent(game, actorUserID),
	}
	if out == domain.RoundEnded {
		events = append(events, roundEndedEvents(game)...)
	}
	return events, nil
}

// EndPlay moves the actor from playing melds to discarding.
func (s *Service) EndPlay(game *domain.Game, actorUserID string) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	if _, err := game.ToDiscard(); err != nil {
		return nil, err
	}
	return []Event{phaseEvent(game, actorUserID)}, nil
}

// Discard discards the actor's card and passes the turn on.
func (s *Service) Discard(game *domain.Game, actorUserID string, cardIndex int) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	actor, _ := game.Player(game.CurrentPlayer())
	if cardIndex < 0 || cardIndex >= len(actor.Hand) {
		return nil, fmt.Errorf("%w: card %d out of range [0, %d)", domain.ErrIndex, cardIndex, len(actor.Hand))
	}
	card := actor.Hand[cardIndex]

	out, err := game.Discard(cardIndex)
	if err != nil {
		return nil, err
	}
	events := []Event{
		{
			Kind: EventCardDiscarded,
			Payload: CardDiscardedPayload{
				UserID:   actorUserID,
				Card:     card,
				HandSize: len(actor.Hand) - 1,
			},
		},
		handEvent(game, actorUserID),
	}
	if out == domain.RoundEnded {
		return append(events, roundEndedEvents(game)...), nil
	}

	if _, err := game.ToNextPlayer(); err != nil {
		return nil, err
	}
	return append(events, turnEvent(actorUserID, game)), nil
}

// EndTurn forces the actor's turn to finish from whatever phase it is in,
// drawing and discarding automatically. It backs turn timeouts.
func (s *Service) EndTurn(game *domain.Game, actorUserID string) ([]Event, error) {
	if err := requireTurn(game, actorUserID); err != nil {
		return nil, err
	}
	var events []Event
	for {
		switch game.Phase().(type) {
		case domain.DrawPhase:
			if _, err := game.ToPlay(); err != nil {
				return nil, err
			}
		case domain.PlayPhase:
			if _, err := game.ToDiscard(); err != nil {
				return nil, err
			}
		case domain.DiscardPhase:
			before, _ := game.Player(game.CurrentPlayer())
			out, err := game.ToNextPlayer()
			if err != nil {
				return nil, err
			}
			after, _ := game.Player(game.PlayerIndex(actorUserID))
			if len(after.Hand) < len(before.Hand) {
				events = append(events, Event{
					Kind: EventCardDiscarded,
					Payload: CardDiscardedPayload{
						UserID:   actorUserID,
						Card:     before.Hand[0],
						HandSize: len(after.Hand),
					},
				}, handEvent(game, actorUserID))
			}
			if out == domain.RoundEnded {
				return append(events, roundEndedEvents(game)...), nil
			}
			return append(events, turnEvent(actorUserID, game)), nil
		default:
			return nil, fmt.Errorf("%w: no turn to end during %s", domain.ErrWrongPhase, game.Phase().Kind())
		}
	}
}

// AdvanceRound starts the next round, or ends the game when no round can follow.
func (s *Service) AdvanceRound(game *domain.Game, actorUserID string) ([]Event, error) {
	if err := requireSeat(game, actorUserID); err != nil {
		return nil, err
	}
	out, err := game.ToNextRound()
	if err != nil {
		return nil, err
	}
	if out == domain.GameEnded {
		return []Event{gameEndedEvent(game)}, nil
	}
	return roundStartedEvents(game), nil
}

// EndGame ends the game between rounds.
func (s *Service) EndGame(game *domain.Game, actorUserID string) ([]Event, error) {
	if err := requireSeat(game, actorUserID); err != nil {
		return nil, err
	}
	if _, err := game.EndGame(); err != nil {
		return nil, err
	}
	return []Event{gameEndedEvent(game)}, nil
}

// AddPlayer seats userID at the end of the table. They play from the next round.
func (s *Service) AddPlayer(game *domain.Game, userID string) ([]Event, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if err := game.AddPlayer(userID, nil); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{UserID: userID, Seat: game.PlayerIndex(userID), Pending: true},
	}}, nil
}

// Quit removes userID from play. The current player's turn passes on; the round
// ends when fewer than two players remain.
func (s *Service) Quit(game *domain.Game, userID string) ([]Event, error) {
	if err := requireSeat(game, userID); err != nil {
		return nil, err
	}

	var (
		out domain.Outcome
		err error
	)
	if domain.InTurn(game.Phase()) && game.CurrentPlayerID() == userID {
		out, err = game.QuitCurrentPlayer()
	} else {
		out, err = game.QuitPlayer(game.PlayerIndex(userID))
	}
	if err != nil {
		return nil, err
	}

	events := []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{UserID: userID}}}
	switch out {
	case domain.RoundEnded:
		events = append(events, roundEndedEvents(game)...)
	case domain.NextPhase:
		events = append(events, turnEvent(userID, game))
	}
	return events, nil
}

// MoveCard reorders the actor's own hand. It is allowed outside the actor's turn.
func (s *Service) MoveCard(game *domain.Game, actorUserID string, oldPos, newPos int) ([]Event, error) {
	if err := requireSeat(game, actorUserID); err != nil {
		return nil, err
	}
	if err := game.MoveCardInHand(game.PlayerIndex(actorUserID), oldPos, newPos); err != nil {
		return nil, err
	}
	return []Event{handEvent(game, actorUserID)}, nil
}

func requireSeat(game *domain.Game, userID string) error {
	if game == nil {
		return ErrNoGame
	}
	if game.PlayerIndex(userID) < 0 {
		return ErrUnknownPlayer
	}
	return nil
}

func requireTurn(game *domain.Game, userID string) error {
	if err := requireSeat(game, userID); err != nil {
		return err
	}
	if !domain.InTurn(game.Phase()) {
		return fmt.Errorf("%w: no turn during %s", domain.ErrWrongPhase, game.Phase().Kind())
	}
	if game.CurrentPlayerID() != userID {
		return ErrNotYourTurn
	}
	return nil
}

func handSize(game *domain.Game, userID string) int {
	p, _ := game.Player(game.PlayerIndex(userID))
	return len(p.Hand)
}

func handEvent(game *domain.Game, userID string) Event {
	p, _ := game.Player(game.PlayerIndex(userID))
	return Event{
		Kind:       EventHandUpdated,
		Payload:    HandPayload{UserID: userID, Hand: p.Hand},
		Recipients: []string{userID},
	}
}

func phaseEvent(game *domain.Game, userID string) Event {
	return Event{
		Kind:    EventPhaseChanged,
		Payload: PhaseChangedPayload{UserID: userID, Phase: game.Phase().Kind()},
	}
}

func turnEvent(previous string, game *domain.Game) Event {
	return Event{
		Kind:    EventTurnChanged,
		Payload: TurnChangedPayload{PreviousUserID: previous, UserID: game.CurrentPlayerID()},
	}
}

func roundStartedEvents(game *domain.Game) []Event {
	view := game.ViewState()
	events := make([]Event, 0, len(view.Players)+1)
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			Round:           view.Round,
			FirstTurnUserID: game.CurrentPlayerID(),
			Wildcard:        view.Wildcard,
			StockSize:       view.StockSize,
		},
	})
	for _, p := range view.Players {
		if !p.Active {
			continue
		}
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandPayload{UserID: p.ID, Hand: p.Hand},
			Recipients: []string{p.ID},
		})
	}
	return events
}

// roundEndedEvents scores the finished round and reports it.
func roundEndedEvents(game *domain.Game) []Event {
	if _, err := game.CalculateScore(); err != nil {
		return nil
	}
	score := game.Score()
	points := score.Round(game.Round())
	return []Event{{
		Kind: EventRoundEnded,
		Payload: RoundEndedPayload{
			Round:    game.Round(),
			WinnerID: leader(game, points),
			Points:   points,
			Totals:   totals(game, score),
		},
	}}
}

func gameEndedEvent(game *domain.Game) Event {
	t := totals(game, game.Score())
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			Rounds:   game.Round(),
			Totals:   t,
			WinnerID: leader(game, t),
		},
	}
}

// totals sums the points of every player that was scored in at least one round.
func totals(game *domain.Game, score domain.Score) map[string]int {
	out := make(map[string]int, game.PlayerCount())
	for i := 0; i < game.PlayerCount(); i++ {
		p, _ := game.Player(i)
		for _, points := range score {
			if _, ok := points[p.ID]; ok {
				out[p.ID] = score.Total(p.ID)
				break
			}
		}
	}
	return out
}

// leader picks the best entry of points in seat order: the highest when only
// winners score, the lowest when everyone scores their own hand.
func leader(game *domain.Game, points map[string]int) string {
	best := ""
	for i := 0; i < game.PlayerCount(); i++ {
		p, _ := game.Player(i)
		v, ok := points[p.ID]
		if !ok {
			continue
		}
		if best == "" {
			best = p.ID
			continue
		}
		if game.Config().ScoreWinnerOnly && v > points[best] || !game.Config().ScoreWinnerOnly && v < points[best] {
			best = p.ID
		}
	}
	return best
}
