package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/bot"
	"github.com/mhbka/rummy/internal/config"
	"github.com/mhbka/rummy/internal/domain"
	"github.com/mhbka/rummy/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seats in the match label

	// botFillTarget is how many seats lobby auto-fill brings a solo human up to.
	botFillTarget = 4

	defaultTurnDurationSeconds     = 45
	defaultBotAutoFillDelaySeconds = 15
)

var errNotOwner = errors.New("only the table owner can do that")

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats                [domain.MaxPlayers]string   `json:"seats"`      // User IDs, empty string means seat is empty
	OwnerSeat            int                         `json:"owner_seat"` // Seat index of the match owner
	Tick                 int64                       `json:"tick"`
	Private              bool                        `json:"private"` // Joiners need a table token
	Variant              string                      `json:"variant"`
	Presences            map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`
	Game                 *domain.Game                `json:"-"` // Current game (nil if in lobby)
	RoundWins            map[string]int              `json:"-"` // Rounds won per user in the current game
	TurnDuration         int64                       `json:"turn_duration"` // Ticks before a turn is ended for the player; 0 disables
	TurnDeadline         int64                       `json:"turn_deadline"`
	TurnKey              string                      `json:"-"` // Which turn the deadline was armed for
	BotsEnabled          bool                        `json:"bots_enabled"`
	BotActionDelay       int64                       `json:"bot_action_delay"`    // Ticks a bot waits before acting
	BotAutoFillDelay     int64                       `json:"bot_auto_fill_delay"` // Ticks to wait before auto-filling with bots
	BotWaitUntil         int64                       `json:"bot_wait_until"`
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent       `json:"-"`
	Ledger               ports.ScoreLedgerPort       `json:"-"`
	Stats                ports.StatsPort             `json:"-"`
	Tokens               *app.TableTokenService      `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// seatOf returns the seat of userID or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) ownerID() string {
	if ms.OwnerSeat < 0 || ms.OwnerSeat >= len(ms.Seats) {
		return ""
	}
	return ms.Seats[ms.OwnerSeat]
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i := range seats {
		if isHumanSeat(seats, i) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created. Params: "variant" (string) and
// "private" (bool).
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if env == nil {
		env = map[string]string{}
	}
	rc, err := config.ParseRuntimeConfig(env)
	if err != nil {
		logger.Warn("MatchInit: Invalid runtime config, using defaults: %v", err)
		rc, _ = config.ParseRuntimeConfig(map[string]string{})
	}

	variantID, _ := params["variant"].(string)
	private, _ := params["private"].(bool)
	variant := config.GetVariant(variantID)

	turnSeconds := defaultTurnDurationSeconds
	autoFillSeconds := defaultBotAutoFillDelaySeconds
	if gc := config.GetGameConfig(); gc != nil {
		turnSeconds = gc.TurnDurationSeconds
		autoFillSeconds = gc.BotAutoFillDelaySeconds
	}

	currency := PenaltyCurrency
	if variant.Rules.ScoreWinnerOnly {
		currency = PointsCurrency
	}

	state := &MatchState{
		OwnerSeat:        -1,
		Tick:             time.Now().Unix(),
		Private:          private,
		Variant:          variant.ID,
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())), variant.Rules, variant.Deck),
		TurnDuration:     int64(turnSeconds),
		BotsEnabled:      rc.BotsEnabled && !private,
		BotActionDelay:   max(1, int64(math.Ceil(rc.BotActionDelay.Seconds()))),
		BotAutoFillDelay: int64(autoFillSeconds),
		Bots:             make(map[string]*bot.Agent),
	}
	if nk != nil {
		state.Ledger = NewNakamaScoreLedger(nk, currency)
		state.Stats = NewNakamaStatsAdapter(nk)
	}
	if rc.TokensEnabled() {
		state.Tokens = app.NewTableTokenService(rc.TableTokenSecret, rc.TableTokenIssuer, rc.TableTokenTTL)
	}

	label, err := mh.label(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Debug("MatchInit: variant=%s private=%t bots=%t", state.Variant, state.Private, state.BotsEnabled)
	tickRate := 1
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	// Reconnects keep their seat.
	if matchState.seatOf(userID) >= 0 {
		return state, true, ""
	}

	if matchState.Private {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		if _, err := matchState.Tokens.Verify(metadata["token"], userID, matchID); err != nil {
			logger.Warn("MatchJoinAttempt: Rejected %s: %v", userID, err)
			return state, false, "invalid table token"
		}
	}

	// Players who left stay in the running game, so the table can fill up
	// before the seats do.
	if matchState.Game != nil && matchState.Game.PlayerIndex(userID) < 0 && matchState.Game.PlayerCount() >= domain.MaxPlayers {
		return state, false, "Match full"
	}

	// Allow join if there is an empty seat OR a bot to replace (if game hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	var rejoined []string
	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.seatOf(userID) >= 0 {
			rejoined = append(rejoined, userID)
			continue
		}
		seat := mh.assignSeat(matchState, logger, userID)
		if seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
			continue
		}

		// Joining a running game seats the player from the next round.
		if matchState.Game != nil && matchState.Game.PlayerIndex(userID) < 0 {
			events, err := matchState.App.AddPlayer(matchState.Game, userID)
			if err != nil {
				logger.Warn("MatchJoin: User %s cannot join the running game: %v", userID, err)
				matchState.Seats[seat] = ""
				mh.sendError(matchState, dispatcher, logger, userID, err)
				continue
			}
			mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	for _, userID := range rejoined {
		mh.sendHand(ctx, matchState, dispatcher, logger, userID)
	}
	return matchState
}

// assignSeat seats userID in the first empty seat, or in place of a bot while in the lobby.
// It returns the seat index, or -1 when nothing was free.
func (mh *matchHandler) assignSeat(state *MatchState, logger runtime.Logger, userID string) int {
	for i, seatUserId := range state.Seats {
		if seatUserId == "" {
			state.Seats[i] = userID
			return i
		}
	}
	if state.Game != nil {
		return -1
	}
	for i, seatUserId := range state.Seats {
		if isBotUserId(seatUserId) {
			logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
			delete(state.Bots, seatUserId)
			state.Seats[i] = userID
			return i
		}
	}
	return -1
}

// MatchLeave is called when one or more players leave the match. Leaving a running
// game quits it.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	ownerLeft := false
	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
		if matchState.OwnerSeat == seat {
			ownerLeft = true
		}

		if matchState.Game != nil && matchState.Game.PlayerIndex(userID) >= 0 {
			events, err := matchState.App.Quit(matchState.Game, userID)
			if err != nil {
				logger.Debug("MatchLeave: Quit for %s: %v", userID, err)
				continue
			}
			mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		} else if ownerLeft {
			logger.Debug("MatchLeave: Owner left and no human owner is available.")
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch op := msg.GetOpCode(); {
		case op == OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case op > OpStartGame && op <= OpEndGame:
			mh.handleGameAction(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", op)
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}
	mh.processTurnTimer(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		mh.sendError(state, dispatcher, logger, senderID, fmt.Errorf("%w: game already running", domain.ErrWrongPhase))
		return
	}
	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, errNotOwner)
		return
	}

	game, events, err := state.App.StartGame(state.Seats[:])
	if err != nil {
		logger.Warn("StartGame: Cannot start with %d players: %v", state.GetOccupiedSeatCount(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	state.RoundWins = make(map[string]int)
	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started with %d players.", game.PlayerCount())
}

// handleGameAction applies one in-game client request through the app service.
func (mh *matchHandler) handleGameAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	events, err := mh.applyAction(state, senderID, msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Warn("handleGameAction: User %s op %d failed: %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) applyAction(state *MatchState, senderID string, opCode int64, data []byte) ([]app.Event, error) {
	if state.Game == nil {
		return nil, app.ErrNoGame
	}
	req, err := decodeRequest(data)
	if err != nil {
		return nil, err
	}
	game := state.Game

	switch opCode {
	case OpDrawStock:
		return state.App.Draw(game, senderID, app.DrawFromStock, nil)
	case OpDrawDiscard:
		amount, err := requestOptionalInt(req, "amount")
		if err != nil {
			return nil, err
		}
		return state.App.Draw(game, senderID, app.DrawFromDiscard, amount)
	case OpFormMeld:
		indices, err := requestInts(req, "indices")
		if err != nil {
			return nil, err
		}
		return state.App.FormMeld(game, senderID, indices)
	case OpLayoff:
		cardIndex, err := requestInt(req, "card_index")
		if err != nil {
			return nil, err
		}
		target, err := requestString(req, "target_user_id")
		if err != nil {
			return nil, err
		}
		meldIndex, err := requestInt(req, "meld_index")
		if err != nil {
			return nil, err
		}
		return state.App.Layoff(game, senderID, cardIndex, target, meldIndex)
	case OpEndPlay:
		return state.App.EndPlay(game, senderID)
	case OpDiscard:
		cardIndex, err := requestInt(req, "card_index")
		if err != nil {
			return nil, err
		}
		return state.App.Discard(game, senderID, cardIndex)
	case OpEndTurn:
		return state.App.EndTurn(game, senderID)
	case OpNextRound:
		return state.App.AdvanceRound(game, senderID)
	case OpMoveCard:
		from, err := requestInt(req, "from")
		if err != nil {
			return nil, err
		}
		to, err := requestInt(req, "to")
		if err != nil {
			return nil, err
		}
		return state.App.MoveCard(game, senderID, from, to)
	case OpQuit:
		return state.App.Quit(game, senderID)
	case OpEndGame:
		if senderID != state.ownerID() {
			return nil, errNotOwner
		}
		return state.App.EndGame(game, senderID)
	}
	return nil, fmt.Errorf("%w: unknown op %d", errBadRequest, opCode)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Game == nil {
		if state.GetHumanPlayerCount() != 1 {
			state.LastSinglePlayerTick = 0
			return
		}
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		}
		if state.Tick-state.LastSinglePlayerTick < state.BotAutoFillDelay {
			return
		}

		added := false
		for i, seat := range state.Seats {
			if seat != "" || state.GetOccupiedSeatCount() >= botFillTarget {
				continue
			}
			identity := bot.GetBotIdentity(i)
			if identity.UserID == "" || state.seatOf(identity.UserID) >= 0 {
				continue
			}
			agent, err := bot.NewAgent(identity.UserID)
			if err != nil {
				logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
				continue
			}
			state.Seats[i] = identity.UserID
			state.Bots[identity.UserID] = agent
			logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, identity.UserID, i)
			added = true
		}
		if added {
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastMatchState(state, dispatcher, logger)
		}
		state.LastSinglePlayerTick = 0
		return
	}

	// 2. Handle bot turns in-game
	current := state.Game.CurrentPlayerID()
	if !domain.InTurn(state.Game.Phase()) || !isBotUserId(current) {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + state.BotActionDelay
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", current, state.BotWaitUntil, state.Tick)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[current]
	if !exists {
		var err error
		agent, err = bot.NewAgent(current)
		if err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[current] = agent
	}

	events, err := agent.TakeTurn(state.App, state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed its turn: %v", current, err)
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

// processTurnTimer ends a turn nobody finished in time, and starts the next round
// when a finished round is left waiting.
func (mh *matchHandler) processTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.TurnDuration <= 0 {
		state.TurnKey = ""
		state.TurnDeadline = 0
		return
	}

	game := state.Game
	current := game.CurrentPlayerID()
	key := fmt.Sprintf("%d:%s", game.Round(), game.Phase().Kind())
	if domain.InTurn(game.Phase()) {
		key = fmt.Sprintf("%d:%s", game.Round(), current)
	}
	if key != state.TurnKey {
		state.TurnKey = key
		state.TurnDeadline = state.Tick + state.TurnDuration
		return
	}
	if state.Tick < state.TurnDeadline {
		return
	}
	state.TurnKey = ""

	var (
		events []app.Event
		err    error
	)
	switch {
	case domain.InTurn(game.Phase()):
		logger.Info("TurnTimer: Ending turn of %s in round %d", current, game.Round())
		events, err = state.App.EndTurn(game, current)
	case game.Phase().Kind() == domain.PhaseRoundEnd:
		logger.Info("TurnTimer: Starting round %d", game.Round()+1)
		events, err = state.App.AdvanceRound(game, current)
	default:
		return
	}
	if err != nil {
		logger.Error("TurnTimer: %v", err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	for _, agent := range state.Bots {
		agent.OnGameEvent(ev)
	}

	switch p := ev.Payload.(type) {
	case app.RoundEndedPayload:
		if state.RoundWins == nil {
			state.RoundWins = make(map[string]int)
		}
		if p.WinnerID != "" {
			state.RoundWins[p.WinnerID]++
		}
	case app.GameEndedPayload:
		mh.settle(ctx, state, logger, p)
		defer func() {
			state.Game = nil
			state.RoundWins = nil
			mh.updateLabel(state, dispatcher, logger)
		}()
	}

	data, err := encodePayload(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Intended recipients that are not connected (bots) must not turn
		// a private event into a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// settle writes the final totals of human players to the ledger and their stats.
func (mh *matchHandler) settle(ctx context.Context, state *MatchState, logger runtime.Logger, p app.GameEndedPayload) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	entries := make([]ports.ScoreEntry, 0, len(p.Totals))
	for userID, total := range p.Totals {
		if isBotUserId(userID) {
			continue
		}
		entries = append(entries, ports.ScoreEntry{
			UserID: userID,
			Points: int64(total),
			Metadata: map[string]interface{}{
				"match_id": matchID,
				"variant":  state.Variant,
				"reason":   "game_result",
			},
		})

		if state.Stats == nil {
			continue
		}
		result := ports.GameResult{
			UserID:    userID,
			Won:       userID == p.WinnerID,
			RoundsWon: state.RoundWins[userID],
			Total:     int64(total),
		}
		if err := state.Stats.RecordGame(ctx, result); err != nil {
			logger.Error("Failed to record stats for %s: %v", userID, err)
		}
	}

	if state.Ledger == nil {
		return
	}
	if err := state.Ledger.Record(ctx, entries); err != nil {
		logger.Error("Failed to record game points: %v", err)
	}
}

// sendHand privately resends userID's hand, for reconnects.
func (mh *matchHandler) sendHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	if state.Game == nil {
		return
	}
	p, ok := state.Game.Player(state.Game.PlayerIndex(userID))
	if !ok {
		return
	}
	mh.broadcastEvent(ctx, state, dispatcher, logger, app.Event{
		Kind:       app.EventHandUpdated,
		Payload:    app.HandPayload{UserID: userID, Hand: p.Hand},
		Recipients: []string{userID},
	})
}

// sendError sends a game_error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	data, mErr := encodePayload(gameErrorPayload{Code: errorCode(err), Message: err.Error()})
	if mErr != nil {
		logger.Error("Failed to marshal game error: %v", mErr)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	data, err := encodePayload(newMatchSnapshot(state))
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true)
}

func (mh *matchHandler) label(state *MatchState) (string, error) {
	phase := "lobby"
	if state.Game != nil {
		phase = "playing"
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":                  GameLabel,
		MatchLabelKey_OpenSeats: state.GetOpenSeatsCount(),
		"state":                 phase,
		"variant":               state.Variant,
		"private":               state.Private,
	})
	if err != nil {
		return "", err
	}
	labelBytes, err := protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.label(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminating in %d seconds", graceSeconds)
	return state
}

// inviteSignal asks a private table to accept another user.
type inviteSignal struct {
	Requester string `json:"requester"`
	UserID    string `json:"user_id"`
}

type signalResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// MatchSignal answers invite requests: only the owner may invite, and only while a seat is free.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}

	resp := signalResponse{OK: true}
	var req inviteSignal
	switch {
	case json.Unmarshal([]byte(data), &req) != nil || req.UserID == "":
		resp = signalResponse{Error: "malformed invite"}
	case req.Requester == "" || req.Requester != matchState.ownerID():
		resp = signalResponse{Error: errNotOwner.Error()}
	case matchState.seatOf(req.UserID) >= 0:
		resp = signalResponse{Error: "user already seated"}
	case matchState.GetOpenSeatsCount() == 0:
		resp = signalResponse{Error: "Match full"}
	}

	out, _ := json.Marshal(resp)
	return matchState, string(out)
}
