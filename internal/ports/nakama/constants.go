package nakama

import "github.com/mhbka/rummy/internal/app"

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a public table.
	RpcQuickMatch = "rummy_quick_match"
	// RpcCreateTable creates a private table and returns the creator's table token.
	RpcCreateTable = "rummy_create_table"
	// RpcTableToken lets a private table's owner invite another user.
	RpcTableToken = "rummy_table_token"
	// RpcStats returns the caller's stats and lifetime points.
	RpcStats = "rummy_stats"

	// MatchNameRummy is the authoritative match handler name registered with Nakama.
	MatchNameRummy = "rummy_match"

	// GameLabel identifies Rummy matches in label queries.
	GameLabel = "rummy"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame   int64 = 1
	OpDrawStock   int64 = 2
	OpDrawDiscard int64 = 3
	OpFormMeld    int64 = 4
	OpLayoff      int64 = 5
	OpEndPlay     int64 = 6
	OpDiscard     int64 = 7
	OpEndTurn     int64 = 8
	OpNextRound   int64 = 9
	OpMoveCard    int64 = 10
	OpQuit        int64 = 11
	OpEndGame     int64 = 12

	// Server -> Client events
	OpMatchState    int64 = 100
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpRoundStarted  int64 = 103
	OpHandDealt     int64 = 104 // send privately
	OpHandUpdated   int64 = 105 // send privately
	OpCardDrawn     int64 = 106
	OpMeldFormed    int64 = 107
	OpCardLaidOff   int64 = 108
	OpCardDiscarded int64 = 109
	OpPhaseChanged  int64 = 110
	OpTurnChanged   int64 = 111
	OpRoundEnded    int64 = 112
	OpGameEnded     int64 = 113
	OpGameError     int64 = 199
)

var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:  OpPlayerJoined,
	app.EventPlayerLeft:    OpPlayerLeft,
	app.EventRoundStarted:  OpRoundStarted,
	app.EventHandDealt:     OpHandDealt,
	app.EventHandUpdated:   OpHandUpdated,
	app.EventCardDrawn:     OpCardDrawn,
	app.EventMeldFormed:    OpMeldFormed,
	app.EventCardLaidOff:   OpCardLaidOff,
	app.EventCardDiscarded: OpCardDiscarded,
	app.EventPhaseChanged:  OpPhaseChanged,
	app.EventTurnChanged:   OpTurnChanged,
	app.EventRoundEnded:    OpRoundEnded,
	app.EventGameEnded:     OpGameEnded,
}

// Codes carried by game_error events.
const (
	ErrCodeConfiguration int32 = 1
	ErrCodeCapacity      int32 = 2
	ErrCodeIndex         int32 = 3
	ErrCodeRuleViolation int32 = 4
	ErrCodePhaseSequence int32 = 5
	ErrCodeNotYourTurn   int32 = 6
	ErrCodeUnknownPlayer int32 = 7
	ErrCodeNoGame        int32 = 8
	ErrCodeTooFewPlayers int32 = 9
	ErrCodeBadRequest    int32 = 10
	ErrCodeNotOwner      int32 = 11
	ErrCodeUnknown       int32 = 99
)

// gRPC status codes used with runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)
