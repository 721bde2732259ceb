package app

import "github.com/mhbka/rummy/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined  EventKind = "player_joined"
	EventPlayerLeft    EventKind = "player_left"
	EventRoundStarted  EventKind = "round_started"
	EventHandDealt     EventKind = "hand_dealt"
	EventHandUpdated   EventKind = "hand_updated"
	EventCardDrawn     EventKind = "card_drawn"
	EventMeldFormed    EventKind = "meld_formed"
	EventCardLaidOff   EventKind = "card_laid_off"
	EventCardDiscarded EventKind = "card_discarded"
	EventPhaseChanged  EventKind = "phase_changed"
	EventTurnChanged   EventKind = "turn_changed"
	EventRoundEnded    EventKind = "round_ended"
	EventGameEnded     EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// DrawSource says where a draw takes cards from.
type DrawSource string

const (
	DrawFromStock   DrawSource = "stock"
	DrawFromDiscard DrawSource = "discard"
)

type PlayerJoinedPayload struct {
	UserID string `json:"user_id"`
	Seat   int    `json:"seat"`
	// Pending players sit out until the next round.
	Pending bool `json:"pending"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
}

type RoundStartedPayload struct {
	Round           int          `json:"round"`
	FirstTurnUserID string       `json:"first_turn_user_id"`
	Wildcard        *domain.Rank `json:"wildcard,omitempty"`
	StockSize       int          `json:"stock_size"`
}

type HandPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type CardDrawnPayload struct {
	UserID      string       `json:"user_id"`
	Source      DrawSource   `json:"source"`
	Count       int          `json:"count"`
	StockSize   int          `json:"stock_size"`
	DiscardSize int          `json:"discard_size"`
	DiscardTop  *domain.Card `json:"discard_top,omitempty"`
}

type MeldFormedPayload struct {
	UserID   string      `json:"user_id"`
	Meld     domain.Meld `json:"meld"`
	HandSize int         `json:"hand_size"`
}

type CardLaidOffPayload struct {
	UserID       string      `json:"user_id"`
	TargetUserID string      `json:"target_user_id"`
	MeldIndex    int         `json:"meld_index"`
	Card         domain.Card `json:"card"`
	Meld         domain.Meld `json:"meld"`
	HandSize     int         `json:"hand_size"`
}

type CardDiscardedPayload struct {
	UserID   string      `json:"user_id"`
	Card     domain.Card `json:"card"`
	HandSize int         `json:"hand_size"`
}

type PhaseChangedPayload struct {
	UserID string           `json:"user_id"`
	Phase  domain.PhaseKind `json:"phase"`
}

type TurnChangedPayload struct {
	PreviousUserID string `json:"previous_user_id"`
	UserID         string `json:"user_id"`
}

type RoundEndedPayload struct {
	Round    int            `json:"round"`
	WinnerID string         `json:"winner_id"`
	Points   map[string]int `json:"points"`
	Totals   map[string]int `json:"totals"`
}

type GameEndedPayload struct {
	Rounds   int            `json:"rounds"`
	Totals   map[string]int `json:"totals"`
	WinnerID string         `json:"winner_id"`
}
