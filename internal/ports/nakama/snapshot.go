package nakama

import (
	"github.com/mhbka/rummy/internal/bot"
	"github.com/mhbka/rummy/internal/domain"
)

type gameErrorPayload struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// seatSnapshot is the public view of one seat. Hands are never included.
type seatSnapshot struct {
	UserID      string        `json:"user_id"`
	Seat        int           `json:"seat"`
	DisplayName string        `json:"display_name"`
	IsOwner     bool          `json:"is_owner"`
	IsBot       bool          `json:"is_bot"`
	InGame      bool          `json:"in_game"`
	Active      bool          `json:"active"`
	HandSize    int           `json:"hand_size"`
	Melds       []domain.Meld `json:"melds"`
}

type matchSnapshot struct {
	Variant       string           `json:"variant"`
	Private       bool             `json:"private"`
	OwnerSeat     int              `json:"owner_seat"`
	Tick          int64            `json:"tick"`
	Playing       bool             `json:"playing"`
	Round         int              `json:"round"`
	Phase         domain.PhaseKind `json:"phase,omitempty"`
	CurrentUserID string           `json:"current_user_id,omitempty"`
	StockSize     int              `json:"stock_size"`
	DiscardSize   int              `json:"discard_size"`
	DiscardTop    *domain.Card     `json:"discard_top,omitempty"`
	Wildcard      *domain.Rank     `json:"wildcard,omitempty"`
	Seats         []seatSnapshot   `json:"seats"`
}

func newMatchSnapshot(state *MatchState) matchSnapshot {
	snap := matchSnapshot{
		Variant:   state.Variant,
		Private:   state.Private,
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Seats:     []seatSnapshot{},
	}

	players := map[string]domain.Player{}
	if state.Game != nil {
		view := state.Game.ViewState()
		snap.Playing = true
		snap.Round = view.Round
		snap.Phase = view.Phase
		snap.CurrentUserID = state.Game.CurrentPlayerID()
		snap.StockSize = view.StockSize
		snap.DiscardSize = view.DiscardSize
		snap.DiscardTop = view.DiscardTop
		snap.Wildcard = view.Wildcard
		for _, p := range view.Players {
			players[p.ID] = p
		}
	}

	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		seat := seatSnapshot{
			UserID:      userID,
			Seat:        i,
			DisplayName: userID,
			IsOwner:     i == state.OwnerSeat,
			IsBot:       isBotUserId(userID),
			Melds:       []domain.Meld{},
		}
		if p, ok := state.Presences[userID]; ok {
			seat.DisplayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			seat.DisplayName = name
		}
		if p, ok := players[userID]; ok {
			seat.InGame = true
			seat.Active = p.Active
			seat.HandSize = len(p.Hand)
			if p.Melds != nil {
				seat.Melds = p.Melds
			}
		}
		snap.Seats = append(snap.Seats, seat)
	}
	return snap
}
