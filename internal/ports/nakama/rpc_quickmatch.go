package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mhbka/rummy/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

type quickMatchRequest struct {
	Variant string `json:"variant"`
}

// variantPattern keeps client input out of the label query syntax.
var variantPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:  rpcQuickMatch,
		RpcCreateTable: rpcCreateTable,
		RpcTableToken:  rpcTableToken,
		RpcStats:       rpcStats,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("register rpc %s: %w", id, err)
		}
	}
	return nil
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req quickMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", codeInvalidArgument)
		}
	}
	if req.Variant != "" && !variantPattern.MatchString(req.Variant) {
		return "", runtime.NewError("Invalid variant", codeInvalidArgument)
	}

	// Find a public lobby of our game with a free seat.
	query := fmt.Sprintf("+label.game:%s +label.state:lobby +label.private:F +label.%s:>=1", GameLabel, MatchLabelKey_OpenSeats)
	if req.Variant != "" {
		query += " +label.variant:" + req.Variant
	}

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := domain.MaxPlayers - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].GetMatchId(), IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create new match; seat/owner assignment happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameRummy, map[string]interface{}{"variant": req.Variant})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
