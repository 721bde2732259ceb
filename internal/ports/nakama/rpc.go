package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// tableTokens is set by InitModule when a token secret is configured.
var tableTokens *app.TableTokenService

type createTableRequest struct {
	Variant string `json:"variant"`
}

// TableTokenResponse carries a token for joining a private table.
type TableTokenResponse struct {
	MatchID string    `json:"match_id"`
	UserID  string    `json:"user_id"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// rpcCreateTable creates a private table and returns the caller's token for it.
// Payload: {"variant": "..."} (optional).
func rpcCreateTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}
	if tableTokens == nil {
		return "", runtime.NewError("Private tables are disabled", codeFailedPrecondition)
	}

	var req createTableRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", codeInvalidArgument)
		}
	}
	if req.Variant != "" && !variantPattern.MatchString(req.Variant) {
		return "", runtime.NewError("Invalid variant", codeInvalidArgument)
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameRummy, map[string]interface{}{
		"variant": req.Variant,
		"private": true,
	})
	if err != nil {
		logger.Error("rpcCreateTable [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("Failed to create table", codeInternal)
	}
	logger.Info("rpcCreateTable [User:%s]: Created private match %s", userID, matchID)

	return issueTableToken(logger, matchID, userID)
}

type tableTokenRequest struct {
	MatchID string `json:"match_id"`
	UserID  string `json:"user_id"`
}

// rpcTableToken lets a private table's owner issue a token for another user.
// Payload: {"match_id": "...", "user_id": "..."}.
func rpcTableToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	callerID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if callerID == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}
	if tableTokens == nil {
		return "", runtime.NewError("Private tables are disabled", codeFailedPrecondition)
	}

	var req tableTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" || req.UserID == "" {
		return "", runtime.NewError("match_id and user_id are required", codeInvalidArgument)
	}

	signal, _ := json.Marshal(inviteSignal{Requester: callerID, UserID: req.UserID})
	raw, err := nk.MatchSignal(ctx, req.MatchID, string(signal))
	if err != nil {
		logger.Warn("rpcTableToken [User:%s]: Signal to %s failed: %v", callerID, req.MatchID, err)
		return "", runtime.NewError("Table not found", codeNotFound)
	}
	var resp signalResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", runtime.NewError("Table not found", codeNotFound)
	}
	if !resp.OK {
		return "", runtime.NewError(resp.Error, codePermissionDenied)
	}

	return issueTableToken(logger, req.MatchID, req.UserID)
}

func issueTableToken(logger runtime.Logger, matchID, userID string) (string, error) {
	token, err := tableTokens.Issue(userID, matchID, app.AnySeat)
	if err != nil {
		logger.Error("Failed to issue table token: %v", err)
		return "", runtime.NewError("Failed to issue token", codeInternal)
	}
	claims, err := tableTokens.Verify(token, userID, matchID)
	if err != nil {
		logger.Error("Issued table token does not verify: %v", err)
		return "", runtime.NewError("Failed to issue token", codeInternal)
	}

	b, _ := json.Marshal(TableTokenResponse{
		MatchID: matchID,
		UserID:  userID,
		Token:   token,
		Expires: claims.Expires,
	})
	return string(b), nil
}

// StatsResponse is the caller's record and lifetime points.
type StatsResponse struct {
	ports.PlayerStats
	LifetimePoints  int64 `json:"lifetime_points"`
	LifetimePenalty int64 `json:"lifetime_penalty"`
}

func rpcStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}
	resp, err := loadStats(ctx, NewNakamaStatsAdapter(nk), NewNakamaScoreLedger(nk, PointsCurrency), NewNakamaScoreLedger(nk, PenaltyCurrency), userID)
	if err != nil {
		logger.Error("rpcStats [User:%s]: %v", userID, err)
		return "", runtime.NewError("Failed to load stats", codeInternal)
	}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func loadStats(ctx context.Context, stats ports.StatsPort, points, penalty ports.ScoreLedgerPort, userID string) (StatsResponse, error) {
	record, err := stats.Get(ctx, userID)
	if err != nil {
		return StatsResponse{}, err
	}
	resp := StatsResponse{PlayerStats: record}
	if resp.LifetimePoints, err = points.Balance(ctx, userID); err != nil {
		return StatsResponse{}, err
	}
	if resp.LifetimePenalty, err = penalty.Balance(ctx, userID); err != nil {
		return StatsResponse{}, err
	}
	return resp, nil
}
