package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mhbka/rummy/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

const (
	// PointsCurrency holds points from games where the round winner scores.
	PointsCurrency = "rummy_points"
	// PenaltyCurrency holds points from games where everyone scores their own hand.
	PenaltyCurrency = "rummy_penalty"
)

// WalletModule is the slice of runtime.NakamaModule the ledger needs.
type WalletModule interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error)
}

// NakamaScoreLedger implements ports.ScoreLedgerPort on a Nakama wallet currency.
type NakamaScoreLedger struct {
	nk       WalletModule
	currency string
}

// NewNakamaScoreLedger creates a ledger writing to the given wallet currency.
func NewNakamaScoreLedger(nk WalletModule, currency string) *NakamaScoreLedger {
	return &NakamaScoreLedger{nk: nk, currency: currency}
}

// Balance retrieves the lifetime points of a user.
func (l *NakamaScoreLedger) Balance(ctx context.Context, userID string) (int64, error) {
	account, err := l.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account.GetWallet() == "" {
		return 0, nil
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.GetWallet()), &wallet); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return wallet[l.currency], nil
}

// Record adds each entry's points to the user's wallet.
func (l *NakamaScoreLedger) Record(ctx context.Context, entries []ports.ScoreEntry) error {
	for _, entry := range entries {
		if entry.Points == 0 {
			continue
		}
		changes := map[string]int64{l.currency: entry.Points}
		if _, _, err := l.nk.WalletUpdate(ctx, entry.UserID, changes, entry.Metadata, true); err != nil {
			return fmt.Errorf("failed to update wallet for user %s: %w", entry.UserID, err)
		}
	}
	return nil
}

var _ ports.ScoreLedgerPort = (*NakamaScoreLedger)(nil)
