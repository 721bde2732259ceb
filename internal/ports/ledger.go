package ports

import "context"

// ScoreEntry is the points a user earned in one finished game.
type ScoreEntry struct {
	UserID   string
	Points   int64
	Metadata map[string]interface{}
}

// ScoreLedgerPort keeps the lifetime Rummy points of each user.
type ScoreLedgerPort interface {
	// Balance retrieves the lifetime points of a user.
	Balance(ctx context.Context, userID string) (int64, error)

	// Record adds the points of a finished game. Entries with no points are skipped.
	Record(ctx context.Context, entries []ScoreEntry) error
}
