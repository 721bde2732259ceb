package ports

import "context"

// PlayerStats is the per-user record of finished games.
type PlayerStats struct {
	GamesPlayed int   `json:"games_played"`
	GamesWon    int   `json:"games_won"`
	RoundsWon   int   `json:"rounds_won"`
	Points      int64 `json:"points"`
}

// GameResult is one user's outcome of a finished game.
type GameResult struct {
	UserID    string
	Won       bool
	RoundsWon int
	Total     int64
}

// StatsPort stores player statistics.
type StatsPort interface {
	// InitStatsOnce creates an empty stats record.
	// Returns created=false when the user already had one.
	InitStatsOnce(ctx context.Context, userID string) (bool, error)

	// Get returns the stats of a user; a user without a record has zero stats.
	Get(ctx context.Context, userID string) (PlayerStats, error)

	// RecordGame folds a finished game into the user's stats.
	RecordGame(ctx context.Context, result GameResult) error
}
