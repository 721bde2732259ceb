package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mhbka/rummy/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "rummy"
	statsKey        = "stats_v1"
	// statsWriteAttempts bounds retries when a concurrent write wins the version check.
	statsWriteAttempts = 3
)

// StorageModule is the slice of runtime.NakamaModule the stats adapter needs.
type StorageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaStatsAdapter keeps player stats in Nakama storage, one object per user.
type NakamaStatsAdapter struct {
	nk StorageModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk StorageModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// InitStatsOnce writes an empty record unless one exists.
func (a *NakamaStatsAdapter) InitStatsOnce(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	err := a.write(ctx, userID, ports.PlayerStats{}, "*")
	if errors.Is(err, runtime.ErrStorageRejectedVersion) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create stats: %w", err)
	}
	return true, nil
}

// Get returns the stored stats of a user.
func (a *NakamaStatsAdapter) Get(ctx context.Context, userID string) (ports.PlayerStats, error) {
	stats, _, err := a.read(ctx, userID)
	return stats, err
}

// RecordGame applies one game result with an optimistic version check.
func (a *NakamaStatsAdapter) RecordGame(ctx context.Context, result ports.GameResult) error {
	if result.UserID == "" {
		return fmt.Errorf("userID is required")
	}
	var err error
	for attempt := 0; attempt < statsWriteAttempts; attempt++ {
		stats, version, readErr := a.read(ctx, result.UserID)
		if readErr != nil {
			return readErr
		}
		stats.GamesPlayed++
		if result.Won {
			stats.GamesWon++
		}
		stats.RoundsWon += result.RoundsWon
		stats.Points += result.Total

		if version == "" {
			version = "*"
		}
		err = a.write(ctx, result.UserID, stats, version)
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to record game for user %s: %w", result.UserID, err)
	}
	return nil
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (ports.PlayerStats, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}})
	if err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to read stats: %w", err)
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, "", nil
	}

	var stats ports.PlayerStats
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &stats); err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return stats, objects[0].GetVersion(), nil
}

func (a *NakamaStatsAdapter) write(ctx context.Context, userID string, stats ports.PlayerStats, version string) error {
	value, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      statsCollection,
		Key:             statsKey,
		UserID:          userID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	return err
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
