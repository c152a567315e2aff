package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/domain"
)

// StatusStore keeps the last sync report per operation in Redis so the
// status endpoint can answer without touching PostgreSQL. It implements
// sync.Reporter.
type StatusStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStatusStore creates a Redis-backed sync status store
func NewStatusStore(cfg *config.RedisConfig, logger *slog.Logger) (*StatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &StatusStore{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *StatusStore) Close() error {
	return s.client.Close()
}

// statusKey returns the Redis key holding the last report of an operation
func (s *StatusStore) statusKey(operation string) string {
	return fmt.Sprintf("sync:last_run:%s", operation)
}

// Report stores the report as the operation's last run. Failures are
// logged, never propagated into the sync path.
func (s *StatusStore) Report(ctx context.Context, report domain.SyncReport) {
	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Error("failed to marshal sync report", "error", err)
		return
	}
	if err := s.client.Set(ctx, s.statusKey(report.Operation), data, 0).Err(); err != nil {
		s.logger.Warn("failed to store sync status",
			"operation", report.Operation,
			"error", err,
		)
	}
}

// LastRuns returns the last stored report for each sync operation
func (s *StatusStore) LastRuns(ctx context.Context) (map[string]domain.SyncReport, error) {
	operations := []string{
		domain.OpSyncTournaments,
		domain.OpSyncTournamentsAtomic,
		domain.OpSyncTournamentEvents,
		domain.OpSyncEventSeeds,
	}

	runs := make(map[string]domain.SyncReport)
	for _, op := range operations {
		data, err := s.client.Get(ctx, s.statusKey(op)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading sync status for %s: %w", op, err)
		}

		var report domain.SyncReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("parsing sync status for %s: %w", op, err)
		}
		runs[op] = report
	}
	return runs, nil
}
