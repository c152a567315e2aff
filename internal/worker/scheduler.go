package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/postgres"
	syncsvc "github.com/startgg-sync/internal/sync"
)

// Scheduler periodically runs a full sync cycle: the atomic
// tournaments+events pass, then a seed refresh for events of tournaments
// inside the lookback window. Each cycle is one logical task; overlapping
// manual runs are tolerated because all writes go through store-level
// unique constraints.
type Scheduler struct {
	service *syncsvc.Service
	repo    *postgres.Repository
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a sync scheduler
func NewScheduler(
	service *syncsvc.Service,
	repo *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		service: service,
		repo:    repo,
		config:  cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background sync process
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("sync scheduler started", "interval", s.config.Interval)

	go s.run(ctx)
	return nil
}

// Stop stops the background sync process
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("sync scheduler stopped")
	return nil
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.syncCycle(ctx)
		}
	}
}

// syncCycle runs one full sync pass
func (s *Scheduler) syncCycle(ctx context.Context) {
	s.logger.Info("starting sync cycle")
	startTime := time.Now()

	created, err := s.service.SyncTournamentsWithEvents(ctx)
	if err != nil {
		s.logger.Error("tournament sync failed, skipping seed refresh", "error", err)
		return
	}

	since := time.Now().Add(-s.config.SeedLookback)
	pairs, err := s.repo.ListEventsWithTournament(ctx, since)
	if err != nil {
		s.logger.Error("failed to list events for seed refresh", "error", err)
		return
	}

	seedErrors := 0
	for _, pair := range pairs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.service.SyncEventSeeds(ctx, pair.Tournament, pair.Event); err != nil {
			s.logger.Error("seed sync failed",
				"tournament", pair.Tournament.Slug,
				"event", pair.Event.Slug,
				"error", err,
			)
			seedErrors++
		}
	}

	s.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"tournaments_created", created,
		"events_refreshed", len(pairs),
		"seed_errors", seedErrors,
	)
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce runs a single sync cycle, useful for manual triggers
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.syncCycle(ctx)
}
