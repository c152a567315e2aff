package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/startgg-sync/internal/domain"
	"github.com/startgg-sync/internal/mapper"
	"github.com/startgg-sync/internal/startgg"
)

// Client is the fetch boundary towards start.gg
type Client interface {
	Tournaments(ctx context.Context) ([]startgg.TournamentNode, error)
	TournamentEvents(ctx context.Context, tournamentSlug string) ([]startgg.EventNode, error)
	EventSeeds(ctx context.Context, tournamentSlug, eventSlug string) ([]startgg.SeedNode, error)
}

// Reporter receives the outcome of a finished sync run. Implementations
// must not block the sync path on delivery failures.
type Reporter interface {
	Report(ctx context.Context, report domain.SyncReport)
}

// Service orchestrates the four ingestion operations. It never retries on
// its own: retry-vs-propagate is decided inside the paginated fetcher, and
// a failed fetch aborts the operation's remaining work.
type Service struct {
	client    Client
	store     domain.Store
	mapper    *mapper.Mapper
	logger    *slog.Logger
	reporters []Reporter
}

// NewService creates a sync service
func NewService(client Client, store domain.Store, m *mapper.Mapper, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		mapper: m,
		logger: logger,
	}
}

// AddReporter registers a reporter notified after every sync run
func (s *Service) AddReporter(r Reporter) {
	s.reporters = append(s.reporters, r)
}

// SyncTournaments fetches the full tournament listing and upserts each
// tournament keyed by external_id. Commits incrementally: a failure partway
// through preserves already-committed rows, and re-running resumes the work.
// Returns the count of newly created tournaments.
func (s *Service) SyncTournaments(ctx context.Context) (int, error) {
	return s.run(ctx, domain.OpSyncTournaments, "", s.syncTournaments)
}

func (s *Service) syncTournaments(ctx context.Context) (int, error) {
	nodes, err := s.client.Tournaments(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, node := range nodes {
		t, ok := s.mapper.Tournament(node)
		if !ok {
			continue
		}
		_, isNew, err := s.store.UpsertTournament(ctx, t)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}

	s.logger.Info("tournament sync completed", "fetched", len(nodes), "created", created)
	return created, nil
}

// SyncTournamentsWithEvents fetches the tournament listing and, for every
// newly discovered tournament, also fetches and upserts its events. The
// whole batch commits as one transaction: any failure, including a single
// tournament's event fetch, rolls everything back so no tournament becomes
// visible without its events. Returns the count of newly created
// tournaments.
func (s *Service) SyncTournamentsWithEvents(ctx context.Context) (int, error) {
	return s.run(ctx, domain.OpSyncTournamentsAtomic, "", s.syncTournamentsWithEvents)
}

func (s *Service) syncTournamentsWithEvents(ctx context.Context) (int, error) {
	nodes, err := s.client.Tournaments(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.store.InTransaction(ctx, func(tx domain.Store) error {
		for _, node := range nodes {
			t, ok := s.mapper.Tournament(node)
			if !ok {
				continue
			}
			id, isNew, err := tx.UpsertTournament(ctx, t)
			if err != nil {
				return err
			}
			if !isNew {
				continue
			}
			created++

			eventNodes, err := s.client.TournamentEvents(ctx, t.Slug)
			if err != nil {
				return fmt.Errorf("fetching events for tournament %q: %w", t.Slug, err)
			}
			for _, eventNode := range eventNodes {
				e, ok := s.mapper.Event(eventNode, id)
				if !ok {
					continue
				}
				if _, _, err := tx.UpsertEvent(ctx, e); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("atomic tournament sync completed", "fetched", len(nodes), "created", created)
	return created, nil
}

// SyncTournamentEvents fetches the events of one tournament and upserts
// them keyed by (tournament_id, external_id). Independent transaction per
// call; a failure affects only this tournament. Returns the count of newly
// created events.
func (s *Service) SyncTournamentEvents(ctx context.Context, tournament domain.Tournament) (int, error) {
	return s.run(ctx, domain.OpSyncTournamentEvents, tournament.Slug, func(ctx context.Context) (int, error) {
		return s.syncTournamentEvents(ctx, tournament)
	})
}

func (s *Service) syncTournamentEvents(ctx context.Context, tournament domain.Tournament) (int, error) {
	nodes, err := s.client.TournamentEvents(ctx, tournament.Slug)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, node := range nodes {
		e, ok := s.mapper.Event(node, tournament.ID)
		if !ok {
			continue
		}
		_, isNew, err := s.store.UpsertEvent(ctx, e)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}

	s.logger.Info("event sync completed",
		"tournament", tournament.Slug,
		"fetched", len(nodes),
		"created", created,
	)
	return created, nil
}

// SyncEventSeeds fetches the seed pages of one event and, per seed, upserts
// the player keyed by start_gg_id followed by the seed keyed by (event_id,
// player_id). Seeds whose player chain cannot be resolved are skipped with
// a warning. Returns the count of newly created seeds.
func (s *Service) SyncEventSeeds(ctx context.Context, tournament domain.Tournament, event domain.Event) (int, error) {
	return s.run(ctx, domain.OpSyncEventSeeds, event.Slug, func(ctx context.Context) (int, error) {
		return s.syncEventSeeds(ctx, tournament, event)
	})
}

func (s *Service) syncEventSeeds(ctx context.Context, tournament domain.Tournament, event domain.Event) (int, error) {
	nodes, err := s.client.EventSeeds(ctx, tournament.Slug, event.Slug)
	if err != nil {
		return 0, err
	}

	created := 0
	skipped := 0
	for _, node := range nodes {
		entry, ok := s.mapper.Seed(node)
		if !ok {
			skipped++
			continue
		}

		playerID, _, err := s.store.UpsertPlayer(ctx, entry.Player)
		if err != nil {
			return created, err
		}

		seed := domain.EventSeed{
			EventID:      event.ID,
			PlayerID:     playerID,
			TournamentID: event.TournamentID,
			EventName:    event.Name,
			SeedNum:      entry.SeedNum,
			Placement:    entry.Placement,
		}
		isNew, err := s.store.UpsertEventSeed(ctx, seed)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}

	if skipped > 0 {
		s.logger.Warn("skipped seeds with unresolved players",
			"event", event.Slug,
			"skipped", skipped,
		)
	}
	s.logger.Info("seed sync completed",
		"event", event.Slug,
		"fetched", len(nodes),
		"created", created,
	)
	return created, nil
}

// run wraps an operation with timing, a run id, and reporter fan-out
func (s *Service) run(ctx context.Context, operation, target string, fn func(context.Context) (int, error)) (int, error) {
	startedAt := time.Now()
	created, err := fn(ctx)

	report := domain.SyncReport{
		RunID:     uuid.New().String(),
		Operation: operation,
		Target:    target,
		Created:   created,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}
	if err != nil {
		report.Error = err.Error()
	}
	for _, r := range s.reporters {
		r.Report(ctx, report)
	}

	return created, err
}
