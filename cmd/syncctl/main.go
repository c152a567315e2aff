package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/mapper"
	"github.com/startgg-sync/internal/postgres"
	"github.com/startgg-sync/internal/startgg"
	syncsvc "github.com/startgg-sync/internal/sync"
	"github.com/startgg-sync/internal/worker"
)

// syncctl runs a single sync operation and exits, so cron can drive the
// pipeline without the long-running server.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	operation := flag.String("op", "cycle", "Operation: tournaments | atomic | events | seeds | cycle")
	tournamentSlug := flag.String("tournament", "", "Tournament slug (for events and seeds)")
	eventSlug := flag.String("event", "", "Event slug (for seeds)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Cancel the run on SIGINT/SIGTERM; cancellation lands between pages,
	// never mid-page
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := startgg.NewClient(&cfg.StartGG, logger)
	if err != nil {
		logger.Error("failed to create start.gg client", "error", err)
		os.Exit(1)
	}

	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	entityMapper := mapper.New(cfg.StartGG.CountryName, mapper.CommaParser{}, logger)
	service := syncsvc.NewService(client, repo, entityMapper, logger)

	if err := runOperation(ctx, service, repo, cfg, *operation, *tournamentSlug, *eventSlug); err != nil {
		logger.Error("sync failed", "operation", *operation, "error", err)
		os.Exit(1)
	}
}

func runOperation(
	ctx context.Context,
	service *syncsvc.Service,
	repo *postgres.Repository,
	cfg *config.Config,
	operation, tournamentSlug, eventSlug string,
) error {
	switch operation {
	case "tournaments":
		created, err := service.SyncTournaments(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("created %d tournaments\n", created)

	case "atomic":
		created, err := service.SyncTournamentsWithEvents(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("created %d tournaments with their events\n", created)

	case "events":
		if tournamentSlug == "" {
			return fmt.Errorf("events requires -tournament")
		}
		tournament, err := repo.GetTournamentBySlug(ctx, tournamentSlug)
		if err != nil {
			return err
		}
		created, err := service.SyncTournamentEvents(ctx, *tournament)
		if err != nil {
			return err
		}
		fmt.Printf("created %d events for %s\n", created, tournament.Slug)

	case "seeds":
		if tournamentSlug == "" || eventSlug == "" {
			return fmt.Errorf("seeds requires -tournament and -event")
		}
		tournament, err := repo.GetTournamentBySlug(ctx, tournamentSlug)
		if err != nil {
			return err
		}
		event, err := repo.GetEventBySlug(ctx, tournament.ID, eventSlug)
		if err != nil {
			return err
		}
		created, err := service.SyncEventSeeds(ctx, *tournament, *event)
		if err != nil {
			return err
		}
		fmt.Printf("created %d seeds for %s\n", created, event.Slug)

	case "cycle":
		scheduler := worker.NewScheduler(service, repo, &cfg.Sync, slog.Default())
		scheduler.RunOnce(ctx)

	default:
		return fmt.Errorf("unknown operation %q", operation)
	}
	return nil
}
