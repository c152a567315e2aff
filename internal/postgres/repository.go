package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/domain"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same upsert code runs inside and outside a transaction
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL-based data access for the synced entity
// graph. It implements domain.Store.
type Repository struct {
	pool   *pgxpool.Pool
	db     querier
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		db:     pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tournaments (
			id BIGSERIAL PRIMARY KEY,
			external_id BIGINT NOT NULL UNIQUE,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			start_at TIMESTAMPTZ,
			end_at TIMESTAMPTZ,
			venue_address TEXT,
			city TEXT,
			region TEXT,
			banner_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			tournament_id BIGINT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
			external_id BIGINT NOT NULL,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			videogame_id BIGINT,
			videogame_name TEXT,
			team_min_players INT,
			team_max_players INT,
			profile_image_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(tournament_id, external_id)
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			start_gg_id BIGINT UNIQUE,
			gamer_tag TEXT NOT NULL,
			name TEXT,
			discriminator TEXT,
			bio TEXT,
			city TEXT,
			country TEXT,
			twitter_handle TEXT,
			characters JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS event_seeds (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			player_id BIGINT NOT NULL REFERENCES players(id),
			tournament_id BIGINT NOT NULL,
			event_name TEXT NOT NULL,
			seed_num INT,
			placement INT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(event_id, player_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_tournament ON events(tournament_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_seeds_player ON event_seeds(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_seeds_tournament ON event_seeds(tournament_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tournaments_start_at ON tournaments(start_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// InTransaction runs fn against a transactional view of the store. The
// atomic tournament+events sync is the only multi-entity transaction
// boundary in the pipeline.
func (r *Repository) InTransaction(ctx context.Context, fn func(domain.Store) error) error {
	if _, ok := r.db.(pgx.Tx); ok {
		// Already transactional, run in place
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txRepo := &Repository{pool: r.pool, db: tx, logger: r.logger}
	if err := fn(txRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpsertTournament inserts or refreshes a tournament keyed by external_id.
// The (xmax = 0) check distinguishes a freshly inserted row from a
// refreshed one.
func (r *Repository) UpsertTournament(ctx context.Context, t domain.Tournament) (int64, bool, error) {
	query := `
		INSERT INTO tournaments (external_id, slug, name, start_at, end_at, venue_address, city, region, banner_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (external_id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			venue_address = EXCLUDED.venue_address,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			banner_url = EXCLUDED.banner_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted
	`
	var id int64
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		t.ExternalID,
		t.Slug,
		t.Name,
		t.StartAt,
		t.EndAt,
		t.VenueAddress,
		t.City,
		t.Region,
		t.BannerURL,
		time.Now(),
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upserting tournament %q: %w", t.Slug, err)
	}
	return id, inserted, nil
}

// UpsertEvent inserts or refreshes an event keyed by (tournament_id, external_id)
func (r *Repository) UpsertEvent(ctx context.Context, e domain.Event) (int64, bool, error) {
	query := `
		INSERT INTO events (tournament_id, external_id, slug, name, videogame_id, videogame_name, team_min_players, team_max_players, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (tournament_id, external_id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			videogame_id = EXCLUDED.videogame_id,
			videogame_name = EXCLUDED.videogame_name,
			team_min_players = EXCLUDED.team_min_players,
			team_max_players = EXCLUDED.team_max_players,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted
	`
	var id int64
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		e.TournamentID,
		e.ExternalID,
		e.Slug,
		e.Name,
		e.VideogameID,
		e.VideogameName,
		e.TeamMinPlayers,
		e.TeamMaxPlayers,
		e.ProfileImageURL,
		time.Now(),
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upserting event %q: %w", e.Slug, err)
	}
	return id, inserted, nil
}

// UpsertPlayer inserts or refreshes a player keyed by start_gg_id. The
// characters column is owned by profile editing and never touched here.
func (r *Repository) UpsertPlayer(ctx context.Context, p domain.Player) (int64, bool, error) {
	query := `
		INSERT INTO players (start_gg_id, gamer_tag, name, discriminator, bio, city, country, twitter_handle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (start_gg_id) DO UPDATE SET
			gamer_tag = EXCLUDED.gamer_tag,
			name = EXCLUDED.name,
			discriminator = EXCLUDED.discriminator,
			bio = EXCLUDED.bio,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			twitter_handle = EXCLUDED.twitter_handle,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted
	`
	var id int64
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		p.StartGGID,
		p.GamerTag,
		p.Name,
		p.Discriminator,
		p.Bio,
		p.City,
		p.Country,
		p.TwitterHandle,
		time.Now(),
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upserting player %q: %w", p.GamerTag, err)
	}
	return id, inserted, nil
}

// UpsertEventSeed inserts or refreshes a seed keyed by (event_id,
// player_id). Placement is populated by a separate ingestion path and is
// never overwritten with null.
func (r *Repository) UpsertEventSeed(ctx context.Context, s domain.EventSeed) (bool, error) {
	query := `
		INSERT INTO event_seeds (event_id, player_id, tournament_id, event_name, seed_num, placement, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (event_id, player_id) DO UPDATE SET
			event_name = EXCLUDED.event_name,
			seed_num = EXCLUDED.seed_num,
			placement = COALESCE(EXCLUDED.placement, event_seeds.placement),
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		s.EventID,
		s.PlayerID,
		s.TournamentID,
		s.EventName,
		s.SeedNum,
		s.Placement,
		time.Now(),
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upserting seed for event %d player %d: %w", s.EventID, s.PlayerID, err)
	}
	return inserted, nil
}

const tournamentColumns = `id, external_id, slug, name, start_at, end_at, venue_address, city, region, banner_url, created_at, updated_at`

func scanTournament(row pgx.Row) (domain.Tournament, error) {
	var t domain.Tournament
	err := row.Scan(
		&t.ID,
		&t.ExternalID,
		&t.Slug,
		&t.Name,
		&t.StartAt,
		&t.EndAt,
		&t.VenueAddress,
		&t.City,
		&t.Region,
		&t.BannerURL,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// GetTournamentBySlug retrieves a tournament by its start.gg slug
func (r *Repository) GetTournamentBySlug(ctx context.Context, slug string) (*domain.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE slug = $1`
	t, err := scanTournament(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTournamentNotFound
		}
		return nil, fmt.Errorf("getting tournament: %w", err)
	}
	return &t, nil
}

// ListTournaments retrieves all tournaments, most recent first
func (r *Repository) ListTournaments(ctx context.Context) ([]domain.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY start_at DESC NULLS LAST`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []domain.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

const eventColumns = `id, tournament_id, external_id, slug, name, videogame_id, videogame_name, team_min_players, team_max_players, profile_image_url, created_at, updated_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.TournamentID,
		&e.ExternalID,
		&e.Slug,
		&e.Name,
		&e.VideogameID,
		&e.VideogameName,
		&e.TeamMinPlayers,
		&e.TeamMaxPlayers,
		&e.ProfileImageURL,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// GetEventByID retrieves an event by its local id
func (r *Repository) GetEventByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return &e, nil
}

// GetTournamentByID retrieves a tournament by its local id
func (r *Repository) GetTournamentByID(ctx context.Context, id int64) (*domain.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t, err := scanTournament(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTournamentNotFound
		}
		return nil, fmt.Errorf("getting tournament: %w", err)
	}
	return &t, nil
}

// GetEventBySlug retrieves an event of one tournament by its start.gg slug
func (r *Repository) GetEventBySlug(ctx context.Context, tournamentID int64, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tournament_id = $1 AND slug = $2`
	e, err := scanEvent(r.db.QueryRow(ctx, query, tournamentID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return &e, nil
}

// ListEventsByTournament retrieves all events of one tournament
func (r *Repository) ListEventsByTournament(ctx context.Context, tournamentID int64) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tournament_id = $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListSeedsByEvent retrieves all seeds of one event, ordered by seed number
func (r *Repository) ListSeedsByEvent(ctx context.Context, eventID int64) ([]domain.EventSeed, error) {
	query := `
		SELECT id, event_id, player_id, tournament_id, event_name, seed_num, placement, created_at, updated_at
		FROM event_seeds
		WHERE event_id = $1
		ORDER BY seed_num ASC NULLS LAST
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	defer rows.Close()

	var seeds []domain.EventSeed
	for rows.Next() {
		var s domain.EventSeed
		err := rows.Scan(
			&s.ID,
			&s.EventID,
			&s.PlayerID,
			&s.TournamentID,
			&s.EventName,
			&s.SeedNum,
			&s.Placement,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		seeds = append(seeds, s)
	}
	return seeds, rows.Err()
}

// ListEventsWithTournament retrieves events of tournaments starting after
// since, paired with their tournament. The scheduler uses this to decide
// which events still need a seed refresh.
func (r *Repository) ListEventsWithTournament(ctx context.Context, since time.Time) ([]domain.EventWithTournament, error) {
	query := `
		SELECT e.id, e.tournament_id, e.external_id, e.slug, e.name,
		       e.videogame_id, e.videogame_name, e.team_min_players, e.team_max_players,
		       e.profile_image_url, e.created_at, e.updated_at,
		       t.id, t.external_id, t.slug, t.name, t.start_at, t.end_at,
		       t.venue_address, t.city, t.region, t.banner_url, t.created_at, t.updated_at
		FROM events e
		JOIN tournaments t ON t.id = e.tournament_id
		WHERE t.start_at >= $1
		ORDER BY t.start_at DESC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("listing events with tournaments: %w", err)
	}
	defer rows.Close()

	var pairs []domain.EventWithTournament
	for rows.Next() {
		var p domain.EventWithTournament
		err := rows.Scan(
			&p.Event.ID,
			&p.Event.TournamentID,
			&p.Event.ExternalID,
			&p.Event.Slug,
			&p.Event.Name,
			&p.Event.VideogameID,
			&p.Event.VideogameName,
			&p.Event.TeamMinPlayers,
			&p.Event.TeamMaxPlayers,
			&p.Event.ProfileImageURL,
			&p.Event.CreatedAt,
			&p.Event.UpdatedAt,
			&p.Tournament.ID,
			&p.Tournament.ExternalID,
			&p.Tournament.Slug,
			&p.Tournament.Name,
			&p.Tournament.StartAt,
			&p.Tournament.EndAt,
			&p.Tournament.VenueAddress,
			&p.Tournament.City,
			&p.Tournament.Region,
			&p.Tournament.BannerURL,
			&p.Tournament.CreatedAt,
			&p.Tournament.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning event with tournament: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
