package domain

import "context"

// Store is the persistence boundary for synced entities. Every upsert looks
// up by the entity's unique key, updates mutable fields if found, inserts
// otherwise, and reports whether a new row was created. Uniqueness is
// enforced by store-level constraints, so upserts stay correct under
// overlapping sync invocations.
type Store interface {
	// UpsertTournament upserts by external_id and returns the local id.
	UpsertTournament(ctx context.Context, t Tournament) (int64, bool, error)

	// UpsertEvent upserts by (tournament_id, external_id) and returns the local id.
	UpsertEvent(ctx context.Context, e Event) (int64, bool, error)

	// UpsertPlayer upserts by start_gg_id and returns the local id.
	UpsertPlayer(ctx context.Context, p Player) (int64, bool, error)

	// UpsertEventSeed upserts by (event_id, player_id). A nil incoming
	// placement never overwrites a stored one.
	UpsertEventSeed(ctx context.Context, s EventSeed) (bool, error)

	// InTransaction runs fn against a transactional view of the store,
	// committing if fn returns nil and rolling back otherwise.
	InTransaction(ctx context.Context, fn func(Store) error) error
}
