package domain

import "time"

// Player represents a player in the system. StartGGID is the start.gg user
// id and is globally unique; it is nil only for manually created players,
// which the sync pipeline never produces.
type Player struct {
	ID            int64     `json:"id"`
	StartGGID     *int64    `json:"start_gg_id,omitempty"`
	GamerTag      string    `json:"gamer_tag"`
	Name          *string   `json:"name,omitempty"`
	Discriminator *string   `json:"discriminator,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	City          *string   `json:"city,omitempty"`
	Country       *string   `json:"country,omitempty"`
	TwitterHandle *string   `json:"twitter_handle,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EventSeed joins a player to an event with their initial bracket seed and
// final placement. TournamentID and EventName are denormalized for listing.
// Unique on (event_id, player_id): re-syncing updates the existing row.
type EventSeed struct {
	ID           int64     `json:"id"`
	EventID      int64     `json:"event_id"`
	PlayerID     int64     `json:"player_id"`
	TournamentID int64     `json:"tournament_id"`
	EventName    string    `json:"event_name"`
	SeedNum      *int      `json:"seed_num,omitempty"`
	Placement    *int      `json:"placement,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
