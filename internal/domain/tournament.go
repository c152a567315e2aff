package domain

import (
	"time"
)

// RegionOnline is the region value assigned to tournaments classified as
// online-only. A tournament is online if and only if its region equals this.
const RegionOnline = "Online"

// Tournament represents a tournament synced from start.gg
type Tournament struct {
	ID           int64      `json:"id"`
	ExternalID   int64      `json:"external_id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	VenueAddress *string    `json:"venue_address,omitempty"`
	City         *string    `json:"city,omitempty"`
	Region       *string    `json:"region,omitempty"`
	BannerURL    *string    `json:"banner_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Online reports whether the tournament was classified as online-only
func (t *Tournament) Online() bool {
	return t.Region != nil && *t.Region == RegionOnline
}

// Event represents a single competitive event within a tournament.
// An event belongs to exactly one tournament and cannot outlive it.
type Event struct {
	ID              int64     `json:"id"`
	TournamentID    int64     `json:"tournament_id"`
	ExternalID      int64     `json:"external_id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	VideogameID     *int64    `json:"videogame_id,omitempty"`
	VideogameName   *string   `json:"videogame_name,omitempty"`
	TeamMinPlayers  *int      `json:"team_min_players,omitempty"`
	TeamMaxPlayers  *int      `json:"team_max_players,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EventWithTournament pairs an event with its owning tournament, used where
// both slugs are needed to address the start.gg API.
type EventWithTournament struct {
	Event      Event      `json:"event"`
	Tournament Tournament `json:"tournament"`
}
