package startgg

// Raw node types mirroring the slice of the start.gg schema this service
// queries. Every hop that the API may omit is a pointer so the mapper can
// short-circuit on the first absent link instead of assuming a fixed deep
// structure.

// PageInfo carries pagination metadata. The API reports the same totals on
// every page of a query.
type PageInfo struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Image is an uploaded tournament or event image
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// TournamentNode is one tournament of a listing page
type TournamentNode struct {
	ID           *int64  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	StartAt      *int64  `json:"startAt"`
	EndAt        *int64  `json:"endAt"`
	VenueAddress *string `json:"venueAddress"`
	Images       []Image `json:"images"`
}

// VideogameNode identifies the game an event is played on
type VideogameNode struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

// RosterSizeNode is the team size bounds of an event
type RosterSizeNode struct {
	MinPlayers *int `json:"minPlayers"`
	MaxPlayers *int `json:"maxPlayers"`
}

// EventNode is one event of a tournament
type EventNode struct {
	ID             *int64          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Videogame      *VideogameNode  `json:"videogame"`
	TeamRosterSize *RosterSizeNode `json:"teamRosterSize"`
	Images         []Image         `json:"images"`
}

// SeedNode is one bracket seed of an event
type SeedNode struct {
	SeedNum   *int         `json:"seedNum"`
	Placement *int         `json:"placement"`
	Entrant   *EntrantNode `json:"entrant"`
}

// EntrantNode wraps the participants registered together for an event
type EntrantNode struct {
	Name           string            `json:"name"`
	InitialSeedNum *int              `json:"initialSeedNum"`
	Standing       *StandingNode     `json:"standing"`
	Participants   []ParticipantNode `json:"participants"`
}

// StandingNode is an entrant's final standing
type StandingNode struct {
	Placement *int `json:"placement"`
}

// ParticipantNode is one participant of an entrant
type ParticipantNode struct {
	Player *PlayerNode `json:"player"`
}

// PlayerNode is the competitive profile of a participant
type PlayerNode struct {
	ID       *int64    `json:"id"`
	GamerTag string    `json:"gamerTag"`
	User     *UserNode `json:"user"`
}

// UserNode is the start.gg user account behind a player
type UserNode struct {
	ID             *int64              `json:"id"`
	Name           *string             `json:"name"`
	Discriminator  *string             `json:"discriminator"`
	Bio            *string             `json:"bio"`
	Location       *LocationNode       `json:"location"`
	Authorizations []AuthorizationNode `json:"authorizations"`
}

// LocationNode is a user's self-reported location
type LocationNode struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

// AuthorizationNode is a linked external account
type AuthorizationNode struct {
	Type             string  `json:"type"`
	ExternalUsername *string `json:"externalUsername"`
}
