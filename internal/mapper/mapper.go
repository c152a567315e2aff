package mapper

import (
	"log/slog"
	"strings"
	"time"

	"github.com/startgg-sync/internal/domain"
	"github.com/startgg-sync/internal/startgg"
)

// onlineKeywords flag a venue address as an online-only tournament,
// matched case-insensitively
var onlineKeywords = []string{"online", "wifi", "netplay", "discord", "en línea"}

// AddressParser splits a physical venue address into city and region
// components. Geocoding is out of scope for the pipeline; the default
// implementation is a naive comma split.
type AddressParser interface {
	Parse(address string) (city, region string)
}

// CommaParser treats the first comma-separated segment as the city and the
// last one as the region.
type CommaParser struct{}

// Parse implements AddressParser
func (CommaParser) Parse(address string) (city, region string) {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return strings.TrimSpace(address), ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
}

// SeedEntry is the mapped form of one seed node
type SeedEntry struct {
	Player    domain.Player
	SeedNum   *int
	Placement *int
}

// Mapper is a pure translation layer from raw start.gg nodes to local
// entity field sets. It never talks to the store or the network.
type Mapper struct {
	countryName string
	parser      AddressParser
	logger      *slog.Logger
}

// New creates a mapper for the given host country
func New(countryName string, parser AddressParser, logger *slog.Logger) *Mapper {
	if parser == nil {
		parser = CommaParser{}
	}
	return &Mapper{
		countryName: countryName,
		parser:      parser,
		logger:      logger,
	}
}

// Tournament maps one tournament node. Returns false when the node has no
// external id; the malformed node is dropped with a warning, never failing
// the page it came from.
func (m *Mapper) Tournament(n startgg.TournamentNode) (domain.Tournament, bool) {
	if n.ID == nil {
		m.logger.Warn("dropping tournament node without id", "slug", n.Slug)
		return domain.Tournament{}, false
	}

	t := domain.Tournament{
		ExternalID:   *n.ID,
		Slug:         n.Slug,
		Name:         n.Name,
		StartAt:      unixTime(n.StartAt),
		EndAt:        unixTime(n.EndAt),
		VenueAddress: n.VenueAddress,
		BannerURL:    imageURL(n.Images, "banner"),
	}
	t.City, t.Region = m.classifyLocation(n.VenueAddress)
	return t, true
}

// classifyLocation derives city/region from the free-text venue address.
// An address equal to the host country name, or containing any online
// keyword, marks the tournament as online with no city.
func (m *Mapper) classifyLocation(venueAddress *string) (city, region *string) {
	if venueAddress == nil || *venueAddress == "" {
		return nil, nil
	}
	addr := strings.TrimSpace(*venueAddress)
	if strings.EqualFold(addr, m.countryName) || containsOnlineKeyword(addr) {
		online := domain.RegionOnline
		return nil, &online
	}

	parsedCity, parsedRegion := m.parser.Parse(addr)
	if parsedCity != "" {
		city = &parsedCity
	}
	if parsedRegion != "" {
		region = &parsedRegion
	}
	return city, region
}

func containsOnlineKeyword(address string) bool {
	lower := strings.ToLower(address)
	for _, kw := range onlineKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Event maps one event node onto its owning tournament. Returns false when
// the node has no external id.
func (m *Mapper) Event(n startgg.EventNode, tournamentID int64) (domain.Event, bool) {
	if n.ID == nil {
		m.logger.Warn("dropping event node without id", "slug", n.Slug, "tournament_id", tournamentID)
		return domain.Event{}, false
	}

	e := domain.Event{
		TournamentID:    tournamentID,
		ExternalID:      *n.ID,
		Slug:            n.Slug,
		Name:            n.Name,
		ProfileImageURL: imageURL(n.Images, "profile"),
	}
	if n.Videogame != nil {
		e.VideogameID = n.Videogame.ID
		if n.Videogame.Name != "" {
			name := n.Videogame.Name
			e.VideogameName = &name
		}
	}
	if n.TeamRosterSize != nil {
		e.TeamMinPlayers = n.TeamRosterSize.MinPlayers
		e.TeamMaxPlayers = n.TeamRosterSize.MaxPlayers
	}
	return e, true
}

// Seed maps one seed node to a player plus its seed/placement numbers.
// The entrant → participants → player → user chain may break at any hop
// for entrants with no resolved user record; such seeds are skipped
// (ok=false) rather than failing the whole page.
func (m *Mapper) Seed(n startgg.SeedNode) (SeedEntry, bool) {
	if n.Entrant == nil || len(n.Entrant.Participants) == 0 {
		return SeedEntry{}, false
	}
	player := n.Entrant.Participants[0].Player
	if player == nil || player.User == nil || player.User.ID == nil {
		return SeedEntry{}, false
	}
	user := player.User

	p := domain.Player{
		StartGGID:     user.ID,
		GamerTag:      player.GamerTag,
		Name:          user.Name,
		Discriminator: user.Discriminator,
		Bio:           user.Bio,
		TwitterHandle: authorizedHandle(user.Authorizations),
	}
	if p.GamerTag == "" {
		p.GamerTag = n.Entrant.Name
	}
	if user.Location != nil {
		p.City = user.Location.City
		p.Country = user.Location.Country
	}

	return SeedEntry{
		Player:    p,
		SeedNum:   n.SeedNum,
		Placement: n.Placement,
	}, true
}

// authorizedHandle picks the first authorization carrying a username
func authorizedHandle(auths []startgg.AuthorizationNode) *string {
	for _, a := range auths {
		if a.ExternalUsername != nil && *a.ExternalUsername != "" {
			return a.ExternalUsername
		}
	}
	return nil
}

func imageURL(images []startgg.Image, imageType string) *string {
	for _, img := range images {
		if img.Type == imageType && img.URL != "" {
			url := img.URL
			return &url
		}
	}
	return nil
}

func unixTime(ts *int64) *time.Time {
	if ts == nil || *ts == 0 {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}
