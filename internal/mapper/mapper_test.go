package mapper

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/startgg-sync/internal/domain"
	"github.com/startgg-sync/internal/startgg"
)

func newTestMapper() *Mapper {
	return New("Chile", CommaParser{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func TestTournamentLocationClassification(t *testing.T) {
	tests := []struct {
		name       string
		venue      *string
		wantCity   *string
		wantRegion *string
	}{
		{
			name:       "bare country name is online",
			venue:      strPtr("Chile"),
			wantCity:   nil,
			wantRegion: strPtr(domain.RegionOnline),
		},
		{
			name:       "country name match is case insensitive",
			venue:      strPtr("CHILE"),
			wantCity:   nil,
			wantRegion: strPtr(domain.RegionOnline),
		},
		{
			name:       "online keyword anywhere in address",
			venue:      strPtr("Torneo semanal por Discord"),
			wantCity:   nil,
			wantRegion: strPtr(domain.RegionOnline),
		},
		{
			name:       "wifi keyword",
			venue:      strPtr("WiFi bracket"),
			wantCity:   nil,
			wantRegion: strPtr(domain.RegionOnline),
		},
		{
			name:       "accented spanish keyword",
			venue:      strPtr("Competencia en línea"),
			wantCity:   nil,
			wantRegion: strPtr(domain.RegionOnline),
		},
		{
			name:       "physical address splits on commas",
			venue:      strPtr("Av. Libertador 123, Santiago, Región Metropolitana"),
			wantCity:   strPtr("Av. Libertador 123"),
			wantRegion: strPtr("Región Metropolitana"),
		},
		{
			name:       "two segment address",
			venue:      strPtr("Valparaíso, Chile"),
			wantCity:   strPtr("Valparaíso"),
			wantRegion: strPtr("Chile"),
		},
		{
			name:       "single segment address keeps city only",
			venue:      strPtr("Estadio Nacional"),
			wantCity:   strPtr("Estadio Nacional"),
			wantRegion: nil,
		},
		{
			name:       "nil venue",
			venue:      nil,
			wantCity:   nil,
			wantRegion: nil,
		},
		{
			name:       "empty venue",
			venue:      strPtr(""),
			wantCity:   nil,
			wantRegion: nil,
		},
	}

	m := newTestMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tournament, ok := m.Tournament(startgg.TournamentNode{
				ID:           int64Ptr(100),
				Name:         "Weekly",
				Slug:         "tournament/weekly-1",
				VenueAddress: tt.venue,
			})
			if !ok {
				t.Fatal("Tournament() ok = false")
			}
			checkStrPtr(t, "City", tournament.City, tt.wantCity)
			checkStrPtr(t, "Region", tournament.Region, tt.wantRegion)
		})
	}
}

func checkStrPtr(t *testing.T, field string, got, want *string) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Errorf("%s = %v, want %v", field, deref(got), deref(want))
	case *got != *want:
		t.Errorf("%s = %q, want %q", field, *got, *want)
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func TestTournamentDropsNodeWithoutID(t *testing.T) {
	m := newTestMapper()
	_, ok := m.Tournament(startgg.TournamentNode{Name: "Broken", Slug: "tournament/broken"})
	if ok {
		t.Fatal("Tournament() ok = true for a node without id")
	}
}

func TestTournamentFields(t *testing.T) {
	m := newTestMapper()
	start := int64(1735689600)

	tournament, ok := m.Tournament(startgg.TournamentNode{
		ID:      int64Ptr(100),
		Name:    "Weekly #1",
		Slug:    "tournament/weekly-1",
		StartAt: &start,
		Images: []startgg.Image{
			{Type: "profile", URL: "https://img/profile.png"},
			{Type: "banner", URL: "https://img/banner.png"},
		},
	})
	if !ok {
		t.Fatal("Tournament() ok = false")
	}
	if tournament.ExternalID != 100 {
		t.Errorf("ExternalID = %d, want 100", tournament.ExternalID)
	}
	if tournament.StartAt == nil || !tournament.StartAt.Equal(time.Unix(start, 0)) {
		t.Errorf("StartAt = %v, want %v", tournament.StartAt, time.Unix(start, 0).UTC())
	}
	if tournament.EndAt != nil {
		t.Errorf("EndAt = %v, want nil", tournament.EndAt)
	}
	checkStrPtr(t, "BannerURL", tournament.BannerURL, strPtr("https://img/banner.png"))
}

func TestTournamentZeroTimestampIsNil(t *testing.T) {
	m := newTestMapper()
	zero := int64(0)

	tournament, ok := m.Tournament(startgg.TournamentNode{
		ID:      int64Ptr(100),
		Slug:    "tournament/weekly-1",
		StartAt: &zero,
	})
	if !ok {
		t.Fatal("Tournament() ok = false")
	}
	if tournament.StartAt != nil {
		t.Errorf("StartAt = %v, want nil for zero timestamp", tournament.StartAt)
	}
}

func TestEventFields(t *testing.T) {
	m := newTestMapper()

	event, ok := m.Event(startgg.EventNode{
		ID:   int64Ptr(7),
		Name: "Singles",
		Slug: "event/singles",
		Videogame: &startgg.VideogameNode{
			ID:   int64Ptr(1386),
			Name: "Ultimate",
		},
		TeamRosterSize: &startgg.RosterSizeNode{
			MinPlayers: intPtr(1),
			MaxPlayers: intPtr(1),
		},
		Images: []startgg.Image{{Type: "profile", URL: "https://img/event.png"}},
	}, 42)
	if !ok {
		t.Fatal("Event() ok = false")
	}
	if event.TournamentID != 42 {
		t.Errorf("TournamentID = %d, want 42", event.TournamentID)
	}
	if event.ExternalID != 7 {
		t.Errorf("ExternalID = %d, want 7", event.ExternalID)
	}
	if event.VideogameID == nil || *event.VideogameID != 1386 {
		t.Errorf("VideogameID = %v, want 1386", event.VideogameID)
	}
	checkStrPtr(t, "VideogameName", event.VideogameName, strPtr("Ultimate"))
	if event.TeamMinPlayers == nil || *event.TeamMinPlayers != 1 {
		t.Errorf("TeamMinPlayers = %v, want 1", event.TeamMinPlayers)
	}
	checkStrPtr(t, "ProfileImageURL", event.ProfileImageURL, strPtr("https://img/event.png"))
}

func TestEventDropsNodeWithoutID(t *testing.T) {
	m := newTestMapper()
	_, ok := m.Event(startgg.EventNode{Name: "Broken"}, 42)
	if ok {
		t.Fatal("Event() ok = true for a node without id")
	}
}

func fullSeedNode() startgg.SeedNode {
	return startgg.SeedNode{
		SeedNum:   intPtr(3),
		Placement: intPtr(1),
		Entrant: &startgg.EntrantNode{
			Name: "TeamTag | Player",
			Participants: []startgg.ParticipantNode{{
				Player: &startgg.PlayerNode{
					ID:       int64Ptr(5),
					GamerTag: "Player",
					User: &startgg.UserNode{
						ID:            int64Ptr(111),
						Name:          strPtr("Real Name"),
						Discriminator: strPtr("abc123"),
						Location: &startgg.LocationNode{
							City:    strPtr("Santiago"),
							Country: strPtr("Chile"),
						},
						Authorizations: []startgg.AuthorizationNode{
							{Type: "TWITTER", ExternalUsername: strPtr("playertag")},
						},
					},
				},
			}},
		},
	}
}

func TestSeedMapsFullChain(t *testing.T) {
	m := newTestMapper()

	entry, ok := m.Seed(fullSeedNode())
	if !ok {
		t.Fatal("Seed() ok = false")
	}
	if entry.Player.StartGGID == nil || *entry.Player.StartGGID != 111 {
		t.Errorf("StartGGID = %v, want 111", entry.Player.StartGGID)
	}
	if entry.Player.GamerTag != "Player" {
		t.Errorf("GamerTag = %q, want %q", entry.Player.GamerTag, "Player")
	}
	checkStrPtr(t, "Name", entry.Player.Name, strPtr("Real Name"))
	checkStrPtr(t, "City", entry.Player.City, strPtr("Santiago"))
	checkStrPtr(t, "Country", entry.Player.Country, strPtr("Chile"))
	checkStrPtr(t, "TwitterHandle", entry.Player.TwitterHandle, strPtr("playertag"))
	if entry.SeedNum == nil || *entry.SeedNum != 3 {
		t.Errorf("SeedNum = %v, want 3", entry.SeedNum)
	}
	if entry.Placement == nil || *entry.Placement != 1 {
		t.Errorf("Placement = %v, want 1", entry.Placement)
	}
}

func TestSeedSkipsBrokenChains(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *startgg.SeedNode)
	}{
		{"nil entrant", func(n *startgg.SeedNode) { n.Entrant = nil }},
		{"no participants", func(n *startgg.SeedNode) { n.Entrant.Participants = nil }},
		{"nil player", func(n *startgg.SeedNode) { n.Entrant.Participants[0].Player = nil }},
		{"nil user", func(n *startgg.SeedNode) { n.Entrant.Participants[0].Player.User = nil }},
		{"nil user id", func(n *startgg.SeedNode) { n.Entrant.Participants[0].Player.User.ID = nil }},
	}

	m := newTestMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := fullSeedNode()
			tt.mutate(&node)
			if _, ok := m.Seed(node); ok {
				t.Error("Seed() ok = true, want skip")
			}
		})
	}
}

func TestSeedFallsBackToEntrantName(t *testing.T) {
	m := newTestMapper()
	node := fullSeedNode()
	node.Entrant.Participants[0].Player.GamerTag = ""

	entry, ok := m.Seed(node)
	if !ok {
		t.Fatal("Seed() ok = false")
	}
	if entry.Player.GamerTag != "TeamTag | Player" {
		t.Errorf("GamerTag = %q, want entrant name fallback", entry.Player.GamerTag)
	}
}

func TestSeedSkipsEmptyAuthorizations(t *testing.T) {
	m := newTestMapper()
	node := fullSeedNode()
	node.Entrant.Participants[0].Player.User.Authorizations = []startgg.AuthorizationNode{
		{Type: "TWITTER", ExternalUsername: nil},
		{Type: "TWITTER", ExternalUsername: strPtr("")},
		{Type: "TWITTER", ExternalUsername: strPtr("second")},
	}

	entry, ok := m.Seed(node)
	if !ok {
		t.Fatal("Seed() ok = false")
	}
	checkStrPtr(t, "TwitterHandle", entry.Player.TwitterHandle, strPtr("second"))
}
