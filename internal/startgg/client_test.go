package startgg

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(endpoint string) *config.StartGGConfig {
	return &config.StartGGConfig{
		Endpoint:          endpoint,
		Token:             "test-token",
		CountryCode:       "CL",
		CountryName:       "Chile",
		VideogameID:       1386,
		TournamentPerPage: 25,
		SeedPerPage:       100,
		PageDelay:         0,
		RateLimitCooldown: time.Millisecond,
		RequestTimeout:    5 * time.Second,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Token = ""

	_, err := NewClient(cfg, testLogger())
	if !errors.Is(err, domain.ErrMissingAPIToken) {
		t.Fatalf("NewClient() error = %v, want %v", err, domain.ErrMissingAPIToken)
	}
}

func TestQuerySendsAuthenticatedRequest(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody gqlRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	})

	data, err := client.Query(context.Background(), "query Q { ok }", map[string]any{"page": 1}, "Q")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", gotContentType, "application/json")
	}
	if gotBody.OperationName != "Q" {
		t.Errorf("operationName = %q, want %q", gotBody.OperationName, "Q")
	}
	if gotBody.Query != "query Q { ok }" {
		t.Errorf("query = %q", gotBody.Query)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}
}

func TestQueryErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "non-200 status",
			status: http.StatusInternalServerError,
			body:   "upstream exploded",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("error = %v, want *StatusError", err)
				}
				if statusErr.Code != http.StatusInternalServerError {
					t.Errorf("Code = %d, want 500", statusErr.Code)
				}
				if statusErr.Body != "upstream exploded" {
					t.Errorf("Body = %q", statusErr.Body)
				}
				if statusErr.RateLimited() {
					t.Error("RateLimited() = true for a 500")
				}
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   "slow down",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("error = %v, want *StatusError", err)
				}
				if !statusErr.RateLimited() {
					t.Error("RateLimited() = false for a 429")
				}
			},
		},
		{
			name:   "invalid JSON body",
			status: http.StatusOK,
			body:   "<html>not json</html>",
			check: func(t *testing.T, err error) {
				var formatErr *FormatError
				if !errors.As(err, &formatErr) {
					t.Fatalf("error = %v, want *FormatError", err)
				}
			},
		},
		{
			name:   "payload with errors collection",
			status: http.StatusOK,
			body:   `{"data":null,"errors":[{"message":"bad slug"},{"message":"also bad"}]}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("error = %v, want *APIError", err)
				}
				if len(apiErr.Errors) != 2 {
					t.Fatalf("len(Errors) = %d, want 2", len(apiErr.Errors))
				}
				if apiErr.Errors[0].Message != "bad slug" {
					t.Errorf("Errors[0] = %q", apiErr.Errors[0].Message)
				}
				if !strings.Contains(apiErr.Error(), "also bad") {
					t.Errorf("Error() = %q, want errors joined verbatim", apiErr.Error())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Query(context.Background(), "query Q { ok }", nil, "Q")
			if err == nil {
				t.Fatal("Query() error = nil")
			}
			tt.check(t, err)
		})
	}
}

func TestTournamentEventsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"tournament":null}}`))
	})

	_, err := client.TournamentEvents(context.Background(), "tournament/missing")
	if !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Fatalf("TournamentEvents() error = %v, want %v", err, domain.ErrTournamentNotFound)
	}
}

func TestTournamentEventsReturnsNodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"tournament":{"id":42,"events":[
			{"id":7,"name":"Singles","slug":"event/singles","videogame":{"id":1386,"name":"Ultimate"}},
			{"id":8,"name":"Doubles","slug":"event/doubles"}
		]}}}`))
	})

	events, err := client.TournamentEvents(context.Background(), "tournament/weekly-1")
	if err != nil {
		t.Fatalf("TournamentEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ID == nil || *events[0].ID != 7 {
		t.Errorf("events[0].ID = %v, want 7", events[0].ID)
	}
	if events[0].Videogame == nil || events[0].Videogame.Name != "Ultimate" {
		t.Errorf("events[0].Videogame = %+v", events[0].Videogame)
	}
}

func seedPageBody(userID int64, seedNum int) string {
	return `{"data":{"tournament":{"events":[{"phaseGroups":[{"seeds":{
		"pageInfo":{"total":1,"totalPages":1},
		"nodes":[{"seedNum":` + itoa(seedNum) + `,"entrant":{"name":"TeamX","participants":[{"player":{"id":5,"gamerTag":"Tag","user":{"id":` + itoa64(userID) + `}}}]}}]
	}}]}]}}}`
}

func itoa(n int) string    { return itoa64(int64(n)) }
func itoa64(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestEventSeedsUsesPhaseGroups(t *testing.T) {
	var operations []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		operations = append(operations, req.OperationName)
		w.Write([]byte(seedPageBody(111, 1)))
	})

	seeds, err := client.EventSeeds(context.Background(), "tournament/weekly-1", "event/singles")
	if err != nil {
		t.Fatalf("EventSeeds() error = %v", err)
	}
	if len(seeds) != 1 {
		t.Fatalf("len(seeds) = %d, want 1", len(seeds))
	}
	if len(operations) != 1 || operations[0] != "PhaseGroupSeeds" {
		t.Fatalf("operations = %v, want a single PhaseGroupSeeds call", operations)
	}
}

func TestEventSeedsFallsBackToEntrants(t *testing.T) {
	var operations []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		operations = append(operations, req.OperationName)

		switch req.OperationName {
		case "PhaseGroupSeeds":
			// Bracket structure without phase groups
			w.Write([]byte(`{"data":{"tournament":{"events":[{"phaseGroups":[]}]}}}`))
		case "EntrantSeeds":
			w.Write([]byte(`{"data":{"tournament":{"events":[{"entrants":{
				"pageInfo":{"total":1,"totalPages":1},
				"nodes":[{"name":"Solo","initialSeedNum":4,"standing":{"placement":2},
					"participants":[{"player":{"id":9,"gamerTag":"Solo","user":{"id":222}}}]}]
			}}]}}}`))
		default:
			t.Errorf("unexpected operation %q", req.OperationName)
		}
	})

	seeds, err := client.EventSeeds(context.Background(), "tournament/weekly-1", "event/singles")
	if err != nil {
		t.Fatalf("EventSeeds() error = %v", err)
	}
	if len(seeds) != 1 {
		t.Fatalf("len(seeds) = %d, want 1", len(seeds))
	}
	if seeds[0].SeedNum == nil || *seeds[0].SeedNum != 4 {
		t.Errorf("SeedNum = %v, want 4 from initialSeedNum", seeds[0].SeedNum)
	}
	if seeds[0].Placement == nil || *seeds[0].Placement != 2 {
		t.Errorf("Placement = %v, want 2 from standing", seeds[0].Placement)
	}
	want := []string{"PhaseGroupSeeds", "EntrantSeeds"}
	if len(operations) != 2 || operations[0] != want[0] || operations[1] != want[1] {
		t.Fatalf("operations = %v, want %v", operations, want)
	}
}

func TestEventSeedsFallsBackOnAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.OperationName == "PhaseGroupSeeds" {
			w.Write([]byte(`{"data":null,"errors":[{"message":"phase groups unavailable"}]}`))
			return
		}
		w.Write([]byte(`{"data":{"tournament":{"events":[{"entrants":{
			"pageInfo":{"total":1,"totalPages":1},
			"nodes":[{"name":"Solo","initialSeedNum":1,
				"participants":[{"player":{"id":9,"gamerTag":"Solo","user":{"id":333}}}]}]
		}}]}}}`))
	})

	seeds, err := client.EventSeeds(context.Background(), "tournament/weekly-1", "event/singles")
	if err != nil {
		t.Fatalf("EventSeeds() error = %v", err)
	}
	if len(seeds) != 1 {
		t.Fatalf("len(seeds) = %d, want 1", len(seeds))
	}
}
