package startgg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/domain"
)

// maxErrorBodySize limits how much of a non-200 response body is kept for
// error reporting
const maxErrorBodySize = 64 * 1024

// Client issues authenticated queries against the start.gg GraphQL endpoint.
// It sends exactly one request per call and keeps no state between calls;
// retry policy lives in the Paginator.
type Client struct {
	cfg    *config.StartGGConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a start.gg API client. It fails fast with
// domain.ErrMissingAPIToken when no bearer token is configured, so a
// misconfigured deployment never attempts a query.
func NewClient(cfg *config.StartGGConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, domain.ErrMissingAPIToken
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}, nil
}

type gqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Query sends one GraphQL request and returns the raw data payload.
// Failures are typed: *StatusError for non-200 statuses, *FormatError for
// unparseable bodies, *APIError when the payload carries an errors
// collection.
func (c *Client) Query(ctx context.Context, document string, variables map[string]any, operationName string) (json.RawMessage, error) {
	body, err := json.Marshal(gqlRequest{
		Query:         document,
		Variables:     variables,
		OperationName: operationName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: string(readErrorBody(resp.Body)),
		}
	}

	var parsed gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &FormatError{Err: err}
	}
	if len(parsed.Errors) > 0 {
		return nil, &APIError{Errors: parsed.Errors}
	}

	return parsed.Data, nil
}

// readErrorBody reads at most maxErrorBodySize bytes for diagnostics
func readErrorBody(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// Tournaments fetches every page of the tournament listing for the
// configured country and videogame.
func (c *Client) Tournaments(ctx context.Context) ([]TournamentNode, error) {
	p := &Paginator[TournamentNode]{
		Client:        c,
		Query:         tournamentsQuery,
		OperationName: "TournamentsByCountry",
		Variables: map[string]any{
			"countryCode": c.cfg.CountryCode,
			"videogameId": c.cfg.VideogameID,
		},
		PerPage:           c.cfg.TournamentPerPage,
		PageDelay:         c.cfg.PageDelay,
		RateLimitCooldown: c.cfg.RateLimitCooldown,
		Extract:           extractTournamentPage,
		Logger:            c.logger,
	}
	return p.FetchAll(ctx)
}

type tournamentsEnvelope struct {
	Tournaments struct {
		PageInfo PageInfo         `json:"pageInfo"`
		Nodes    []TournamentNode `json:"nodes"`
	} `json:"tournaments"`
}

func extractTournamentPage(data json.RawMessage) ([]TournamentNode, int, error) {
	var env tournamentsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, &FormatError{Err: err}
	}
	return env.Tournaments.Nodes, env.Tournaments.PageInfo.TotalPages, nil
}

type tournamentEventsEnvelope struct {
	Tournament *struct {
		ID     *int64      `json:"id"`
		Events []EventNode `json:"events"`
	} `json:"tournament"`
}

// TournamentEvents fetches the events of one tournament by slug. The lookup
// is a single query, not paginated.
func (c *Client) TournamentEvents(ctx context.Context, tournamentSlug string) ([]EventNode, error) {
	data, err := c.Query(ctx, tournamentEventsQuery, map[string]any{
		"tournamentSlug": tournamentSlug,
	}, "TournamentEvents")
	if err != nil {
		return nil, err
	}

	var env tournamentEventsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &FormatError{Err: err}
	}
	if env.Tournament == nil {
		return nil, domain.ErrTournamentNotFound
	}
	return env.Tournament.Events, nil
}

// EventSeeds fetches every seed page of one event. The phase-group seeding
// query is tried first; events whose bracket structure exposes no phase
// groups fall back to the entrant-based shape.
func (c *Client) EventSeeds(ctx context.Context, tournamentSlug, eventSlug string) ([]SeedNode, error) {
	nodes, err := c.fetchSeedPages(ctx, phaseGroupSeedsQuery, "PhaseGroupSeeds", extractPhaseGroupSeedPage, tournamentSlug, eventSlug)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}
		c.logger.Warn("phase group seed query failed, falling back to entrants",
			"tournament", tournamentSlug,
			"event", eventSlug,
			"error", err,
		)
		return c.fetchSeedPages(ctx, entrantSeedsQuery, "EntrantSeeds", extractEntrantSeedPage, tournamentSlug, eventSlug)
	}
	if len(nodes) == 0 {
		return c.fetchSeedPages(ctx, entrantSeedsQuery, "EntrantSeeds", extractEntrantSeedPage, tournamentSlug, eventSlug)
	}
	return nodes, nil
}

func (c *Client) fetchSeedPages(ctx context.Context, query, operationName string, extract PageExtractor[SeedNode], tournamentSlug, eventSlug string) ([]SeedNode, error) {
	p := &Paginator[SeedNode]{
		Client:        c,
		Query:         query,
		OperationName: operationName,
		Variables: map[string]any{
			"tournamentSlug": tournamentSlug,
			"eventSlug":      eventSlug,
		},
		PerPage:           c.cfg.SeedPerPage,
		PageDelay:         c.cfg.PageDelay,
		RateLimitCooldown: c.cfg.RateLimitCooldown,
		Extract:           extract,
		Logger:            c.logger,
	}
	return p.FetchAll(ctx)
}

type phaseGroupSeedsEnvelope struct {
	Tournament *struct {
		Events []struct {
			PhaseGroups []struct {
				Seeds struct {
					PageInfo PageInfo   `json:"pageInfo"`
					Nodes    []SeedNode `json:"nodes"`
				} `json:"seeds"`
			} `json:"phaseGroups"`
		} `json:"events"`
	} `json:"tournament"`
}

func extractPhaseGroupSeedPage(data json.RawMessage) ([]SeedNode, int, error) {
	var env phaseGroupSeedsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, &FormatError{Err: err}
	}
	if env.Tournament == nil {
		return nil, 0, domain.ErrTournamentNotFound
	}

	var nodes []SeedNode
	totalPages := 0
	for _, event := range env.Tournament.Events {
		for _, group := range event.PhaseGroups {
			nodes = append(nodes, group.Seeds.Nodes...)
			if group.Seeds.PageInfo.TotalPages > totalPages {
				totalPages = group.Seeds.PageInfo.TotalPages
			}
		}
	}
	return nodes, totalPages, nil
}

type entrantSeedsEnvelope struct {
	Tournament *struct {
		Events []struct {
			Entrants struct {
				PageInfo PageInfo      `json:"pageInfo"`
				Nodes    []EntrantNode `json:"nodes"`
			} `json:"entrants"`
		} `json:"events"`
	} `json:"tournament"`
}

func extractEntrantSeedPage(data json.RawMessage) ([]SeedNode, int, error) {
	var env entrantSeedsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, &FormatError{Err: err}
	}
	if env.Tournament == nil {
		return nil, 0, domain.ErrTournamentNotFound
	}

	var nodes []SeedNode
	totalPages := 0
	for _, event := range env.Tournament.Events {
		for _, entrant := range event.Entrants.Nodes {
			entrant := entrant
			var placement *int
			if entrant.Standing != nil {
				placement = entrant.Standing.Placement
			}
			nodes = append(nodes, SeedNode{
				SeedNum:   entrant.InitialSeedNum,
				Placement: placement,
				Entrant:   &entrant,
			})
		}
		if event.Entrants.PageInfo.TotalPages > totalPages {
			totalPages = event.Entrants.PageInfo.TotalPages
		}
	}
	return nodes, totalPages, nil
}
