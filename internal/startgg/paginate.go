package startgg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PageExtractor locates a page's node list and the total page count inside
// a raw data payload.
type PageExtractor[T any] func(data json.RawMessage) (nodes []T, totalPages int, err error)

// Paginator drives repeated Client calls across the pages of a single query
// shape until all pages are collected.
//
// Pages are 1-indexed. The total page count is captured from the first
// successful page; the API reports it identically on every page. An HTTP
// 429 sleeps RateLimitCooldown and retries the same page with no retry cap,
// so a sustained rate limit stalls the session but never aborts it. Any
// other failure propagates immediately and discards the pages accumulated
// by this session. Cancellation is honored between pages, never mid-page.
type Paginator[T any] struct {
	Client            *Client
	Query             string
	OperationName     string
	Variables         map[string]any
	PerPage           int
	PageDelay         time.Duration
	RateLimitCooldown time.Duration
	Extract           PageExtractor[T]
	Logger            *slog.Logger
}

// FetchAll collects the nodes of every page, in page order
func (p *Paginator[T]) FetchAll(ctx context.Context) ([]T, error) {
	var all []T
	page := 1
	totalPages := -1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := p.Client.Query(ctx, p.Query, p.pageVariables(page), p.OperationName)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.RateLimited() {
				p.Logger.Warn("rate limited, waiting before retrying page",
					"operation", p.OperationName,
					"page", page,
					"cooldown", p.RateLimitCooldown,
				)
				if err := sleepContext(ctx, p.RateLimitCooldown); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("fetching page %d of %s: %w", page, p.OperationName, err)
		}

		nodes, pages, err := p.Extract(data)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", page, p.OperationName, err)
		}
		all = append(all, nodes...)

		if totalPages < 0 {
			totalPages = pages
		}
		if page >= totalPages {
			return all, nil
		}
		page++

		// Proactive spacing between pages to stay under the rate limit,
		// independent from the 429 cooldown.
		if err := sleepContext(ctx, p.PageDelay); err != nil {
			return nil, err
		}
	}
}

// pageVariables merges the pagination variables into the query's fixed ones
func (p *Paginator[T]) pageVariables(page int) map[string]any {
	vars := make(map[string]any, len(p.Variables)+2)
	for k, v := range p.Variables {
		vars[k] = v
	}
	vars["page"] = page
	vars["perPage"] = p.PerPage
	return vars
}

// sleepContext blocks for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
