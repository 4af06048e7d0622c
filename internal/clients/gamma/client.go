// Package gamma provides the Polymarket gamma events client.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/predictions-dashboard/internal/clientdata"
	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public gamma API
const DefaultBaseURL = "https://gamma-api.polymarket.com"

// maxBodyBytes bounds the events payload read from upstream
const maxBodyBytes = 16 << 20

// Client for the gamma events endpoint
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new gamma client.
// cacheRepo is optional - if nil, stale fallback is disabled
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "gamma").Logger(),
		cacheRepo: cacheRepo,
	}
}

// FetchEvents fetches and normalizes events for a raw query string.
// Live data is always requested; when the upstream fails, the last cached payload for the
// same query is returned instead, as long as it is younger than TTLGammaEvents.
func (c *Client) FetchEvents(ctx context.Context, query string) ([]domain.NormalizedEvent, error) {
	events, err := c.fetch(ctx, query)
	if err != nil {
		if stale, fetchedAt, ok := c.getCachedEvents(query); ok {
			c.log.Warn().
				Err(err).
				Str("query", query).
				Time("fetched_at", fetchedAt).
				Int("events", len(stale)).
				Msg("Upstream failed, using stale cached events")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(clientdata.TableGammaEvents, query, events, clientdata.TTLGammaEvents); err != nil {
			c.log.Warn().Err(err).Str("query", query).Msg("Failed to cache events")
		}
	}

	return events, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]domain.NormalizedEvent, error) {
	url := c.baseURL + "/events"
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &markets.FetchError{Message: markets.MessageUnavailable, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	c.log.Debug().Str("url", url).Msg("Fetching events")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &markets.FetchError{Message: markets.MessageUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &markets.FetchError{Status: resp.StatusCode, Message: markets.MessageUpstreamFailed}
	}

	var raw []markets.RawEvent
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, &markets.FetchError{
			Message: markets.MessageUnavailable,
			Err:     fmt.Errorf("failed to parse response: %w", err),
		}
	}

	events := markets.NormalizeEvents(raw)
	c.log.Debug().Int("events", len(events)).Msg("Fetched events")
	return events, nil
}

// getCachedEvents retrieves the cached events of query while they are within their TTL
func (c *Client) getCachedEvents(query string) ([]domain.NormalizedEvent, time.Time, bool) {
	if c.cacheRepo == nil {
		return nil, time.Time{}, false
	}

	entry, err := c.cacheRepo.GetIfFresh(clientdata.TableGammaEvents, query)
	if err != nil || entry == nil {
		return nil, time.Time{}, false
	}

	var events []domain.NormalizedEvent
	if err := entry.Decode(&events); err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("Discarding unreadable cached events")
		return nil, time.Time{}, false
	}
	return events, entry.FetchedAt, true
}
