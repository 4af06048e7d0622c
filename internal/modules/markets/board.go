package markets

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/rs/zerolog"
)

// Snapshot is an immutable view of the latest refresh
type Snapshot struct {
	Events    []domain.NormalizedEvent
	Index     domain.PriceIndex
	UpdatedAt time.Time
}

// Status describes the freshness of the board
type Status struct {
	UpdatedAt   *time.Time `json:"updated_at"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	EventCount  int        `json:"event_count"`
	MarketCount int        `json:"market_count"`
	Query       string     `json:"query"`
}

// Board holds the latest normalized events and their price index.
// A refresh replaces the snapshot wholesale; readers never see a partial update.
// Failed refreshes keep the last good snapshot.
type Board struct {
	feed  domain.EventFeed
	query string
	log   zerolog.Logger

	mu          sync.RWMutex
	snapshot    Snapshot
	lastErr     error
	lastErrorAt time.Time
}

// NewBoard creates an empty board reading from feed with the given events query
func NewBoard(feed domain.EventFeed, query string, log zerolog.Logger) *Board {
	return &Board{
		feed:     feed,
		query:    query,
		log:      log.With().Str("component", "price_board").Logger(),
		snapshot: Snapshot{Index: domain.PriceIndex{}},
	}
}

// Refresh fetches the events and swaps in a new snapshot
func (b *Board) Refresh(ctx context.Context) (Snapshot, error) {
	events, err := b.feed.FetchEvents(ctx, b.query)
	if err != nil {
		b.mu.Lock()
		b.lastErr = err
		b.lastErrorAt = time.Now()
		b.mu.Unlock()

		b.log.Warn().Err(err).Msg("Price refresh failed, keeping previous snapshot")
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Events:    events,
		Index:     BuildPriceIndex(events),
		UpdatedAt: time.Now(),
	}

	b.mu.Lock()
	b.snapshot = snapshot
	b.lastErr = nil
	b.mu.Unlock()

	b.log.Debug().
		Int("events", len(events)).
		Int("markets", len(snapshot.Index)).
		Msg("Price board refreshed")

	return snapshot, nil
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// Index returns the current price index
func (b *Board) Index() domain.PriceIndex {
	return b.Snapshot().Index
}

// Lookup finds a market and its parent event in the current snapshot
func (b *Board) Lookup(marketID string) (domain.NormalizedMarket, domain.NormalizedEvent, bool) {
	snapshot := b.Snapshot()
	for _, event := range snapshot.Events {
		for _, market := range event.Markets {
			if market.ID == marketID {
				return market, event, true
			}
		}
	}
	return domain.NormalizedMarket{}, domain.NormalizedEvent{}, false
}

// Status reports freshness information
func (b *Board) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status := Status{
		EventCount:  len(b.snapshot.Events),
		MarketCount: len(b.snapshot.Index),
		Query:       b.query,
	}
	if !b.snapshot.UpdatedAt.IsZero() {
		updatedAt := b.snapshot.UpdatedAt
		status.UpdatedAt = &updatedAt
	}
	if b.lastErr != nil {
		status.LastError = b.lastErr.Error()
		lastErrorAt := b.lastErrorAt
		status.LastErrorAt = &lastErrorAt
	}
	return status
}
