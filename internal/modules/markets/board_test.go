package markets

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	events []domain.NormalizedEvent
	err    error
	query  string
	calls  int
}

func (f *fakeFeed) FetchEvents(_ context.Context, query string) ([]domain.NormalizedEvent, error) {
	f.calls++
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func sampleEvents() []domain.NormalizedEvent {
	return []domain.NormalizedEvent{{
		ID:    "E1",
		Title: "Election",
		Markets: []domain.NormalizedMarket{
			{ID: "M1", Title: "Candidate A", Price: domain.MarketPricePoint{Yes: 0.4, No: 0.6}},
			{ID: "M2", Title: "Candidate B", Price: domain.MarketPricePoint{Yes: 0.55, No: 0.45}},
		},
	}}
}

func TestBoard_RefreshAndLookup(t *testing.T) {
	feed := &fakeFeed{events: sampleEvents()}
	board := NewBoard(feed, "limit=5", zerolog.Nop())

	snapshot, err := board.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "limit=5", feed.query)
	assert.Len(t, snapshot.Index, 2)

	market, event, ok := board.Lookup("M2")
	require.True(t, ok)
	assert.Equal(t, "Candidate B", market.Title)
	assert.Equal(t, "E1", event.ID)

	_, _, ok = board.Lookup("missing")
	assert.False(t, ok)

	status := board.Status()
	require.NotNil(t, status.UpdatedAt)
	assert.Equal(t, 1, status.EventCount)
	assert.Equal(t, 2, status.MarketCount)
	assert.Empty(t, status.LastError)
}

func TestBoard_FailedRefreshKeepsSnapshot(t *testing.T) {
	feed := &fakeFeed{events: sampleEvents()}
	board := NewBoard(feed, "", zerolog.Nop())

	_, err := board.Refresh(context.Background())
	require.NoError(t, err)

	feed.err = &FetchError{Status: 503, Message: "Unable to fetch events"}
	_, err = board.Refresh(context.Background())
	require.Error(t, err)

	assert.Len(t, board.Index(), 2)
	status := board.Status()
	assert.Contains(t, status.LastError, "Unable to fetch events")
	assert.NotNil(t, status.LastErrorAt)

	feed.err = nil
	_, err = board.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, board.Status().LastError)
}

func TestBoard_EmptyBeforeRefresh(t *testing.T) {
	board := NewBoard(&fakeFeed{}, "", zerolog.Nop())

	assert.NotNil(t, board.Index())
	assert.Empty(t, board.Index())
	assert.Nil(t, board.Status().UpdatedAt)
}

func TestRefreshJob_EmitsEvents(t *testing.T) {
	feed := &fakeFeed{events: sampleEvents()}
	board := NewBoard(feed, "", zerolog.Nop())
	bus := events.NewBus()
	job := NewRefreshJob(board, events.NewManager(bus, zerolog.Nop()), 0, zerolog.Nop())

	var received []*events.Event
	bus.Subscribe(func(e *events.Event) { received = append(received, e) })

	require.NoError(t, job.Run())
	require.Len(t, received, 1)
	assert.Equal(t, events.PriceUpdated, received[0].Type)
	assert.Equal(t, 2.0, received[0].Data["market_count"])

	feed.err = &FetchError{Status: 502, Message: "bad gateway", Err: errors.New("boom")}
	require.Error(t, job.Run())
	require.Len(t, received, 2)
	assert.Equal(t, events.PriceRefreshFailed, received[1].Type)
	assert.Equal(t, 502.0, received[1].Data["status"])

	assert.Equal(t, "price_refresh", job.Name())
}
