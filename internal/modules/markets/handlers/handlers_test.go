package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	testingpkg "github.com/aristath/predictions-dashboard/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(feed domain.EventFeed) (*chi.Mux, *markets.Board) {
	board := markets.NewBoard(feed, "tag_slug=politics", zerolog.Nop())
	router := chi.NewRouter()
	NewHandler(board, feed, zerolog.Nop()).RegisterRoutes(router)
	return router, board
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetEventsFromBoard(t *testing.T) {
	feed := testingpkg.NewMockEventFeed(testingpkg.NewEventFixtures())
	router, _ := setupRouter(feed)

	rec := get(router, "/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var events []domain.NormalizedEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "E1", events[0].ID)
	assert.Equal(t, "tag_slug=politics", feed.LastQuery())

	// The second request is served from the loaded board.
	get(router, "/events")
	assert.Equal(t, 1, feed.Calls())
}

func TestGetEventsPassesQueryThrough(t *testing.T) {
	feed := testingpkg.NewMockEventFeed(testingpkg.NewEventFixtures())
	router, board := setupRouter(feed)

	rec := get(router, "/events?limit=5&closed=false")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "limit=5&closed=false", feed.LastQuery())
	assert.Nil(t, board.Status().UpdatedAt)
}

func TestGetEventsEmptyFeed(t *testing.T) {
	router, _ := setupRouter(testingpkg.NewMockEventFeed(nil))

	rec := get(router, "/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetEventsErrors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upstream status passed through",
			err:        &markets.FetchError{Status: http.StatusTooManyRequests, Message: markets.MessageUpstreamFailed},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"message":"Polymarket request failed"}`,
		},
		{
			name:       "unreachable upstream",
			err:        &markets.FetchError{Message: markets.MessageUnavailable, Err: errors.New("dial tcp: refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Unable to fetch events"}`,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Unable to fetch events"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			feed := testingpkg.NewMockEventFeed(nil)
			feed.SetError(tc.err)
			router, _ := setupRouter(feed)

			for _, path := range []string{"/events", "/events?limit=1"} {
				rec := get(router, path)
				assert.Equal(t, tc.wantStatus, rec.Code, path)
				assert.JSONEq(t, tc.wantBody, rec.Body.String(), path)
			}
		})
	}
}

func TestGetBoard(t *testing.T) {
	feed := testingpkg.NewMockEventFeed(testingpkg.NewEventFixtures())
	router, board := setupRouter(feed)

	_, err := board.Refresh(context.Background())
	require.NoError(t, err)

	rec := get(router, "/markets/board")
	require.Equal(t, http.StatusOK, rec.Code)

	var status markets.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.EventCount)
	assert.Equal(t, 3, status.MarketCount)
	assert.Equal(t, "tag_slug=politics", status.Query)
	assert.NotNil(t, status.UpdatedAt)
	assert.Empty(t, status.LastError)
}
