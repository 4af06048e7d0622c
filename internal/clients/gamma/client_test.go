package gamma

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/predictions-dashboard/internal/clientdata"
	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	testingpkg "github.com/aristath/predictions-dashboard/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.EventFeed = (*Client)(nil)

func newCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "client_data")
	t.Cleanup(cleanup)
	return clientdata.NewRepository(db.Conn())
}

func TestFetchEvents_Success(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testingpkg.RawEventsJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", nil, zerolog.Nop())
	events, err := client.FetchEvents(context.Background(), "tag_slug=politics&limit=2")
	require.NoError(t, err)

	assert.Equal(t, "/events", gotPath)
	assert.Equal(t, "tag_slug=politics&limit=2", gotQuery)
	assert.Equal(t, testingpkg.NewEventFixtures(), events)
}

func TestFetchEvents_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())
	_, err := client.FetchEvents(context.Background(), "")
	require.Error(t, err)

	var fetchErr *markets.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.Status)
	assert.Equal(t, markets.MessageUpstreamFailed, fetchErr.Message)
}

func TestFetchEvents_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())
	_, err := client.FetchEvents(context.Background(), "")

	var fetchErr *markets.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 0, fetchErr.Status)
	assert.Equal(t, markets.MessageUnavailable, fetchErr.Message)
}

func TestFetchEvents_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, nil, zerolog.Nop())
	_, err := client.FetchEvents(context.Background(), "")

	var fetchErr *markets.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 0, fetchErr.Status)
}

func TestFetchEvents_StaleFallback(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(testingpkg.RawEventsJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL, newCacheRepo(t), zerolog.Nop())

	fresh, err := client.FetchEvents(context.Background(), "limit=2")
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	failing.Store(true)
	stale, err := client.FetchEvents(context.Background(), "limit=2")
	require.NoError(t, err)
	assert.Equal(t, fresh, stale)

	// A different query has nothing cached
	_, err = client.FetchEvents(context.Background(), "limit=3")
	assert.Error(t, err)
}

func TestFetchEvents_ExpiredCacheIsNotServed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := newCacheRepo(t)
	require.NoError(t, repo.Store(clientdata.TableGammaEvents, "limit=2", testingpkg.NewEventFixtures(), -time.Minute))

	client := NewClient(server.URL, repo, zerolog.Nop())
	_, err := client.FetchEvents(context.Background(), "limit=2")

	var fetchErr *markets.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.Status)
}
