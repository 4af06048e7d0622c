package kvstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aristath/predictions-dashboard/internal/domain"
	testingpkg "github.com/aristath/predictions-dashboard/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ domain.KeyValueStore = (*MemoryStore)(nil)
	_ domain.KeyValueStore = (*SQLiteStore)(nil)
	_ domain.KeyValueStore = (*PostgresStore)(nil)
)

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, store domain.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "ns:alice:portfolio", []byte(`{"balance":1000}`)))
	value, ok, err := store.Get(ctx, "ns:alice:portfolio")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"balance":1000}`, string(value))

	// Whole-value overwrite
	require.NoError(t, store.Set(ctx, "ns:alice:portfolio", []byte(`{"balance":5}`)))
	value, _, err = store.Get(ctx, "ns:alice:portfolio")
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":5}`, string(value))

	// Keys are independent
	require.NoError(t, store.Set(ctx, "ns:bob:portfolio", []byte(`{"balance":7}`)))
	value, _, err = store.Get(ctx, "ns:alice:portfolio")
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":5}`, string(value))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			_ = store.Set(ctx, key, []byte("v"))
			_, _, _ = store.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, store.Len())
}

func TestSQLiteStore(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	defer cleanup()

	store := NewSQLiteStore(db, zerolog.Nop())
	exerciseStore(t, store)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostgresStore(t *testing.T) {
	connStr := os.Getenv("KVSTORE_POSTGRES_URL")
	if connStr == "" {
		t.Skip("KVSTORE_POSTGRES_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := ConnectPostgres(ctx, connStr, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}
