package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema mirrors client_data_schema.sql
const testSchema = `
CREATE TABLE gamma_events (query TEXT PRIMARY KEY, data BLOB NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_gamma_events_expires_at ON gamma_events(expires_at);
`

type cachedMarket struct {
	ID    string
	Title string
	Yes   float64
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStoreAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	payload := []cachedMarket{{ID: "M1", Title: "Alice", Yes: 0.42}, {ID: "M2", Title: "Bob", Yes: 0.35}}

	require.NoError(t, repo.Store(TableGammaEvents, "limit=2", payload, time.Hour))

	entry, err := repo.Get(TableGammaEvents, "limit=2")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Fresh(time.Now()))
	assert.WithinDuration(t, time.Now(), entry.FetchedAt, 5*time.Second)

	var decoded []cachedMarket
	require.NoError(t, entry.Decode(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestStoreReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableGammaEvents, "q", []cachedMarket{{ID: "old"}}, time.Hour))
	require.NoError(t, repo.Store(TableGammaEvents, "q", []cachedMarket{{ID: "new"}}, time.Hour))

	entry, err := repo.Get(TableGammaEvents, "q")
	require.NoError(t, err)

	var decoded []cachedMarket
	require.NoError(t, entry.Decode(&decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "new", decoded[0].ID)
}

func TestGetMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	entry, err := repo.Get(TableGammaEvents, "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = repo.GetIfFresh(TableGammaEvents, "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableGammaEvents, "q", []cachedMarket{{ID: "M1"}}, -time.Hour))

	fresh, err := repo.GetIfFresh(TableGammaEvents, "q")
	require.NoError(t, err)
	assert.Nil(t, fresh)

	// Stale data is still available through Get
	stale, err := repo.Get(TableGammaEvents, "q")
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.False(t, stale.Fresh(time.Now()))
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	assert.Error(t, repo.Store("users; DROP TABLE x", "k", 1, time.Hour))
	_, err := repo.Get("nope", "k")
	assert.Error(t, err)
	_, err = repo.GetIfFresh("nope", "k")
	assert.Error(t, err)
	assert.Error(t, repo.Delete("nope", "k"))
	_, err = repo.DeleteExpired("nope")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableGammaEvents, "q", []cachedMarket{}, time.Hour))
	require.NoError(t, repo.Delete(TableGammaEvents, "q"))

	entry, err := repo.Get(TableGammaEvents, "q")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDecodeCorruptPayload(t *testing.T) {
	entry := &Entry{Data: []byte{0xc1}}
	var decoded []cachedMarket
	assert.Error(t, entry.Decode(&decoded))
}
