// Package clientdata provides persistent caching for external API client responses.
// Payloads are stored as msgpack blobs with expiration timestamps for stale fallback.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// TableGammaEvents caches normalized events per upstream query string
const TableGammaEvents = "gamma_events"

// AllTables lists all tables in client_data.db for cleanup operations.
var AllTables = []string{
	TableGammaEvents,
}

var keyColumns = map[string]string{
	TableGammaEvents: "query",
}

// Entry is a cached payload with its timestamps
type Entry struct {
	Data      []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry has not expired at now
func (e *Entry) Fresh(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Decode unpacks the payload into v
func (e *Entry) Decode(v interface{}) error {
	if err := msgpack.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode cached payload: %w", err)
	}
	return nil
}

// Repository provides cache operations for client data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// keyColumn validates the table name and returns its key column.
// Table names are never taken from callers unchecked.
func keyColumn(table string) (string, error) {
	col, ok := keyColumns[table]
	if !ok {
		return "", fmt.Errorf("invalid table name: %s", table)
	}
	return col, nil
}

// Store saves data with expiration = now + ttl, replacing any previous entry.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	keyCol, err := keyColumn(table)
	if err != nil {
		return err
	}

	packed, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	now := time.Now()
	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)",
		table, keyCol,
	)
	if _, err := r.db.Exec(query, key, packed, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// Get returns the entry regardless of expiration status.
// Use this as a fallback when API calls fail - stale data is better than no data.
// Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(table, key string) (*Entry, error) {
	keyCol, err := keyColumn(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data, fetched_at, expires_at FROM %s WHERE %s = ?", table, keyCol)

	var (
		data      []byte
		fetchedAt int64
		expiresAt int64
	)
	err = r.db.QueryRow(query, key).Scan(&data, &fetchedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	return &Entry{
		Data:      data,
		FetchedAt: time.Unix(fetchedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

// GetIfFresh returns the entry only if it has not expired, nil otherwise.
func (r *Repository) GetIfFresh(table, key string) (*Entry, error) {
	entry, err := r.Get(table, key)
	if err != nil || entry == nil {
		return nil, err
	}
	if !entry.Fresh(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	keyCol, err := keyColumn(table)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyCol), key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if _, err := keyColumn(table); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
