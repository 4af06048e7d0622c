package domain

import "context"

// KeyValueStore is the durable storage capability used for portfolio persistence.
// Get reports found=false for a missing key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// EventFeed fetches the current list of normalized events from the market data provider
type EventFeed interface {
	FetchEvents(ctx context.Context, query string) ([]NormalizedEvent, error)
}
