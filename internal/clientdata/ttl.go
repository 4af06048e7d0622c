package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLGammaEvents bounds how long a cached events payload can stand in for
	// an unreachable upstream
	TTLGammaEvents = 6 * time.Hour
)
