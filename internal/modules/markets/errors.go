package markets

import "fmt"

// Messages reported to API clients for upstream faults
const (
	MessageUpstreamFailed = "Polymarket request failed"
	MessageUnavailable    = "Unable to fetch events"
)

// FetchError reports an upstream market data fault. Status is the upstream HTTP status
// when the provider answered, 0 when it could not be reached or decoded.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
