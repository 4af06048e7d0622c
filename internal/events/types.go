// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// Market data
	PriceUpdated       EventType = "PRICE_UPDATED"
	PriceRefreshFailed EventType = "PRICE_REFRESH_FAILED"

	// Portfolio
	PortfolioChanged EventType = "PORTFOLIO_CHANGED"
	TradeExecuted    EventType = "TRADE_EXECUTED"
	FundsAdded       EventType = "FUNDS_ADDED"
	PortfolioCleared EventType = "PORTFOLIO_CLEARED"

	// Sessions
	IdentityChanged EventType = "IDENTITY_CHANGED"
)

// Event represents a system event.
// Scope restricts delivery: an empty scope is public, otherwise only subscribers
// bound to the same account scope may see the event.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Module    string                 `json:"module"`
	Scope     string                 `json:"-"`
	Data      map[string]interface{} `json:"data"`
}

// IsPublic reports whether every subscriber may receive the event
func (e *Event) IsPublic() bool {
	return e.Scope == ""
}
