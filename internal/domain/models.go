// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// MarketPricePoint holds the normalized probabilities of a binary market.
// Each side is clamped into [0,1] on its own; they need not sum to 1.
type MarketPricePoint struct {
	Yes float64 `json:"yes"`
	No  float64 `json:"no"`
}

// ForSide returns the price of the given outcome
func (p MarketPricePoint) ForSide(side PositionSide) float64 {
	if side == SideNo {
		return p.No
	}
	return p.Yes
}

// NormalizedMarket is a single binary question as shown on the dashboard
type NormalizedMarket struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Price MarketPricePoint `json:"price"`
}

// NormalizedEvent groups related markets. Snapshots are rebuilt on every refresh.
type NormalizedEvent struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Slug    string             `json:"slug"`
	Image   *string            `json:"image"`
	Volume  float64            `json:"volume"`
	EndDate *string            `json:"endDate"`
	Markets []NormalizedMarket `json:"markets"`
}

// PositionSide is the outcome a position is exposed to
type PositionSide string

const (
	SideYes PositionSide = "YES"
	SideNo  PositionSide = "NO"
)

// ParsePositionSide accepts YES/NO in any case
func ParsePositionSide(s string) (PositionSide, bool) {
	switch PositionSide(strings.ToUpper(strings.TrimSpace(s))) {
	case SideYes:
		return SideYes, true
	case SideNo:
		return SideNo, true
	}
	return "", false
}

// Position is the accumulated exposure to one (market, side) pair at weighted-average cost.
// AveragePrice always equals TotalInvested / Quantity.
type Position struct {
	ID            string       `json:"id"`
	EventID       string       `json:"eventId"`
	EventTitle    string       `json:"eventTitle"`
	MarketID      string       `json:"marketId"`
	MarketTitle   string       `json:"marketTitle"`
	Side          PositionSide `json:"side"`
	AveragePrice  float64      `json:"averagePrice"`
	Quantity      float64      `json:"quantity"`
	TotalInvested float64      `json:"totalInvested"`
	LastTradeAt   string       `json:"lastTradeAt"`
}

// PositionID builds the uniqueness key of a position
func PositionID(marketID string, side PositionSide) string {
	return marketID + ":" + string(side)
}

// PortfolioState is the whole paper wallet of one identity.
// It is persisted as a single unit; positions keep trade order.
type PortfolioState struct {
	Balance   float64    `json:"balance"`
	Positions []Position `json:"positions"`
}

// DefaultPortfolioState returns a fresh wallet with the starting balance and no positions
func DefaultPortfolioState(startingBalance float64) PortfolioState {
	return PortfolioState{
		Balance:   startingBalance,
		Positions: []Position{},
	}
}

// Clone returns a copy that shares no memory with s
func (s PortfolioState) Clone() PortfolioState {
	positions := make([]Position, len(s.Positions))
	copy(positions, s.Positions)
	return PortfolioState{Balance: s.Balance, Positions: positions}
}

// FindPosition returns the index of the position with the given key, or -1
func (s PortfolioState) FindPosition(marketID string, side PositionSide) int {
	for i, p := range s.Positions {
		if p.MarketID == marketID && p.Side == side {
			return i
		}
	}
	return -1
}

// TimestampLayout is the ISO-8601 UTC layout with millisecond precision used for trade times
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// BuyOrder is a request to buy one side of a market with a cash amount
type BuyOrder struct {
	EventID     string       `json:"eventId"`
	EventTitle  string       `json:"eventTitle"`
	MarketID    string       `json:"marketId"`
	MarketTitle string       `json:"marketTitle"`
	Side        PositionSide `json:"side"`
	Price       float64      `json:"price"`
	Amount      float64      `json:"amount"`
	Timestamp   string       `json:"timestamp"`
}

// PriceIndex maps a market id to its latest price
type PriceIndex map[string]MarketPricePoint
