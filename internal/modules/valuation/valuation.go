// Package valuation marks paper positions to the latest market prices.
package valuation

import (
	"math"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/formatting"
	"gonum.org/v1/gonum/floats"
)

// PositionValue is one position marked to market
type PositionValue struct {
	domain.Position
	CurrentPrice  float64 `json:"currentPrice"`
	Priced        bool    `json:"priced"`
	MarkValue     float64 `json:"markValue"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	PnLPercent    float64 `json:"pnlPercent"`
}

// Totals aggregates a whole portfolio
type Totals struct {
	Invested      float64 `json:"invested"`
	MarkValue     float64 `json:"markValue"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	Winners       int     `json:"winners"`
	WinRate       float64 `json:"winRate"`
}

// Display holds the formatted headline figures
type Display struct {
	Balance       string `json:"balance"`
	Invested      string `json:"invested"`
	MarkValue     string `json:"markValue"`
	UnrealizedPnL string `json:"unrealizedPnl"`
	WinRate       string `json:"winRate"`
}

// Report is the valuation of a portfolio at one price index
type Report struct {
	Balance   float64         `json:"balance"`
	Positions []PositionValue `json:"positions"`
	Totals    Totals          `json:"totals"`
	Display   Display         `json:"display"`
}

// CurrentPrice returns the live price of a position's side, falling back to its average
// cost when the market is not in the index
func CurrentPrice(position domain.Position, index domain.PriceIndex) (float64, bool) {
	point, ok := index[position.MarketID]
	if !ok {
		return position.AveragePrice, false
	}
	return point.ForSide(position.Side), true
}

// ValuePosition marks a single position
func ValuePosition(position domain.Position, index domain.PriceIndex) PositionValue {
	price, priced := CurrentPrice(position, index)
	pnl := (price - position.AveragePrice) * position.Quantity

	pnlPercent := 0.0
	if position.TotalInvested > 0 {
		pnlPercent = pnl / position.TotalInvested * 100
	}

	return PositionValue{
		Position:      position,
		CurrentPrice:  price,
		Priced:        priced,
		MarkValue:     price * position.Quantity,
		UnrealizedPnL: pnl,
		PnLPercent:    pnlPercent,
	}
}

// Value marks every position of state and aggregates the totals.
// Positions keep their trade order. An empty portfolio has a win rate of 0.
// Totals that overflow saturate at ±MaxFloat64 and display as N/A.
func Value(state domain.PortfolioState, index domain.PriceIndex) Report {
	n := len(state.Positions)
	positions := make([]PositionValue, 0, n)
	invested := make([]float64, n)
	marks := make([]float64, n)
	pnls := make([]float64, n)

	winners := 0
	for i, position := range state.Positions {
		value := ValuePosition(position, index)
		positions = append(positions, value)

		invested[i] = position.TotalInvested
		marks[i] = value.MarkValue
		pnls[i] = value.UnrealizedPnL
		if value.UnrealizedPnL >= 0 {
			winners++
		}
	}

	totals := Totals{
		Invested:      saturate(floats.Sum(invested)),
		MarkValue:     saturate(floats.Sum(marks)),
		UnrealizedPnL: saturate(floats.Sum(pnls)),
		Winners:       winners,
	}
	if n > 0 {
		totals.WinRate = float64(winners) / float64(n) * 100
	}

	return Report{
		Balance:   state.Balance,
		Positions: positions,
		Totals:    totals,
		Display: Display{
			Balance:       formatting.Currency(state.Balance),
			Invested:      displayTotal(totals.Invested),
			MarkValue:     displayTotal(totals.MarkValue),
			UnrealizedPnL: displayTotal(totals.UnrealizedPnL),
			WinRate:       formatting.Percent(totals.WinRate),
		},
	}
}

// saturate keeps a sum JSON-encodable
func saturate(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

func displayTotal(v float64) string {
	if math.Abs(v) == math.MaxFloat64 {
		return formatting.NotAvailable
	}
	return formatting.Currency(v)
}
