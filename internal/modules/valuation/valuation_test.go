package valuation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aristath/predictions-dashboard/internal/domain"
	testingpkg "github.com/aristath/predictions-dashboard/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_MarksToIndex(t *testing.T) {
	state := testingpkg.NewPortfolioFixture()
	index := domain.PriceIndex{
		"M1": {Yes: 0.5, No: 0.5},
		"M3": {Yes: 0.6, No: 0.4},
	}

	report := Value(state, index)
	require.Len(t, report.Positions, 2)

	yes := report.Positions[0]
	assert.True(t, yes.Priced)
	assert.Equal(t, 0.5, yes.CurrentPrice)
	assert.InDelta(t, 125, yes.MarkValue, 1e-9)
	assert.InDelta(t, 25, yes.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 25, yes.PnLPercent, 1e-9)

	// NO side uses the no price
	no := report.Positions[1]
	assert.Equal(t, 0.4, no.CurrentPrice)
	assert.InDelta(t, 80, no.MarkValue, 1e-9)
	assert.InDelta(t, -20, no.UnrealizedPnL, 1e-9)

	assert.InDelta(t, 200, report.Totals.Invested, 1e-9)
	assert.InDelta(t, 205, report.Totals.MarkValue, 1e-9)
	assert.InDelta(t, 5, report.Totals.UnrealizedPnL, 1e-9)
	assert.Equal(t, 1, report.Totals.Winners)
	assert.Equal(t, 50.0, report.Totals.WinRate)

	assert.Equal(t, "$800.00", report.Display.Balance)
	assert.Equal(t, "$5.00", report.Display.UnrealizedPnL)
	assert.Equal(t, "50.0%", report.Display.WinRate)
}

func TestValue_MissingPriceFallsBackToAverage(t *testing.T) {
	state := testingpkg.NewPortfolioFixture()

	report := Value(state, domain.PriceIndex{})
	for _, position := range report.Positions {
		assert.False(t, position.Priced)
		assert.Equal(t, position.AveragePrice, position.CurrentPrice)
		assert.Equal(t, 0.0, position.UnrealizedPnL)
	}
	// Break-even counts as a winner
	assert.Equal(t, 100.0, report.Totals.WinRate)
}

func TestValue_EmptyPortfolio(t *testing.T) {
	report := Value(domain.DefaultPortfolioState(1000), domain.PriceIndex{"M1": {Yes: 1}})

	assert.NotNil(t, report.Positions)
	assert.Empty(t, report.Positions)
	assert.Equal(t, 0.0, report.Totals.WinRate)
	assert.Equal(t, 0.0, report.Totals.Invested)
	assert.Equal(t, "$1,000.00", report.Display.Balance)
}

func TestValuePosition_ZeroInvested(t *testing.T) {
	value := ValuePosition(domain.Position{MarketID: "M1", Side: domain.SideYes}, domain.PriceIndex{"M1": {Yes: 0.7}})
	assert.Equal(t, 0.0, value.PnLPercent)
	assert.Equal(t, 0.0, value.MarkValue)
}

func TestValue_OverflowingTotalsStayEncodable(t *testing.T) {
	huge := domain.Position{MarketID: "M1", Side: domain.SideYes, AveragePrice: 1, Quantity: 1e308, TotalInvested: 1e308}
	other := huge
	other.MarketID = "M2"
	state := domain.PortfolioState{Balance: 10, Positions: []domain.Position{huge, other}}

	var report Report
	require.NotPanics(t, func() {
		report = Value(state, domain.PriceIndex{})
	})

	assert.Equal(t, math.MaxFloat64, report.Totals.MarkValue)
	assert.Equal(t, math.MaxFloat64, report.Totals.Invested)
	assert.Equal(t, 0.0, report.Totals.UnrealizedPnL)
	assert.Equal(t, "N/A", report.Display.MarkValue)
	assert.Equal(t, "N/A", report.Display.Invested)
	assert.Equal(t, "$0.00", report.Display.UnrealizedPnL)

	_, err := json.Marshal(report)
	assert.NoError(t, err)
}
