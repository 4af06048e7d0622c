package testing

import (
	"time"

	"github.com/aristath/predictions-dashboard/internal/domain"
)

// RawEventsJSON is a gamma events payload covering the loose upstream encodings
const RawEventsJSON = `[
  {
    "id": "E1",
    "title": "Presidential Election Winner 2028",
    "slug": "presidential-election-winner-2028",
    "image": "https://example.com/e1.png",
    "volume": "1250000.75",
    "endDate": "2028-11-07T00:00:00Z",
    "markets": [
      {"id": "M1", "question": "Will Alice win?", "groupItemTitle": "Alice", "outcomePrices": "[\"0.42\",\"0.58\"]"},
      {"id": "M2", "question": "Will Bob win?", "groupItemTitle": "Bob", "outcomePrices": "[\"0.35\",\"0.65\"]"}
    ]
  },
  {
    "id": 2,
    "title": "Senate Control",
    "slug": "senate-control",
    "volume": 98000,
    "markets": [
      {"id": "M3", "question": "Will Party A control the Senate?", "outcomePrices": "[0.61, 0.39]"}
    ]
  }
]`

// NewEventFixtures returns normalized events matching RawEventsJSON
func NewEventFixtures() []domain.NormalizedEvent {
	image := "https://example.com/e1.png"
	endDate := "2028-11-07T00:00:00Z"

	return []domain.NormalizedEvent{
		{
			ID:      "E1",
			Title:   "Presidential Election Winner 2028",
			Slug:    "presidential-election-winner-2028",
			Image:   &image,
			Volume:  1250000.75,
			EndDate: &endDate,
			Markets: []domain.NormalizedMarket{
				{ID: "M1", Title: "Alice", Price: domain.MarketPricePoint{Yes: 0.42, No: 0.58}},
				{ID: "M2", Title: "Bob", Price: domain.MarketPricePoint{Yes: 0.35, No: 0.65}},
			},
		},
		{
			ID:     "2",
			Title:  "Senate Control",
			Slug:   "senate-control",
			Volume: 98000,
			Markets: []domain.NormalizedMarket{
				{ID: "M3", Title: "Will Party A control the Senate?", Price: domain.MarketPricePoint{Yes: 0.61, No: 0.39}},
			},
		},
	}
}

// NewPortfolioFixture returns a state holding one YES and one NO position
func NewPortfolioFixture() domain.PortfolioState {
	tradedAt := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC).Format(domain.TimestampLayout)

	return domain.PortfolioState{
		Balance: 800,
		Positions: []domain.Position{
			{
				ID:            domain.PositionID("M1", domain.SideYes),
				EventID:       "E1",
				EventTitle:    "Presidential Election Winner 2028",
				MarketID:      "M1",
				MarketTitle:   "Alice",
				Side:          domain.SideYes,
				AveragePrice:  0.4,
				Quantity:      250,
				TotalInvested: 100,
				LastTradeAt:   tradedAt,
			},
			{
				ID:            domain.PositionID("M3", domain.SideNo),
				EventID:       "2",
				EventTitle:    "Senate Control",
				MarketID:      "M3",
				MarketTitle:   "Will Party A control the Senate?",
				Side:          domain.SideNo,
				AveragePrice:  0.5,
				Quantity:      200,
				TotalInvested: 100,
				LastTradeAt:   tradedAt,
			},
		},
	}
}
