// Package markets turns raw prediction-market payloads into the dashboard's stable shape
// and keeps the latest snapshot of live prices.
package markets

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aristath/predictions-dashboard/internal/domain"
)

// UntitledMarket is used when a market carries no usable title
const UntitledMarket = "Untitled market"

// NormalizeEvents maps raw events to normalized events, preserving length and order
func NormalizeEvents(events []RawEvent) []domain.NormalizedEvent {
	result := make([]domain.NormalizedEvent, 0, len(events))
	for _, event := range events {
		result = append(result, NormalizeEvent(event))
	}
	return result
}

// NormalizeEvent maps a single raw event
func NormalizeEvent(event RawEvent) domain.NormalizedEvent {
	markets := make([]domain.NormalizedMarket, 0, len(event.Markets))
	for _, market := range event.Markets {
		markets = append(markets, NormalizeMarket(market))
	}

	return domain.NormalizedEvent{
		ID:      string(event.ID),
		Title:   event.Title,
		Slug:    event.Slug,
		Image:   event.Image,
		Volume:  event.Volume.Float(),
		EndDate: event.EndDate,
		Markets: markets,
	}
}

// NormalizeMarket maps a single raw market
func NormalizeMarket(market RawMarket) domain.NormalizedMarket {
	return domain.NormalizedMarket{
		ID:    string(market.ID),
		Title: MarketTitle(market),
		Price: ParseOutcomePrices(market.OutcomePrices),
	}
}

// MarketTitle picks the first non-empty trimmed title candidate
func MarketTitle(market RawMarket) string {
	for _, candidate := range []string{market.GroupItemTitle, market.Question, market.Title} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return UntitledMarket
}

// ParseOutcomePrices reads the yes/no prices from an outcomePrices value.
// Upstream sends a JSON array encoded as a string (`"[\"0.4\", \"0.6\"]"`); a bare array is
// accepted too. Each side that is missing or not a finite number reads as 0.
func ParseOutcomePrices(raw json.RawMessage) domain.MarketPricePoint {
	elements := parseArray(raw)

	return domain.MarketPricePoint{
		Yes: priceAt(elements, 0),
		No:  priceAt(elements, 1),
	}
}

func parseArray(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil
		}
		raw = []byte(encoded)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil
	}
	return elements
}

func priceAt(elements []json.RawMessage, i int) float64 {
	if i >= len(elements) {
		return 0
	}
	v, ok := coerceNumber(elements[i])
	if !ok {
		return 0
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BuildPriceIndex maps every market id to its price. A market id seen twice keeps the later price.
func BuildPriceIndex(events []domain.NormalizedEvent) domain.PriceIndex {
	index := make(domain.PriceIndex)
	for _, event := range events {
		for _, market := range event.Markets {
			index[market.ID] = market.Price
		}
	}
	return index
}
