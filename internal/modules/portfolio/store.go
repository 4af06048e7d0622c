// Package portfolio owns the paper wallets: persistence, per-identity accounts and
// browser sessions that switch between identities.
package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/rs/zerolog"
)

// DefaultNamespace prefixes every storage key
const DefaultNamespace = "predictions-dashboard"

// StorageKey builds the key a portfolio is persisted under
func StorageKey(namespace, identity string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + identity + ":portfolio"
}

// Store reads and writes whole portfolio states through a key-value backend
type Store struct {
	kv              domain.KeyValueStore
	namespace       string
	startingBalance float64
	log             zerolog.Logger
}

// NewStore creates a portfolio store
func NewStore(kv domain.KeyValueStore, namespace string, startingBalance float64, log zerolog.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		kv:              kv,
		namespace:       namespace,
		startingBalance: startingBalance,
		log:             log.With().Str("repository", "portfolio_store").Logger(),
	}
}

// StartingBalance returns the balance of a fresh wallet
func (s *Store) StartingBalance() float64 {
	return s.startingBalance
}

// Key returns the storage key of identity
func (s *Store) Key(identity string) string {
	return StorageKey(s.namespace, identity)
}

// Default returns a fresh wallet
func (s *Store) Default() domain.PortfolioState {
	return domain.DefaultPortfolioState(s.startingBalance)
}

// Load restores the portfolio of identity.
// Missing or unreadable documents yield the default wallet; damaged fields are repaired.
// Only backend failures are returned as errors.
func (s *Store) Load(ctx context.Context, identity string) (domain.PortfolioState, error) {
	if identity == "" {
		return s.Default(), nil
	}

	key := s.Key(identity)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return domain.PortfolioState{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if !ok {
		return s.Default(), nil
	}

	state, repaired, err := s.decode(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable portfolio")
		return s.Default(), nil
	}
	if repaired {
		s.log.Warn().Str("key", key).Msg("Repaired damaged portfolio fields")
	}
	return state, nil
}

// Save overwrites the stored portfolio of identity. Nothing is written without an identity.
func (s *Store) Save(ctx context.Context, identity string, state domain.PortfolioState) error {
	if identity == "" {
		return nil
	}

	if state.Positions == nil {
		state.Positions = []domain.Position{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio: %w", err)
	}

	if err := s.kv.Set(ctx, s.Key(identity), data); err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

// storedPortfolio is the lenient shape of a persisted document
type storedPortfolio struct {
	Balance   json.RawMessage `json:"balance"`
	Positions json.RawMessage `json:"positions"`
}

// storedPosition accepts loosely typed fields; a position is kept as long as it is an object
type storedPosition struct {
	ID            markets.LooseString `json:"id"`
	EventID       markets.LooseString `json:"eventId"`
	EventTitle    markets.LooseString `json:"eventTitle"`
	MarketID      markets.LooseString `json:"marketId"`
	MarketTitle   markets.LooseString `json:"marketTitle"`
	Side          markets.LooseString `json:"side"`
	AveragePrice  markets.LooseNumber `json:"averagePrice"`
	Quantity      markets.LooseNumber `json:"quantity"`
	TotalInvested markets.LooseNumber `json:"totalInvested"`
	LastTradeAt   markets.LooseString `json:"lastTradeAt"`
}

func (s *Store) decode(raw []byte) (domain.PortfolioState, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.PortfolioState{}, false, fmt.Errorf("portfolio document is not an object")
	}

	var doc storedPortfolio
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.PortfolioState{}, false, fmt.Errorf("failed to parse portfolio: %w", err)
	}

	repaired := false
	state := domain.PortfolioState{Positions: []domain.Position{}}

	var balance markets.LooseNumber
	_ = json.Unmarshal(doc.Balance, &balance)
	if !balance.Valid() {
		state.Balance = s.startingBalance
		repaired = true
	} else {
		state.Balance = balance.Float()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(doc.Positions, &entries); err != nil {
		return state, true, nil
	}

	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			repaired = true
			continue
		}
		var p storedPosition
		if err := json.Unmarshal(entry, &p); err != nil {
			repaired = true
			continue
		}
		position, ok, changed := p.position()
		if !ok {
			repaired = true
			continue
		}
		if changed {
			repaired = true
		}
		state.Positions = append(state.Positions, position)
	}

	return state, repaired, nil
}

// position converts a stored entry, restoring the position invariants.
// Entries without a market, with an unknown side, a non-positive quantity or a negative
// investment are dropped. The id and average price are derived from the other fields and a
// missing investment from average price times quantity; changed reports a rewrite.
func (p storedPosition) position() (position domain.Position, ok bool, changed bool) {
	side, ok := domain.ParsePositionSide(string(p.Side))
	if !ok || p.MarketID == "" {
		return domain.Position{}, false, false
	}

	quantity := p.Quantity.Float()
	if quantity <= 0 {
		return domain.Position{}, false, false
	}
	invested := p.TotalInvested.Float()
	if !p.TotalInvested.Valid() {
		invested = p.AveragePrice.Float() * quantity
		changed = true
	}
	if invested < 0 || math.IsInf(invested, 0) {
		return domain.Position{}, false, false
	}

	position = domain.Position{
		ID:            domain.PositionID(string(p.MarketID), side),
		EventID:       string(p.EventID),
		EventTitle:    string(p.EventTitle),
		MarketID:      string(p.MarketID),
		MarketTitle:   string(p.MarketTitle),
		Side:          side,
		AveragePrice:  invested / quantity,
		Quantity:      quantity,
		TotalInvested: invested,
		LastTradeAt:   string(p.LastTradeAt),
	}
	changed = changed ||
		position.ID != string(p.ID) ||
		position.Side != domain.PositionSide(p.Side) ||
		position.AveragePrice != p.AveragePrice.Float()
	return position, true, changed
}
