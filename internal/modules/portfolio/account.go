package portfolio

import (
	"context"
	"sync"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// Account is the single in-memory owner of one identity's wallet.
// Every transition runs under mu and is persisted before mu is released, so the stored
// document always matches the last applied state. An ephemeral account has no identity
// and is never persisted.
type Account struct {
	identity string
	scope    string
	store    *Store
	events   *events.Manager
	log      zerolog.Logger

	mu    sync.Mutex
	state domain.PortfolioState
}

// newAccount builds an account whose wallet is produced by initial, a Load of a restored
// snapshot or a Reset to the default wallet
func newAccount(identity, scope string, initial ledger.Action, store *Store, eventManager *events.Manager, log zerolog.Logger) *Account {
	return &Account{
		identity: identity,
		scope:    scope,
		store:    store,
		events:   eventManager,
		state:    ledger.Reduce(domain.PortfolioState{}, initial, store.StartingBalance()),
		log:      log,
	}
}

// Identity returns the owning identity, empty for ephemeral accounts
func (a *Account) Identity() string {
	return a.identity
}

// Ephemeral reports whether the account is never persisted
func (a *Account) Ephemeral() bool {
	return a.identity == ""
}

// Scope is the event scope of this account
func (a *Account) Scope() string {
	return a.scope
}

// State returns a copy of the current wallet
func (a *Account) State() domain.PortfolioState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// AddFunds credits the wallet
func (a *Account) AddFunds(ctx context.Context, amount float64) (domain.PortfolioState, ledger.Result, error) {
	state, result, err := a.apply(ctx, ledger.AddFunds{Amount: amount})
	if err == nil && result.Success {
		a.events.EmitTyped("portfolio", a.scope, &events.FundsAddedData{
			Amount:  amount,
			Balance: state.Balance,
		})
	}
	return state, result, err
}

// Buy applies a buy order
func (a *Account) Buy(ctx context.Context, order domain.BuyOrder) (domain.PortfolioState, ledger.Result, error) {
	state, result, err := a.apply(ctx, ledger.Buy{Order: order})
	if err == nil && result.Success {
		data := &events.TradeExecutedData{
			PositionID: domain.PositionID(order.MarketID, order.Side),
			MarketID:   order.MarketID,
			Side:       string(order.Side),
			Price:      order.Price,
			Amount:     order.Amount,
		}
		if i := state.FindPosition(order.MarketID, order.Side); i >= 0 {
			data.Quantity = state.Positions[i].Quantity
		}
		a.events.EmitTyped("portfolio", a.scope, data)
	}
	return state, result, err
}

// Clear resets the wallet to its default
func (a *Account) Clear(ctx context.Context) (domain.PortfolioState, error) {
	state, _, err := a.apply(ctx, ledger.Reset{})
	if err == nil {
		a.events.EmitTyped("portfolio", a.scope, &events.PortfolioClearedData{Balance: state.Balance})
	}
	return state, err
}

// apply runs one transition. The new state becomes visible only once persisted.
func (a *Account) apply(ctx context.Context, action ledger.Action) (domain.PortfolioState, ledger.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, result := ledger.Execute(a.state, action, a.store.StartingBalance())
	if !result.Success {
		a.log.Debug().
			Str("action", action.Kind()).
			Str("reason", result.Reason).
			Msg("Action rejected")
		return a.state.Clone(), result, nil
	}

	if err := a.store.Save(ctx, a.identity, next); err != nil {
		a.log.Error().Err(err).Str("action", action.Kind()).Msg("Failed to persist portfolio")
		return a.state.Clone(), ledger.Result{}, err
	}
	a.state = next

	a.events.EmitTyped("portfolio", a.scope, &events.PortfolioChangedData{
		Action:    action.Kind(),
		Balance:   next.Balance,
		Positions: len(next.Positions),
	})
	return next.Clone(), result, nil
}
