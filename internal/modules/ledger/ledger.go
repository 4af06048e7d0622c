// Package ledger implements the paper-trading portfolio state machine.
//
// The ledger is a pure transition function over PortfolioState. Four actions exist:
// Load and Reset manage the session lifecycle, AddFunds and Buy are user actions.
// Preconditions of the user actions are checked by Validate* before a transition is
// applied; a rejection is an ordinary Result, never an error.
package ledger

import (
	"math"

	"github.com/aristath/predictions-dashboard/internal/domain"
)

// Rejection reasons shown to the user
const (
	ReasonInvalidAmount       = "Enter a valid amount."
	ReasonInvalidOrder        = "Invalid order values."
	ReasonInsufficientBalance = "Insufficient wallet balance."
)

// Result is the outcome of a user action
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Accepted is the successful Result
var Accepted = Result{Success: true}

// Rejected builds a failed Result
func Rejected(reason string) Result {
	return Result{Success: false, Reason: reason}
}

// Action is one of Load, Reset, AddFunds or Buy
type Action interface {
	// Kind names the action for logging
	Kind() string
	isAction()
}

// Load replaces the state wholesale with a restored snapshot
type Load struct {
	Snapshot domain.PortfolioState
}

// Reset replaces the state with the default wallet
type Reset struct{}

// AddFunds credits the wallet
type AddFunds struct {
	Amount float64
}

// Buy debits the wallet and opens or grows a position
type Buy struct {
	Order domain.BuyOrder
}

func (Load) Kind() string     { return "LOAD" }
func (Reset) Kind() string    { return "RESET" }
func (AddFunds) Kind() string { return "ADD_FUNDS" }
func (Buy) Kind() string      { return "BUY" }

func (Load) isAction()     {}
func (Reset) isAction()    {}
func (AddFunds) isAction() {}
func (Buy) isAction()      {}

// Reduce applies an action and returns the next state. The input state is never modified.
// startingBalance is the balance of the default wallet produced by Reset.
func Reduce(state domain.PortfolioState, action Action, startingBalance float64) domain.PortfolioState {
	switch a := action.(type) {
	case Load:
		return a.Snapshot.Clone()
	case Reset:
		return domain.DefaultPortfolioState(startingBalance)
	case AddFunds:
		next := state.Clone()
		next.Balance += a.Amount
		return next
	case Buy:
		return applyBuy(state, a.Order)
	default:
		return state.Clone()
	}
}

func applyBuy(state domain.PortfolioState, order domain.BuyOrder) domain.PortfolioState {
	next := state.Clone()
	quantity := order.Amount / order.Price
	next.Balance -= order.Amount

	idx := next.FindPosition(order.MarketID, order.Side)
	if idx < 0 {
		next.Positions = append(next.Positions, domain.Position{
			ID:            domain.PositionID(order.MarketID, order.Side),
			EventID:       order.EventID,
			EventTitle:    order.EventTitle,
			MarketID:      order.MarketID,
			MarketTitle:   order.MarketTitle,
			Side:          order.Side,
			AveragePrice:  order.Price,
			Quantity:      quantity,
			TotalInvested: order.Amount,
			LastTradeAt:   order.Timestamp,
		})
		return next
	}

	// Blend cost basis in place so the position keeps its slot
	existing := next.Positions[idx]
	existing.TotalInvested += order.Amount
	existing.Quantity += quantity
	if existing.Quantity > 0 {
		existing.AveragePrice = existing.TotalInvested / existing.Quantity
	} else {
		existing.AveragePrice = order.Price
	}
	existing.LastTradeAt = order.Timestamp
	next.Positions[idx] = existing

	return next
}

// ValidateAddFunds checks the precondition of AddFunds
func ValidateAddFunds(amount float64) Result {
	if !isFinite(amount) || amount <= 0 {
		return Rejected(ReasonInvalidAmount)
	}
	return Accepted
}

// ValidateBuy checks the preconditions of Buy against the current state
func ValidateBuy(state domain.PortfolioState, order domain.BuyOrder) Result {
	if !isFinite(order.Price) || !isFinite(order.Amount) || order.Price <= 0 || order.Amount <= 0 {
		return Rejected(ReasonInvalidOrder)
	}
	// A subnormal price buys an unrepresentable number of shares
	if !isFinite(order.Amount / order.Price) {
		return Rejected(ReasonInvalidOrder)
	}
	if state.Balance < order.Amount {
		return Rejected(ReasonInsufficientBalance)
	}
	return Accepted
}

// Execute validates user actions and applies the transition when accepted.
// On rejection the returned state is the input state.
func Execute(state domain.PortfolioState, action Action, startingBalance float64) (domain.PortfolioState, Result) {
	var result Result
	switch a := action.(type) {
	case AddFunds:
		result = ValidateAddFunds(a.Amount)
	case Buy:
		result = ValidateBuy(state, a.Order)
	default:
		result = Accepted
	}

	if !result.Success {
		return state, result
	}
	return Reduce(state, action, startingBalance), result
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
