package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"time"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
	"github.com/aristath/predictions-dashboard/internal/modules/valuation"
	"github.com/google/subcommands"
)

type showCmd struct {
	user string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display a portfolio valued at the latest prices" }
func (*showCmd) Usage() string {
	return `paperctl show -user <identity>

  Loads the stored portfolio of an identity, refreshes market prices and
  prints balance, totals and every position marked to market.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Identity whose portfolio is shown")
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	account, err := a.account(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	defer a.release(account)

	a.refreshBoard(ctx)
	snapshot := a.container.Board.Snapshot()

	report := valuation.Value(account.State(), snapshot.Index)
	printMarkdown(portfolioMarkdown(account.Identity(), report, snapshot.UpdatedAt))
	return subcommands.ExitSuccess
}

type fundCmd struct {
	user   string
	amount float64
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "add paper cash to a wallet" }
func (*fundCmd) Usage() string {
	return `paperctl fund -user <identity> -amount <dollars>
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Identity to credit")
	f.Float64Var(&c.amount, "amount", 0, "Amount in dollars, must be positive")
}

func (c *fundCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	account, err := a.account(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	defer a.release(account)

	state, result, err := account.AddFunds(ctx, c.amount)
	if err != nil {
		return fail(err)
	}
	fmt.Println(resultLine(result, state))
	if !result.Success {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type buyCmd struct {
	user   string
	market string
	side   string
	amount float64
	price  float64
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy one side of a market with paper cash" }
func (*buyCmd) Usage() string {
	return `paperctl buy -user <identity> -market <id> -side <yes|no> -amount <dollars> [-price <0-1>]

  Markets listed on the events board are filled at their live price. For
  any other market -price is required.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Identity that places the order")
	f.StringVar(&c.market, "market", "", "Market id")
	f.StringVar(&c.side, "side", "yes", "Outcome to buy, yes or no")
	f.Float64Var(&c.amount, "amount", 0, "Amount to spend in dollars")
	f.Float64Var(&c.price, "price", math.NaN(), "Fill price for markets that are not on the board")
}

func (c *buyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	side, ok := domain.ParsePositionSide(c.side)
	if !ok || c.market == "" {
		return fail(errors.New(ledger.ReasonInvalidOrder))
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	account, err := a.account(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	defer a.release(account)

	a.refreshBoard(ctx)

	order := domain.BuyOrder{
		MarketID:  c.market,
		Side:      side,
		Price:     c.price,
		Amount:    c.amount,
		Timestamp: domain.FormatTimestamp(time.Now()),
	}
	if market, event, found := a.container.Board.Lookup(c.market); found {
		order.Price = market.Price.ForSide(side)
		order.MarketTitle = market.Title
		order.EventID = event.ID
		order.EventTitle = event.Title
	}

	state, result, err := account.Buy(ctx, order)
	if err != nil {
		return fail(err)
	}
	fmt.Println(resultLine(result, state))
	if !result.Success {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type resetCmd struct {
	user string
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "reset a wallet to the starting balance" }
func (*resetCmd) Usage() string {
	return `paperctl reset -user <identity>

  Drops every position and restores the starting balance.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Identity to reset")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	account, err := a.account(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	defer a.release(account)

	state, err := account.Clear(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Println(resultLine(ledger.Accepted, state))
	return subcommands.ExitSuccess
}
