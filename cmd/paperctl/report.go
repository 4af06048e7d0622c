package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/formatting"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
	"github.com/aristath/predictions-dashboard/internal/modules/valuation"
)

// portfolioMarkdown renders a valued portfolio as a markdown report
func portfolioMarkdown(identity string, report valuation.Report, pricedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio of %s\n\n", escapeCell(identity))
	fmt.Fprintf(&b, "Prices updated %s.\n\n", formatting.Ago(pricedAt))

	b.WriteString("| Balance | Invested | Mark value | Unrealized P&L | Win rate |\n")
	b.WriteString("|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n\n",
		report.Display.Balance,
		report.Display.Invested,
		report.Display.MarkValue,
		report.Display.UnrealizedPnL,
		report.Display.WinRate,
	)

	b.WriteString("## Positions\n\n")
	if len(report.Positions) == 0 {
		b.WriteString("No open positions.\n")
		return b.String()
	}

	b.WriteString("| Market | Side | Quantity | Avg price | Current | Mark value | P&L | Last trade |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---|\n")
	for _, p := range report.Positions {
		current := formatting.PercentFromPrice(p.CurrentPrice)
		if !p.Priced {
			current += " (cost)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s (%s) | %s |\n",
			escapeCell(marketLabel(p.Position)),
			p.Side,
			formatting.Quantity(p.Quantity),
			formatting.PercentFromPrice(p.AveragePrice),
			current,
			formatting.Currency(p.MarkValue),
			formatting.Currency(p.UnrealizedPnL),
			formatting.Percent(p.PnLPercent),
			formatting.DateString(p.LastTradeAt),
		)
	}
	return b.String()
}

// eventsMarkdown renders a list of events with their markets
func eventsMarkdown(events []domain.NormalizedEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Events (%d)\n\n", len(events))
	if len(events) == 0 {
		b.WriteString("No events.\n")
		return b.String()
	}

	for _, event := range events {
		fmt.Fprintf(&b, "## %s\n\n", escapeCell(event.Title))
		fmt.Fprintf(&b, "Volume %s, ends %s, id `%s`\n\n",
			formatting.CompactCurrency(event.Volume),
			formatting.Date(event.EndDate),
			event.ID,
		)
		if len(event.Markets) == 0 {
			continue
		}

		b.WriteString("| Market | Id | Yes | No |\n")
		b.WriteString("|---|---|---:|---:|\n")
		for _, market := range event.Markets {
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
				escapeCell(market.Title),
				market.ID,
				formatting.PercentFromPrice(market.Price.Yes),
				formatting.PercentFromPrice(market.Price.No),
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// resultLine summarizes a wallet action for the terminal
func resultLine(result ledger.Result, state domain.PortfolioState) string {
	if !result.Success {
		return "Rejected: " + result.Reason
	}
	return "Done. Balance " + formatting.Currency(state.Balance)
}

func marketLabel(p domain.Position) string {
	switch {
	case p.EventTitle != "" && p.MarketTitle != "" && p.EventTitle != p.MarketTitle:
		return p.EventTitle + " / " + p.MarketTitle
	case p.MarketTitle != "":
		return p.MarketTitle
	case p.EventTitle != "":
		return p.EventTitle
	}
	return p.MarketID
}

// escapeCell keeps pipes and newlines from breaking table rows
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
