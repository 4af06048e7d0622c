package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/predictions-dashboard/internal/config"
	"github.com/aristath/predictions-dashboard/internal/di"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/pkg/logger"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// a CLI run is short lived, so the global flags are plain package variables
var (
	logLevel = flag.String("log-level", "warn", "Log level for storage and client diagnostics (debug, info, warn, error)")
	plain    = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal")
)

var errNoUser = errors.New("-user is required")

// app is the wired storage and market client of one CLI invocation
type app struct {
	cfg       *config.Config
	container *di.Container
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  *logLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, container: container}, nil
}

func (a *app) Close() {
	a.container.Close()
}

// account loads the account of a signed-in identity. The caller must release it.
func (a *app) account(ctx context.Context, user string) (*portfolio.Account, error) {
	identity, err := portfolio.NormalizeIdentity(user)
	if err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, errNoUser
	}
	return a.container.Accounts.Open(ctx, identity)
}

func (a *app) release(account *portfolio.Account) {
	a.container.Accounts.Release(account)
}

// refreshBoard loads the latest prices. Commands keep working on a failed refresh,
// positions are then valued at their average cost.
func (a *app) refreshBoard(ctx context.Context) {
	if _, err := a.container.Board.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning, prices unavailable: %v\n", err)
	}
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, or prints it as is with -plain
func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(110),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
