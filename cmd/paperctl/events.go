package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type eventsCmd struct {
	query string
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "list open events and their market prices" }
func (*eventsCmd) Usage() string {
	return `paperctl events [-query <gamma query string>]

  Without -query the configured board query is used.
`
}

func (c *eventsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "query", "", "Raw query string passed to the events endpoint, e.g. limit=5&closed=false")
}

func (c *eventsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	query := c.query
	if query == "" {
		query = a.cfg.EventsQuery
	}

	events, err := a.container.GammaClient.FetchEvents(ctx, query)
	if err != nil {
		return fail(err)
	}
	printMarkdown(eventsMarkdown(events))
	return subcommands.ExitSuccess
}
