// Command paperctl inspects and edits paper portfolios from the terminal.
// It reads the same environment configuration as the server and writes to the same storage.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&showCmd{}, "portfolio")
	c.Register(&fundCmd{}, "portfolio")
	c.Register(&buyCmd{}, "portfolio")
	c.Register(&resetCmd{}, "portfolio")

	c.Register(&eventsCmd{}, "markets")
}
