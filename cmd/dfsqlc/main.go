// Command dfsqlc compiles SQL queries over CSV sources into C++ programs
// for the hmdf DataFrame library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/dfsqlc/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, err := cli.NewRootCommand().ExecuteContextC(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	// Commands report their own failures; anything else is an argument
	// or flag error.
	if cli.IsExitError(err) {
		return cli.GetExitCode(err)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprint(os.Stderr, cmd.UsageString())
	return cli.ExitCommandError
}
