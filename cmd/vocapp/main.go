// Command vocapp manages vocabulary decks and runs the study loop from a
// terminal. `vocapp serve` runs the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/vocapp/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vocapp:", cli.ErrorMessage(err))
		os.Exit(cli.GetExitCode(err))
	}
}
