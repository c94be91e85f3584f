// Command csvmapctl reads CSV files into the registered record types from
// the command line: list and describe record types, parse or validate a
// file, and import it into Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvmap/internal/core"
	_ "github.com/JonMunkholm/csvmap/internal/core/records" // Register all record types
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if msg.Code != "ERR000" {
			fmt.Fprintf(os.Stderr, "%s (%s). %s\n", msg.Message, msg.Code, msg.Action)
		}
		stop()
		os.Exit(1)
	}
}
