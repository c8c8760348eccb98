// Command symbolctl compiles filters to SQL and runs queries against a
// configured database.
//
//	symbolctl compile delete test '{"name": "x", "id": {"$gt": 200000}}' --dialect sqlserver
//	symbolctl find users '{"meta": {"tier": "gold"}}' --order -id --limit 5
//	symbolctl count users --config ~/.symbol.yaml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
