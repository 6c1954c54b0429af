package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/build-flow-labs/repoaudit/internal/audit/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
