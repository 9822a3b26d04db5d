package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aussiebroadwan/balancebot/internal/balance/app"
	"github.com/aussiebroadwan/balancebot/internal/balance/cli"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
)

func main() {
	open := func(ctx context.Context) (store.Store, error) {
		return app.OpenStore(ctx, app.LoadConfig())
	}

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
