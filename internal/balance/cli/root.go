package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/balancebot/internal/balance/store"
)

// StoreOpener opens the state store the commands operate on.
type StoreOpener func(ctx context.Context) (store.Store, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"

	open StoreOpener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for balancectl.
func NewRootCommand(open StoreOpener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "balancectl",
		Short: "Inspect and repair balancebot state",
		Long: `Operate on the state store shared by balancebot replicas.

The store is selected with the same environment variables as the server
(STATE_BACKEND, DATABASE_FILE, REDIS_ADDR, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewSecretCommand(opts))

	return cmd
}

// withStore opens the store for the duration of fn.
func (o *RootOptions) withStore(ctx context.Context, fn func(st store.Store) error) error {
	st, err := o.open(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open state store", err)
	}
	defer st.Close()

	return fn(st)
}
