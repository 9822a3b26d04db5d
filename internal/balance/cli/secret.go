package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/balancebot/pkg/cryptox"
)

func NewSecretCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Webhook secret helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a random value suitable for WEBHOOK_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to generate secret", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	})

	return cmd
}
