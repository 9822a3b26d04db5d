package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
)

// SweepStatus reports whether the current month has been swept.
type SweepStatus struct {
	LastPeriod    string `json:"last_period,omitempty"`
	CurrentPeriod string `json:"current_period"`
	Due           bool   `json:"due"`
}

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Inspect the monthly commitments sweep",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the last swept month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return rootOpts.withStore(ctx, func(st store.Store) error {
				rec, _, err := st.Records().Read(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read state", err)
				}

				status := SweepStatus{
					LastPeriod:    rec.Sweep.LastPeriod,
					CurrentPeriod: domain.PeriodOf(time.Now()),
				}
				status.Due = status.LastPeriod != status.CurrentPeriod

				return render(cmd.OutOrStdout(), rootOpts.Format, status, func(w io.Writer) {
					fmt.Fprintf(w, "last swept:  %s\n", orDash(status.LastPeriod))
					fmt.Fprintf(w, "current:     %s\n", status.CurrentPeriod)
					fmt.Fprintf(w, "due:         %t\n", status.Due)
				})
			})
		},
	})

	return cmd
}
