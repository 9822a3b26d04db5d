package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/cryptox"
)

// StateView is the printable form of the stored record. Tokens are only
// ever shown as fingerprints.
type StateView struct {
	Version          string    `json:"version"`
	AccessToken      string    `json:"access_token_fingerprint,omitempty"`
	RefreshToken     string    `json:"refresh_token_fingerprint,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	AccessTokenValid bool      `json:"access_token_valid"`
	AlertLevel       string    `json:"alert_level"`
	AlertCounter     int       `json:"alert_counter"`
	SweepLastPeriod  string    `json:"sweep_last_period,omitempty"`
}

func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show or modify the stored credential and alert state",
	}

	cmd.AddCommand(newStateShowCommand(rootOpts))
	cmd.AddCommand(newStateSeedCommand(rootOpts))
	cmd.AddCommand(newStateResetAlertCommand(rootOpts))

	return cmd
}

func newStateShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				rec, version, err := st.Records().Read(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read state", err)
				}

				view := StateView{
					Version:          string(version),
					AccessToken:      cryptox.FingerprintToken(rec.Credential.AccessToken),
					RefreshToken:     cryptox.FingerprintToken(rec.Credential.RefreshToken),
					ExpiresAt:        rec.Credential.ExpiresAt,
					AccessTokenValid: rec.Credential.ValidAt(time.Now()),
					AlertLevel:       rec.Alert.Level.String(),
					AlertCounter:     rec.Alert.Counter,
					SweepLastPeriod:  rec.Sweep.LastPeriod,
				}

				return render(cmd.OutOrStdout(), opts.Format, view, func(w io.Writer) {
					fmt.Fprintf(w, "version:        %s\n", orDash(view.Version))
					fmt.Fprintf(w, "access token:   %s (valid: %t)\n", orDash(view.AccessToken), view.AccessTokenValid)
					fmt.Fprintf(w, "refresh token:  %s\n", orDash(view.RefreshToken))
					if !view.ExpiresAt.IsZero() {
						fmt.Fprintf(w, "expires at:     %s\n", view.ExpiresAt.UTC().Format(time.RFC3339))
					}
					fmt.Fprintf(w, "alert:          %s (counter %d)\n", view.AlertLevel, view.AlertCounter)
					fmt.Fprintf(w, "last sweep:     %s\n", orDash(view.SweepLastPeriod))
				})
			})
		},
	}
}

func newStateSeedCommand(opts *RootOptions) *cobra.Command {
	var refreshToken string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored credential with a refresh token",
		Long: `Store a refresh token obtained out of band, for example after the
provider revoked the previous one. The access token is cleared so the next
webhook refreshes it. The write is conditional on the version read, so it
fails rather than clobbering a concurrent refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withStore(ctx, func(st store.Store) error {
				_, version, err := st.Records().Read(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read state", err)
				}

				cred := domain.Credential{RefreshToken: refreshToken}
				if err := st.Records().WriteCredential(ctx, cred, version); err != nil {
					if errors.Is(err, store.ErrVersionConflict) {
						return WrapExitError(ExitFailure, "credential changed while seeding, retry", err)
					}
					return WrapExitError(ExitCommandError, "failed to write credential", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "seeded refresh token %s\n", cryptox.FingerprintToken(refreshToken))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token to store (required)")
	_ = cmd.MarkFlagRequired("refresh-token")

	return cmd
}

func newStateResetAlertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-alert",
		Short: "Reset the alert level to ok",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withStore(ctx, func(st store.Store) error {
				if err := st.Records().SaveAlertState(ctx, domain.AlertState{}); err != nil {
					return WrapExitError(ExitCommandError, "failed to reset alert state", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "alert state reset")
				return nil
			})
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
