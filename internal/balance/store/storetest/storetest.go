// Package storetest holds behaviour checks every store driver must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a driver. open must return a fresh, migrated, empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("empty read", func(t *testing.T) {
		s := open(t)
		rec, version, err := s.Records().Read(context.Background())
		require.NoError(t, err)
		require.Equal(t, domain.Record{}, rec)
		require.Equal(t, store.Version(""), version)
	})

	t.Run("credential compare and swap", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		records := s.Records()

		first := domain.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.UnixMilli(1_700_000_000_000)}
		require.NoError(t, records.WriteCredential(ctx, first, ""))

		rec, v1, err := records.Read(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, v1)
		require.Equal(t, "a1", rec.Credential.AccessToken)
		require.Equal(t, "r1", rec.Credential.RefreshToken)
		require.True(t, first.ExpiresAt.Equal(rec.Credential.ExpiresAt))

		// A second writer that also saw the empty record loses.
		err = records.WriteCredential(ctx, domain.Credential{AccessToken: "x"}, "")
		require.ErrorIs(t, err, store.ErrVersionConflict)

		second := domain.Credential{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.UnixMilli(1_700_000_600_000)}
		require.NoError(t, records.WriteCredential(ctx, second, v1))

		rec, v2, err := records.Read(ctx)
		require.NoError(t, err)
		require.NotEqual(t, v1, v2)
		require.Equal(t, "a2", rec.Credential.AccessToken)

		err = records.WriteCredential(ctx, domain.Credential{AccessToken: "stale"}, v1)
		require.ErrorIs(t, err, store.ErrVersionConflict)

		rec, _, err = records.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, "a2", rec.Credential.AccessToken)
	})

	t.Run("alert and sweep saves leave the version alone", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		records := s.Records()

		// Saving alert state before any credential exists must not block
		// the first credential write.
		require.NoError(t, records.SaveAlertState(ctx, domain.AlertState{Level: domain.SeverityWarning, Counter: 4}))
		_, v0, err := records.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, store.Version(""), v0)

		require.NoError(t, records.WriteCredential(ctx, domain.Credential{AccessToken: "a", RefreshToken: "r"}, ""))
		_, v1, err := records.Read(ctx)
		require.NoError(t, err)

		require.NoError(t, records.SaveAlertState(ctx, domain.AlertState{Level: domain.SeverityCritical, Counter: 1}))
		require.NoError(t, records.SaveSweepState(ctx, domain.SweepState{LastPeriod: "2026-10"}))

		rec, v2, err := records.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, v1, v2)
		require.Equal(t, domain.AlertState{Level: domain.SeverityCritical, Counter: 1}, rec.Alert)
		require.Equal(t, "2026-10", rec.Sweep.LastPeriod)
		require.Equal(t, "a", rec.Credential.AccessToken)
	})

	t.Run("concurrent writers with the same version", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		records := s.Records()

		require.NoError(t, records.WriteCredential(ctx, domain.Credential{AccessToken: "seed"}, ""))
		_, v, err := records.Read(ctx)
		require.NoError(t, err)

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := records.WriteCredential(ctx, domain.Credential{AccessToken: "next"}, v)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, store.ErrVersionConflict)
			}()
		}
		wg.Wait()
		require.Equal(t, 1, succeeded)
	})

	t.Run("dedupe window", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		dedupe := s.Dedupe()

		seen, err := dedupe.Seen(ctx, "tx_1", time.Minute)
		require.NoError(t, err)
		require.False(t, seen)

		seen, err = dedupe.Seen(ctx, "tx_1", time.Minute)
		require.NoError(t, err)
		require.True(t, seen)

		seen, err = dedupe.Seen(ctx, "tx_2", time.Minute)
		require.NoError(t, err)
		require.False(t, seen)
	})

	t.Run("dedupe entries expire", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		dedupe := s.Dedupe()

		ttl := 100 * time.Millisecond
		seen, err := dedupe.Seen(ctx, "tx_exp", ttl)
		require.NoError(t, err)
		require.False(t, seen)

		require.Eventually(t, func() bool {
			seen, err := dedupe.Seen(ctx, "tx_exp", ttl)
			return err == nil && !seen
		}, 3*time.Second, 50*time.Millisecond)
	})

	t.Run("ping", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}
