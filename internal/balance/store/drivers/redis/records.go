package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/redis/go-redis/v9"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldExpiresAt    = "expires_at_ms"
	fieldVersion      = "version"

	fieldAlertLevel   = "alert_level"
	fieldAlertCounter = "alert_counter"
	fieldSweepPeriod  = "sweep_last_period"
)

type recordsRepo struct {
	s *Store
}

func (r *recordsRepo) Read(ctx context.Context) (domain.Record, store.Version, error) {
	var credCmd, stateCmd *redis.MapStringStringCmd

	_, err := r.s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		credCmd = pipe.HGetAll(ctx, r.s.credentialKey())
		stateCmd = pipe.HGetAll(ctx, r.s.stateKey())
		return nil
	})
	if err != nil {
		return domain.Record{}, "", fmt.Errorf("failed to read record: %w", err)
	}

	cred := credCmd.Val()
	state := stateCmd.Val()

	var rec domain.Record
	rec.Credential.AccessToken = cred[fieldAccessToken]
	rec.Credential.RefreshToken = cred[fieldRefreshToken]
	if ms := parseInt(cred[fieldExpiresAt]); ms > 0 {
		rec.Credential.ExpiresAt = time.UnixMilli(ms)
	}
	rec.Alert.Level = domain.Severity(parseInt(state[fieldAlertLevel]))
	rec.Alert.Counter = int(parseInt(state[fieldAlertCounter]))
	rec.Sweep.LastPeriod = state[fieldSweepPeriod]

	return rec, store.Version(cred[fieldVersion]), nil
}

func (r *recordsRepo) WriteCredential(ctx context.Context, cred domain.Credential, expected store.Version) error {
	key := r.s.credentialKey()

	expiresMs := int64(0)
	if !cred.ExpiresAt.IsZero() {
		expiresMs = cred.ExpiresAt.UnixMilli()
	}

	err := r.s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldVersion).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if store.Version(current) != expected {
			return store.ErrVersionConflict
		}

		next := parseInt(current) + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]any{
				fieldAccessToken:  cred.AccessToken,
				fieldRefreshToken: cred.RefreshToken,
				fieldExpiresAt:    expiresMs,
				fieldVersion:      strconv.FormatInt(next, 10),
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrVersionConflict
	}
	return err
}

func (r *recordsRepo) SaveAlertState(ctx context.Context, state domain.AlertState) error {
	return r.s.client.HSet(ctx, r.s.stateKey(), map[string]any{
		fieldAlertLevel:   int(state.Level),
		fieldAlertCounter: state.Counter,
	}).Err()
}

func (r *recordsRepo) SaveSweepState(ctx context.Context, state domain.SweepState) error {
	return r.s.client.HSet(ctx, r.s.stateKey(), fieldSweepPeriod, state.LastPeriod).Err()
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
