package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
)

type recordsRepo struct {
	s *Store
}

const readRecordSQL = `
SELECT access_token, refresh_token, expires_at_ms, credential_version,
       alert_level, alert_counter, sweep_last_period
FROM account_state
WHERE partition_key = ? AND row_key = ?`

func (r *recordsRepo) Read(ctx context.Context) (domain.Record, store.Version, error) {
	var (
		rec       domain.Record
		expiresMs int64
		version   int64
		level     int
	)

	err := r.s.db.QueryRowContext(ctx, readRecordSQL, r.s.partitionKey, r.s.rowKey).Scan(
		&rec.Credential.AccessToken,
		&rec.Credential.RefreshToken,
		&expiresMs,
		&version,
		&level,
		&rec.Alert.Counter,
		&rec.Sweep.LastPeriod,
	)
	if err != nil {
		if errors.Is(mapNotFound(err), store.ErrNotFound) {
			return domain.Record{}, "", nil
		}
		return domain.Record{}, "", err
	}

	if expiresMs > 0 {
		rec.Credential.ExpiresAt = time.UnixMilli(expiresMs)
	}
	rec.Alert.Level = domain.Severity(level)

	return rec, encodeVersion(version), nil
}

// The first credential write may race with an alert or sweep save that
// already created the row, so it upserts but only over version 0.
const insertCredentialSQL = `
INSERT INTO account_state (partition_key, row_key, access_token, refresh_token, expires_at_ms, credential_version)
VALUES (?, ?, ?, ?, ?, 1)
ON CONFLICT (partition_key, row_key) DO UPDATE SET
    access_token       = excluded.access_token,
    refresh_token      = excluded.refresh_token,
    expires_at_ms      = excluded.expires_at_ms,
    credential_version = 1,
    updated_at         = CURRENT_TIMESTAMP
WHERE account_state.credential_version = 0`

const updateCredentialSQL = `
UPDATE account_state SET
    access_token       = ?,
    refresh_token      = ?,
    expires_at_ms      = ?,
    credential_version = credential_version + 1,
    updated_at         = CURRENT_TIMESTAMP
WHERE partition_key = ? AND row_key = ? AND credential_version = ?`

func (r *recordsRepo) WriteCredential(ctx context.Context, cred domain.Credential, expected store.Version) error {
	expiresMs := int64(0)
	if !cred.ExpiresAt.IsZero() {
		expiresMs = cred.ExpiresAt.UnixMilli()
	}

	version, err := decodeVersion(expected)
	if err != nil {
		return err
	}

	var affected int64
	if version == 0 {
		res, err := r.s.db.ExecContext(ctx, insertCredentialSQL,
			r.s.partitionKey, r.s.rowKey, cred.AccessToken, cred.RefreshToken, expiresMs)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
	} else {
		res, err := r.s.db.ExecContext(ctx, updateCredentialSQL,
			cred.AccessToken, cred.RefreshToken, expiresMs, r.s.partitionKey, r.s.rowKey, version)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
	}

	if affected == 0 {
		return store.ErrVersionConflict
	}
	return nil
}

const saveAlertSQL = `
INSERT INTO account_state (partition_key, row_key, alert_level, alert_counter)
VALUES (?, ?, ?, ?)
ON CONFLICT (partition_key, row_key) DO UPDATE SET
    alert_level   = excluded.alert_level,
    alert_counter = excluded.alert_counter,
    updated_at    = CURRENT_TIMESTAMP`

func (r *recordsRepo) SaveAlertState(ctx context.Context, state domain.AlertState) error {
	_, err := r.s.db.ExecContext(ctx, saveAlertSQL,
		r.s.partitionKey, r.s.rowKey, int(state.Level), state.Counter)
	return err
}

const saveSweepSQL = `
INSERT INTO account_state (partition_key, row_key, sweep_last_period)
VALUES (?, ?, ?)
ON CONFLICT (partition_key, row_key) DO UPDATE SET
    sweep_last_period = excluded.sweep_last_period,
    updated_at        = CURRENT_TIMESTAMP`

func (r *recordsRepo) SaveSweepState(ctx context.Context, state domain.SweepState) error {
	_, err := r.s.db.ExecContext(ctx, saveSweepSQL, r.s.partitionKey, r.s.rowKey, state.LastPeriod)
	return err
}

func encodeVersion(v int64) store.Version {
	if v == 0 {
		return ""
	}
	return store.Version(strconv.FormatInt(v, 10))
}

func decodeVersion(v store.Version) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlite: malformed version %q: %w", v, store.ErrVersionConflict)
	}
	return n, nil
}
