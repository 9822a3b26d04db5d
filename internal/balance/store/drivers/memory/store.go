// Package memory is an in-process store for local development and tests.
// State does not survive a restart and is not shared between processes.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
)

type Store struct {
	mu      sync.Mutex
	record  domain.Record
	version int64
	seen    map[string]time.Time

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (s *Store) Records() store.Records { return (*recordsRepo)(s) }
func (s *Store) Dedupe() store.Dedupe   { return (*dedupeRepo)(s) }

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func (s *Store) currentVersion() store.Version {
	if s.version == 0 {
		return ""
	}
	return store.Version(strconv.FormatInt(s.version, 10))
}

type recordsRepo Store

func (r *recordsRepo) Read(ctx context.Context) (domain.Record, store.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record, (*Store)(r).currentVersion(), nil
}

func (r *recordsRepo) WriteCredential(ctx context.Context, cred domain.Credential, expected store.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if (*Store)(r).currentVersion() != expected {
		return store.ErrVersionConflict
	}
	r.record.Credential = cred
	r.version++
	return nil
}

func (r *recordsRepo) SaveAlertState(ctx context.Context, state domain.AlertState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Alert = state
	return nil
}

func (r *recordsRepo) SaveSweepState(ctx context.Context, state domain.SweepState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Sweep = state
	return nil
}

type dedupeRepo Store

func (d *dedupeRepo) Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, at := range d.seen {
		if now.Sub(at) > ttl {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[eventID]; ok {
		return true, nil
	}
	d.seen[eventID] = now
	return false, nil
}

var _ store.Store = (*Store)(nil)
