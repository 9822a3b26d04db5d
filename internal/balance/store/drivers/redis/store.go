// Package redis keeps the account record in Redis so several replicas of the
// webhook service can share tokens, alert state and the dedupe window.
//
// Layout under the key prefix:
//
//	{prefix}credential    hash: access_token, refresh_token, expires_at_ms, version
//	{prefix}state         hash: alert_level, alert_counter, sweep_last_period
//	{prefix}seen:{id}     string with TTL, one per admitted event
//
// The credential lives in its own hash so alert and sweep writes never trip
// a WATCH held by a concurrent token refresh.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "balancebot:"

// Options holds Redis connection configuration.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New dials Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, opts.KeyPrefix), nil
}

// NewWithClient wraps an existing client. The store takes ownership and
// closes it on Close.
func NewWithClient(client *redis.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) Records() store.Records { return &recordsRepo{s: s} }
func (s *Store) Dedupe() store.Dedupe   { return &dedupeRepo{s: s} }

// ApplyMigrations is a no-op; hashes are created on first write.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) credentialKey() string { return s.keyPrefix + "credential" }
func (s *Store) stateKey() string      { return s.keyPrefix + "state" }
func (s *Store) seenKey(id string) string {
	return s.keyPrefix + "seen:" + id
}

var _ store.Store = (*Store)(nil)
