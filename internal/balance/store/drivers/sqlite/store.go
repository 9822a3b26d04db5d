package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	_ "modernc.org/sqlite"
)

// Default composite key of the single account state row.
const (
	DefaultPartitionKey = "monzo"
	DefaultRowKey       = "bot"
)

type Store struct {
	db  *sql.DB
	dsn string

	partitionKey string
	rowKey       string
}

// Option customises a Store.
type Option func(*Store)

// WithRowKey overrides the composite key of the account state row.
func WithRowKey(partitionKey, rowKey string) Option {
	return func(s *Store) {
		if partitionKey != "" {
			s.partitionKey = partitionKey
		}
		if rowKey != "" {
			s.rowKey = rowKey
		}
	}
}

func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: :memory: databases are per connection and the pragma
	// below only applies to the connection it ran on.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:           db,
		dsn:          dsn,
		partitionKey: DefaultPartitionKey,
		rowKey:       DefaultRowKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Records() store.Records { return &recordsRepo{s: s} }
func (s *Store) Dedupe() store.Dedupe   { return &dedupeRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

var _ store.Store = (*Store)(nil)
