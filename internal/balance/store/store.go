package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrVersionConflict = errors.New("store: version conflict")
)

// Version is the opaque tag returned with a read of the credential. A
// conditional write only succeeds while the stored tag still matches. The
// empty Version means no credential has ever been written.
type Version string

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// redis) implement it and are selected by configuration. All state lives in
// a single logical record plus a dedupe side table, so the sub-repositories
// stay deliberately small.
type Store interface {
	Records() Records
	Dedupe() Dedupe

	// ApplyMigrations prepares the backing schema. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type Records interface {
	// Read returns the current record and the credential version. A missing
	// row is not an error: it reads as the zero Record and the empty Version.
	Read(ctx context.Context) (domain.Record, Version, error)

	// WriteCredential replaces the credential only if its version still
	// equals expected, returning ErrVersionConflict otherwise. Alert and
	// sweep fields are left untouched.
	WriteCredential(ctx context.Context, cred domain.Credential, expected Version) error

	// SaveAlertState overwrites the alert fields (last writer wins). It never
	// changes the credential version.
	SaveAlertState(ctx context.Context, state domain.AlertState) error

	// SaveSweepState overwrites the sweep marker (last writer wins). It never
	// changes the credential version.
	SaveSweepState(ctx context.Context, state domain.SweepState) error
}

type Dedupe interface {
	// Seen reports whether eventID was recorded within the trailing ttl. When
	// it was not, the id is recorded with the current time before returning
	// false. Expired entries are replaced lazily.
	Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}
