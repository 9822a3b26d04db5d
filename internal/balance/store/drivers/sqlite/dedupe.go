package sqlite

import (
	"context"
	"database/sql"
	"time"
)

type dedupeRepo struct {
	db *sql.DB
}

// A live row is left alone (first write wins); only an expired row is
// replaced, so the affected row count tells whether the id is new.
const seenSQL = `
INSERT INTO dedupe (event_id, first_seen_at_ms)
VALUES (?, ?)
ON CONFLICT (event_id) DO UPDATE SET
    first_seen_at_ms = excluded.first_seen_at_ms
WHERE dedupe.first_seen_at_ms < ?`

func (d *dedupeRepo) Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-ttl).UnixMilli()

	res, err := d.db.ExecContext(ctx, seenSQL, eventID, now.UnixMilli(), cutoff)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}
