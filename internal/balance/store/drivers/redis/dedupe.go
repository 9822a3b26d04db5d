package redis

import (
	"context"
	"fmt"
	"time"
)

type dedupeRepo struct {
	s *Store
}

// Seen uses SET NX with the window as TTL, so the check and the record are
// a single atomic command and expiry is left to Redis.
func (d *dedupeRepo) Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	set, err := d.s.client.SetNX(ctx, d.s.seenKey(eventID), time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	return !set, nil
}
