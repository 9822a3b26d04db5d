package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

// DefaultSeenTTL is the dedupe window for webhook event ids.
const DefaultSeenTTL = 10 * time.Minute

// AdmissionGate drops events whose id was already admitted within the
// trailing window. The provider retries deliveries, so the same event can
// arrive more than once.
type AdmissionGate struct {
	Store store.Store

	// FailClosed rejects events when the dedupe store is unavailable. By
	// default such events are processed (duplicates are possible).
	FailClosed bool
}

// Admit reports whether eventID is a duplicate. A novel id is recorded
// before returning. An empty id cannot be deduplicated and is always novel.
func (g *AdmissionGate) Admit(ctx context.Context, eventID string, ttl time.Duration) (duplicate bool, err error) {
	if eventID == "" {
		return false, nil
	}
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}

	seen, err := g.Store.Dedupe().Seen(ctx, eventID, ttl)
	if err != nil {
		if g.FailClosed {
			return false, fmt.Errorf("%w: dedupe check: %w", ErrPersistence, err)
		}
		slogx.FromContext(ctx).Warn("dedupe store unavailable, admitting event",
			slog.String("event_id", eventID),
			slog.Any("error", err),
		)
		return false, nil
	}
	return seen, nil
}
