package repository

import (
	"context"

	presence "vibecheck/internal/pkg/presence/domain"
)

// PresenceRepository defines the durable row store for presence data.
// All timestamps are epoch milliseconds; "cutoff" parameters compare against
// the last_seen column.
type PresenceRepository interface {
	// ListActive returns all rows with last_seen strictly newer than cutoff,
	// keyed by user id. Result size is unbounded; callers rely on the
	// staleness window keeping it small in practice.
	ListActive(ctx context.Context, cutoff int64) (map[string]presence.UserPresence, error)

	// Upsert writes or overwrites the full row for u.ID.
	Upsert(ctx context.Context, u presence.UserPresence) error

	// Touch updates last_seen for id without changing name or vibe.
	// A missing row is a silent no-op.
	Touch(ctx context.Context, id string, lastSeen int64) error

	// Delete removes the row unconditionally. Deleting an absent row is not
	// an error.
	Delete(ctx context.Context, id string) error

	// DeleteStale removes rows at or older than cutoff, returning how many
	// were removed. Storage hygiene only: active listings already filter by
	// recency at read time.
	DeleteStale(ctx context.Context, cutoff int64) (int64, error)
}
