// Package lock grants short-lived exclusive claims on work items so only
// one reviewer at a time can act on an item. Locks are ephemeral: TTL
// expiry stands in for explicit failure recovery, and an expired lock is
// indistinguishable from no lock at all.
package lock

import (
	"context"
	"fmt"
	"time"
)

// Grant is a live claim on one work item.
type Grant struct {
	Token     string    `json:"token"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"ownerName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HeldError reports that a different, unexpired owner holds the lock. It
// carries enough for the UI to render "processed by X, expires at T".
type HeldError struct {
	OwnerID   string
	OwnerName string
	ExpiresAt time.Time
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("lock held by %s until %s", e.OwnerName, e.ExpiresAt.Format(time.RFC3339))
}

// Locker serializes decisions on a single work item.
//
// Acquire succeeds when no live lock exists or the requester already owns
// it (idempotent re-acquire returns the same token with a refreshed TTL);
// it fails with *HeldError otherwise. Release is a no-op success when the
// lock is gone or the token does not match: a stale release call must
// never revoke someone else's claim.
type Locker interface {
	Acquire(ctx context.Context, itemID, ownerID, ownerName string) (Grant, error)
	Release(ctx context.Context, itemID, token string) (bool, error)

	// Check verifies that the given token matches a live lock on the
	// item. A missing or expired lock passes: the decision engine's
	// version check is the backstop once a lock has lapsed.
	Check(ctx context.Context, itemID, token string) error

	// Inspect returns the live grant on an item, or nil if none.
	Inspect(ctx context.Context, itemID string) (*Grant, error)
}
