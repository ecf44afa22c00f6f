package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLockerMirrorsRedisSemantics(t *testing.T) {
	locker := NewMemoryLocker(2 * time.Minute)
	now := time.Now()
	locker.SetClock(func() time.Time { return now })
	ctx := context.Background()

	grant, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Same owner gets the same token back.
	again, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	if again.Token != grant.Token {
		t.Errorf("expected idempotent re-acquire, got new token")
	}

	// Different owner conflicts while the lock is live.
	_, err = locker.Acquire(ctx, "item-1", "rev-2", "Marcus")
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %v", err)
	}

	// After expiry the lock is logically absent.
	now = now.Add(3 * time.Minute)
	if err := locker.Check(ctx, "item-1", "anything"); err != nil {
		t.Errorf("Check after expiry should pass: %v", err)
	}
	taken, err := locker.Acquire(ctx, "item-1", "rev-2", "Marcus")
	if err != nil {
		t.Fatalf("expected expired lock to be acquirable: %v", err)
	}
	if taken.OwnerID != "rev-2" {
		t.Errorf("expected rev-2 to own the lock, got %q", taken.OwnerID)
	}

	// Stale release never revokes the new owner's claim.
	released, err := locker.Release(ctx, "item-1", grant.Token)
	if err != nil || released {
		t.Errorf("stale release must be a no-op, got released=%v err=%v", released, err)
	}
	if err := locker.Check(ctx, "item-1", taken.Token); err != nil {
		t.Errorf("live token should still check out: %v", err)
	}
}
