package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	locker, err := NewRedisLocker("redis://"+s.Addr(), 2*time.Minute)
	if err != nil {
		t.Fatalf("failed to create redis locker: %v", err)
	}
	return locker, s
}

func TestAcquireAndInspect(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	grant, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if grant.Token == "" {
		t.Error("expected non-empty token")
	}

	current, err := locker.Inspect(ctx, "item-1")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if current == nil || current.Token != grant.Token {
		t.Errorf("expected live grant with token %q, got %+v", grant.Token, current)
	}
	if current.OwnerName != "Avery" {
		t.Errorf("expected owner name Avery, got %q", current.OwnerName)
	}
}

func TestAcquireConflictIncludesOwner(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	if _, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	_, err := locker.Acquire(ctx, "item-1", "rev-2", "Marcus")
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %v", err)
	}
	if held.OwnerName != "Avery" {
		t.Errorf("expected conflict owner Avery, got %q", held.OwnerName)
	}
	if held.ExpiresAt.IsZero() {
		t.Error("expected conflict to carry expiry")
	}
}

func TestAcquireIdempotentForSameOwner(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	first, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	second, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	if second.Token != first.Token {
		t.Errorf("re-acquire returned a new token: %q vs %q", second.Token, first.Token)
	}
	if second.ExpiresAt.Before(first.ExpiresAt) {
		t.Error("re-acquire should refresh the TTL")
	}
}

func TestAcquireAfterExpiry(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	if _, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	s.FastForward(3 * time.Minute)

	grant, err := locker.Acquire(ctx, "item-1", "rev-2", "Marcus")
	if err != nil {
		t.Fatalf("expected expired lock to be acquirable: %v", err)
	}
	if grant.OwnerID != "rev-2" {
		t.Errorf("expected new owner rev-2, got %q", grant.OwnerID)
	}
}

func TestReleaseTokenMismatchIsNoOp(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	grant, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	released, err := locker.Release(ctx, "item-1", "stale-token")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if released {
		t.Error("mismatched token must not release the lock")
	}

	// The real owner's claim survives.
	if err := locker.Check(ctx, "item-1", grant.Token); err != nil {
		t.Errorf("owner token no longer valid after stale release: %v", err)
	}

	released, err = locker.Release(ctx, "item-1", grant.Token)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !released {
		t.Error("matching token should release the lock")
	}

	// Releasing an already-gone lock is a no-op success.
	released, err = locker.Release(ctx, "item-1", grant.Token)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if released {
		t.Error("second release should report false")
	}
}

func TestCheckPassesWithoutLiveLock(t *testing.T) {
	locker, s := setupTestLocker(t)
	defer locker.Close()
	defer s.Close()

	ctx := context.Background()
	// No lock at all: expired locks are logically absent, so any token
	// passes and the version check is the backstop.
	if err := locker.Check(ctx, "item-1", "whatever"); err != nil {
		t.Errorf("Check without a lock should pass: %v", err)
	}

	if _, err := locker.Acquire(ctx, "item-1", "rev-1", "Avery"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	err := locker.Check(ctx, "item-1", "wrong")
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError for wrong token, got %v", err)
	}

	s.FastForward(3 * time.Minute)
	if err := locker.Check(ctx, "item-1", "wrong"); err != nil {
		t.Errorf("Check after expiry should pass: %v", err)
	}
}
