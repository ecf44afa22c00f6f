package lock

import (
	"context"
	"sync"
	"time"

	"verdict/api/internal/util"
)

// MemoryLocker is an in-process Locker with the same semantics as the
// Redis implementation. Used in tests and dev mode.
type MemoryLocker struct {
	mu     sync.Mutex
	ttl    time.Duration
	grants map[string]Grant
	now    func() time.Time
}

func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return &MemoryLocker{
		ttl:    ttl,
		grants: make(map[string]Grant),
		now:    time.Now,
	}
}

// SetClock overrides the time source; tests use it to expire locks.
func (l *MemoryLocker) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *MemoryLocker) liveLocked(itemID string) (Grant, bool) {
	grant, ok := l.grants[itemID]
	if !ok {
		return Grant{}, false
	}
	if !l.now().Before(grant.ExpiresAt) {
		delete(l.grants, itemID)
		return Grant{}, false
	}
	return grant, true
}

func (l *MemoryLocker) Acquire(_ context.Context, itemID, ownerID, ownerName string) (Grant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current, ok := l.liveLocked(itemID); ok {
		if current.OwnerID != ownerID {
			return Grant{}, &HeldError{OwnerID: current.OwnerID, OwnerName: current.OwnerName, ExpiresAt: current.ExpiresAt}
		}
		current.ExpiresAt = l.now().Add(l.ttl)
		l.grants[itemID] = current
		return current, nil
	}

	grant := Grant{
		Token:     util.NewID("lck"),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		ExpiresAt: l.now().Add(l.ttl),
	}
	l.grants[itemID] = grant
	return grant, nil
}

func (l *MemoryLocker) Release(_ context.Context, itemID, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.liveLocked(itemID)
	if !ok || current.Token != token {
		return false, nil
	}
	delete(l.grants, itemID)
	return true, nil
}

func (l *MemoryLocker) Check(_ context.Context, itemID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.liveLocked(itemID)
	if !ok {
		return nil
	}
	if current.Token != token {
		return &HeldError{OwnerID: current.OwnerID, OwnerName: current.OwnerName, ExpiresAt: current.ExpiresAt}
	}
	return nil
}

func (l *MemoryLocker) Inspect(_ context.Context, itemID string) (*Grant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.liveLocked(itemID)
	if !ok {
		return nil, nil
	}
	grant := current
	return &grant, nil
}
