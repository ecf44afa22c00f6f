package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory store with the same decision and lifecycle
// semantics as PostgresStore. It backs tests and dev mode when no
// DATABASE_URL is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]User
	items    map[string]WorkItem
	audit    []AuditEntry
	versions map[string]PolicyVersion // key: version ID
	auditSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]User),
		items:    make(map[string]WorkItem),
		versions: make(map[string]PolicyVersion),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// ---------------------------------------------------------------------------
// Users

func (s *MemoryStore) CreateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("insert user: email %q already registered", user.Email)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// ---------------------------------------------------------------------------
// Work items

func (s *MemoryStore) GetWorkItem(_ context.Context, itemID string) (WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return WorkItem{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) ListWorkItems(_ context.Context) ([]WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]WorkItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.After(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *MemoryStore) InsertWorkItem(_ context.Context, item WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return nil
	}
	if item.SubmittedAt.IsZero() {
		item.SubmittedAt = time.Now()
	}
	s.items[item.ID] = item
	return nil
}

// ApplyDecision mirrors the Postgres transaction: version and status are
// re-checked under the write lock, so concurrent decisions on the same
// item linearize and at most one succeeds per version.
func (s *MemoryStore) ApplyDecision(_ context.Context, itemID string, newStatus string, expectedVersion int64, actor, action, detail string) (WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return WorkItem{}, ErrNotFound
	}
	if item.Status != StatusReviewPending {
		return WorkItem{}, ErrAlreadyProcessed
	}
	if item.Version != expectedVersion {
		return WorkItem{}, ErrVersionConflict
	}

	now := time.Now()
	item.Status = newStatus
	item.Version++
	switch newStatus {
	case StatusApproved:
		if item.ApprovedAt == nil {
			item.ApprovedAt = &now
		}
	case StatusRejected:
		if item.RejectedAt == nil {
			item.RejectedAt = &now
		}
	}
	s.items[itemID] = item
	s.appendAuditLocked(AuditEntry{ItemID: itemID, Actor: actor, Action: action, Detail: detail})
	return item, nil
}

// AdvanceStage mirrors the Postgres stage advance: the stage moves
// forward and the version increments while the item stays in review.
func (s *MemoryStore) AdvanceStage(_ context.Context, itemID string, expectedVersion int64, actor, action, detail string) (WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return WorkItem{}, ErrNotFound
	}
	if item.Status != StatusReviewPending {
		return WorkItem{}, ErrAlreadyProcessed
	}
	if item.Version != expectedVersion {
		return WorkItem{}, ErrVersionConflict
	}
	if item.Stage == nil {
		return WorkItem{}, fmt.Errorf("advance stage on %s: item is not staged", itemID)
	}

	next := *item.Stage + 1
	item.Stage = &next
	item.Version++
	s.items[itemID] = item
	s.appendAuditLocked(AuditEntry{ItemID: itemID, Actor: actor, Action: action, Detail: detail})
	return item, nil
}

// ---------------------------------------------------------------------------
// Audit log

func (s *MemoryStore) appendAuditLocked(entry AuditEntry) {
	s.auditSeq++
	entry.ID = s.auditSeq
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	s.audit = append(s.audit, entry)
}

func (s *MemoryStore) AppendAudit(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAuditLocked(entry)
	return nil
}

func (s *MemoryStore) ListAudit(_ context.Context, itemID string) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]AuditEntry, 0)
	for _, entry := range s.audit {
		if entry.ItemID == itemID {
			entries = append(entries, entry)
		}
	}
	// Newest first for display.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].At.Equal(entries[j].At) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].At.After(entries[j].At)
	})
	return entries, nil
}

func (s *MemoryStore) ItemIDsWithActor(_ context.Context, actor string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, entry := range s.audit {
		if entry.Actor == actor {
			ids[entry.ItemID] = struct{}{}
		}
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Policy document versions

func (s *MemoryStore) InsertPolicyVersion(_ context.Context, v PolicyVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.versions[v.ID]; exists {
		return fmt.Errorf("insert policy version: %q already exists", v.ID)
	}
	for _, existing := range s.versions {
		if existing.DocumentID == v.DocumentID && existing.Version == v.Version {
			return fmt.Errorf("insert policy version: %s v%d already exists", v.DocumentID, v.Version)
		}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	s.versions[v.ID] = v
	return nil
}

func (s *MemoryStore) findLocked(documentID string, version int) (PolicyVersion, bool) {
	for _, v := range s.versions {
		if v.DocumentID == documentID && v.Version == version {
			return v, true
		}
	}
	return PolicyVersion{}, false
}

func (s *MemoryStore) GetPolicyVersion(_ context.Context, documentID string, version int) (PolicyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.findLocked(documentID, version)
	if !ok {
		return PolicyVersion{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) GetPolicyVersionByID(_ context.Context, versionID string) (PolicyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[versionID]
	if !ok {
		return PolicyVersion{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) ListPolicyVersions(_ context.Context, documentID string) ([]PolicyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := make([]PolicyVersion, 0)
	for _, v := range s.versions {
		if v.DocumentID == documentID {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	return versions, nil
}

func (s *MemoryStore) MarkVersionPending(_ context.Context, documentID string, version int, workItemID string) (PolicyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.findLocked(documentID, version)
	if !ok {
		return PolicyVersion{}, ErrNotFound
	}
	if v.Lifecycle != LifecycleDraft {
		return PolicyVersion{}, ErrLifecycleConflict
	}
	v.Lifecycle = LifecyclePending
	v.WorkItemID = workItemID
	s.versions[v.ID] = v
	return v, nil
}

func (s *MemoryStore) ActivateVersion(_ context.Context, documentID string, version int) (PolicyVersion, *int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.findLocked(documentID, version)
	if !ok {
		return PolicyVersion{}, nil, ErrNotFound
	}
	if target.Lifecycle != LifecyclePending && target.Lifecycle != LifecycleArchived {
		return PolicyVersion{}, nil, ErrLifecycleConflict
	}

	// Demote and promote under one lock hold: the single-ACTIVE invariant
	// never observes an intermediate state.
	var demoted *int
	for id, v := range s.versions {
		if v.DocumentID == documentID && v.Lifecycle == LifecycleActive && v.Version != version {
			v.Lifecycle = LifecycleArchived
			s.versions[id] = v
			demotedVersion := v.Version
			demoted = &demotedVersion
		}
	}

	now := time.Now()
	target.Lifecycle = LifecycleActive
	if target.DecidedAt == nil {
		target.DecidedAt = &now
	}
	s.versions[target.ID] = target
	return target, demoted, nil
}

func (s *MemoryStore) RejectPolicyVersion(_ context.Context, documentID string, version int) (PolicyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.findLocked(documentID, version)
	if !ok {
		return PolicyVersion{}, ErrNotFound
	}
	if v.Lifecycle != LifecyclePending {
		return PolicyVersion{}, ErrLifecycleConflict
	}
	now := time.Now()
	v.Lifecycle = LifecycleRejected
	if v.DecidedAt == nil {
		v.DecidedAt = &now
	}
	s.versions[v.ID] = v
	return v, nil
}

func (s *MemoryStore) SetIndexingStatus(_ context.Context, versionID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return ErrNotFound
	}
	v.IndexingStatus = status
	s.versions[versionID] = v
	return nil
}

func (s *MemoryStore) SetIndexingStatusIf(_ context.Context, versionID, expected, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return false, ErrNotFound
	}
	if v.IndexingStatus != expected {
		return false, nil
	}
	v.IndexingStatus = status
	s.versions[versionID] = v
	return true, nil
}

func (s *MemoryStore) SetPreprocessStatus(_ context.Context, versionID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return ErrNotFound
	}
	v.PreprocessStatus = status
	s.versions[versionID] = v
	return nil
}
