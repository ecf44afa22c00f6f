package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func pendingItem(id string) WorkItem {
	return WorkItem{
		ID:          id,
		Type:        ItemTypeVideo,
		Title:       "Item " + id,
		Status:      StatusReviewPending,
		SubmittedBy: "author-1",
	}
}

func stagedItem(id string) WorkItem {
	stage := StageScript
	item := pendingItem(id)
	item.Stage = &stage
	return item
}

func TestApplyDecisionIncrementsVersionOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.InsertWorkItem(ctx, pendingItem("vid-1")); err != nil {
		t.Fatalf("InsertWorkItem: %v", err)
	}

	updated, err := s.ApplyDecision(ctx, "vid-1", StatusApproved, 0, "reviewer-1", "approved", "final approval")
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("version = %d, want 1", updated.Version)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("status = %s, want APPROVED", updated.Status)
	}
	if updated.ApprovedAt == nil {
		t.Fatalf("approved_at not set")
	}

	entries, err := s.ListAudit(ctx, "vid-1")
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "approved" {
		t.Fatalf("audit = %+v, want one approved entry", entries)
	}
}

func TestApplyDecisionStaleVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	item := pendingItem("vid-1")
	item.Version = 3
	if err := s.InsertWorkItem(ctx, item); err != nil {
		t.Fatalf("InsertWorkItem: %v", err)
	}

	// A reviewer holding version 2 lost a race somewhere; the item stayed
	// pending, so this is a version conflict, not already-processed.
	_, err := s.ApplyDecision(ctx, "vid-1", StatusApproved, 2, "reviewer-1", "approved", "")
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}

	got, err := s.GetWorkItem(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetWorkItem: %v", err)
	}
	if got.Version != 3 || got.Status != StatusReviewPending {
		t.Fatalf("item mutated on conflict: %+v", got)
	}
}

func TestApplyDecisionAlreadyProcessedWinsOverVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.InsertWorkItem(ctx, pendingItem("vid-1")); err != nil {
		t.Fatalf("InsertWorkItem: %v", err)
	}
	if _, err := s.ApplyDecision(ctx, "vid-1", StatusRejected, 0, "reviewer-1", "rejected", "duplicate"); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	// Second decision arrives with the stale version of a now-terminal
	// item. Terminal status is the stronger signal and must be reported.
	_, err := s.ApplyDecision(ctx, "vid-1", StatusApproved, 0, "reviewer-2", "approved", "")
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
	// Even with the current version the answer stays the same.
	_, err = s.ApplyDecision(ctx, "vid-1", StatusApproved, 1, "reviewer-2", "approved", "")
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("current-version err = %v, want ErrAlreadyProcessed", err)
	}
}

func TestApplyDecisionMissingItem(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.ApplyDecision(context.Background(), "vid-missing", StatusApproved, 0, "reviewer-1", "approved", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentDecisionsExactlyOneWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.InsertWorkItem(ctx, pendingItem("vid-1")); err != nil {
		t.Fatalf("InsertWorkItem: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := StatusApproved
			if i%2 == 1 {
				status = StatusRejected
			}
			_, errs[i] = s.ApplyDecision(ctx, "vid-1", status, 0, "reviewer-1", "decided", "")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1 (conflicts %d)", wins, conflicts)
	}

	got, err := s.GetWorkItem(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetWorkItem: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("version = %d, want 1 after a single decision", got.Version)
	}
}

func TestAdvanceStageKeepsItemPending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.InsertWorkItem(ctx, stagedItem("vid-1")); err != nil {
		t.Fatalf("InsertWorkItem: %v", err)
	}

	advanced, err := s.AdvanceStage(ctx, "vid-1", 0, "reviewer-1", "approved", "stage 1 approval")
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if advanced.Status != StatusReviewPending {
		t.Fatalf("status = %s, want REVIEW_PENDING", advanced.Status)
	}
	if advanced.Stage == nil || *advanced.Stage != StageFinal {
		t.Fatalf("stage = %v, want %d", advanced.Stage, StageFinal)
	}
	if advanced.Version != 1 {
		t.Fatalf("version = %d, want 1", advanced.Version)
	}

	// The stale version that loaded the stage-1 item cannot advance again.
	if _, err := s.AdvanceStage(ctx, "vid-1", 0, "reviewer-2", "approved", "stage 1 approval"); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale advance err = %v, want ErrVersionConflict", err)
	}

	final, err := s.ApplyDecision(ctx, "vid-1", StatusApproved, 1, "reviewer-2", "approved", "final approval")
	if err != nil {
		t.Fatalf("final decision: %v", err)
	}
	if final.Status != StatusApproved || final.Version != 2 {
		t.Fatalf("final item = %+v", final)
	}
}

func TestActivateVersionKeepsSingleActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seed := func(id string, version int, lifecycle string) {
		t.Helper()
		if err := s.InsertPolicyVersion(ctx, PolicyVersion{
			ID: id, DocumentID: "doc-1", Version: version,
			Title: "Terms", Lifecycle: lifecycle,
			PreprocessStatus: PreprocessReady, IndexingStatus: IndexingDone,
		}); err != nil {
			t.Fatalf("InsertPolicyVersion %s: %v", id, err)
		}
	}
	seed("pv-1", 1, LifecycleActive)
	seed("pv-2", 2, LifecyclePending)

	promoted, demoted, err := s.ActivateVersion(ctx, "doc-1", 2)
	if err != nil {
		t.Fatalf("ActivateVersion: %v", err)
	}
	if promoted.Lifecycle != LifecycleActive {
		t.Fatalf("promoted lifecycle = %s", promoted.Lifecycle)
	}
	if demoted == nil || *demoted != 1 {
		t.Fatalf("demoted = %v, want 1", demoted)
	}

	var active int
	versions, err := s.ListPolicyVersions(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListPolicyVersions: %v", err)
	}
	for _, v := range versions {
		if v.Lifecycle == LifecycleActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active versions = %d, want 1", active)
	}
}
