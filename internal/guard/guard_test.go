package guard

import (
	"testing"
	"time"

	"verdict/api/internal/lock"
	"verdict/api/internal/store"
)

func pendingItem() *store.WorkItem {
	return &store.WorkItem{ID: "item-1", Status: store.StatusReviewPending, Version: 3}
}

func TestEvaluateAllowsWhenLockedAndClear(t *testing.T) {
	v := Evaluate(Input{Item: pendingItem(), Phase: PhaseLocked})
	if !v.ApproveAllowed || !v.RejectAllowed {
		t.Fatalf("expected both controls enabled, got %+v", v)
	}
	if len(v.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", v.Reasons)
	}
}

func TestEvaluateNoSelection(t *testing.T) {
	v := Evaluate(Input{})
	if v.ApproveAllowed || v.RejectAllowed {
		t.Fatal("no selection must disable both controls")
	}
	if len(v.Reasons) != 1 || v.Reasons[0].Code != ReasonNoSelection {
		t.Errorf("expected NO_SELECTION headline, got %v", v.Reasons)
	}
}

func TestEvaluateBlockerPrecedence(t *testing.T) {
	// Everything wrong at once: contention must win the headline, but
	// every applicable reason is still listed.
	item := pendingItem()
	item.Status = store.StatusApproved
	v := Evaluate(Input{
		Item: item,
		Lock: &lock.Grant{OwnerName: "Marcus", ExpiresAt: time.Now().Add(time.Minute)},
		Phase:            PhaseBlocked,
		OverlayOpen:      true,
		DecisionInFlight: true,
	})
	if v.ApproveAllowed || v.RejectAllowed {
		t.Fatal("expected both controls disabled")
	}
	wantOrder := []string{ReasonLockContention, ReasonOverlayOpen, ReasonDecisionInFlight, ReasonNotPending}
	if len(v.Reasons) != len(wantOrder) {
		t.Fatalf("expected %d reasons, got %v", len(wantOrder), v.Reasons)
	}
	for i, code := range wantOrder {
		if v.Reasons[i].Code != code {
			t.Errorf("reason %d: expected %s, got %s", i, code, v.Reasons[i].Code)
		}
	}
}

func TestEvaluateContentionMessageNamesOwner(t *testing.T) {
	v := Evaluate(Input{
		Item:  pendingItem(),
		Phase: PhaseBlocked,
		Lock:  &lock.Grant{OwnerName: "Marcus", ExpiresAt: time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)},
	})
	if v.Reasons[0].Tone != ToneBlocking {
		t.Errorf("contention should be blocking, got %s", v.Reasons[0].Tone)
	}
	if got := v.Reasons[0].Message; got == "" || got == "Another reviewer is processing this item." {
		t.Errorf("expected message naming the owner, got %q", got)
	}
}

func TestEvaluateTerminalStatusBlocks(t *testing.T) {
	item := pendingItem()
	item.Status = store.StatusRejected
	v := Evaluate(Input{Item: item, Phase: PhaseLocked})
	if v.ApproveAllowed || v.RejectAllowed {
		t.Fatal("terminal status must disable decisions")
	}
	if v.Reasons[0].Code != ReasonNotPending {
		t.Errorf("expected STATUS_NOT_PENDING, got %v", v.Reasons)
	}
}

func TestSequencerStaleness(t *testing.T) {
	s := NewSequencer()

	first := s.Next("decision")
	if s.Stale("decision", first) {
		t.Error("latest generation must not be stale")
	}

	second := s.Next("decision")
	if !s.Stale("decision", first) {
		t.Error("superseded generation must be stale")
	}
	if s.Stale("decision", second) {
		t.Error("current generation must not be stale")
	}

	// Classes advance independently.
	lockGen := s.Next("lock")
	s.Next("decision")
	if s.Stale("lock", lockGen) {
		t.Error("other classes must not invalidate this one")
	}
	if s.Current("lock") != lockGen {
		t.Errorf("expected lock generation %d, got %d", lockGen, s.Current("lock"))
	}
}
