// Package guard derives, from client-visible state alone, whether the
// approve and reject controls should be enabled for the selected work
// item. It is a pure function over its input: no I/O, no clock, no
// hidden state, so the UI can recompute it on every state change and it
// always agrees with what the server would independently decide. It is
// an optimization, never the source of truth.
package guard

import (
	"fmt"

	"verdict/api/internal/lock"
	"verdict/api/internal/store"
)

// LockPhase is where the client is in its lock-acquisition flow.
type LockPhase string

const (
	PhaseIdle    LockPhase = "idle"
	PhaseLocking LockPhase = "locking"
	PhaseLocked  LockPhase = "locked"
	PhaseBlocked LockPhase = "blocked"
)

// Reason tones, ordered from least to most severe.
const (
	ToneInfo     = "info"
	ToneWarning  = "warning"
	ToneBlocking = "blocking"
)

// Reason codes.
const (
	ReasonLockContention   = "LOCK_CONTENTION"
	ReasonLockPending      = "LOCK_PENDING"
	ReasonOverlayOpen      = "OVERLAY_OPEN"
	ReasonDecisionInFlight = "DECISION_IN_FLIGHT"
	ReasonNotPending       = "STATUS_NOT_PENDING"
	ReasonNoSelection      = "NO_SELECTION"
)

// Input is the client-visible state the verdict derives from.
type Input struct {
	Item             *store.WorkItem
	Lock             *lock.Grant // live lock on the item as last observed, nil if none
	Phase            LockPhase
	OverlayOpen      bool
	DecisionInFlight bool
}

// Reason explains one blocker or caution on a control.
type Reason struct {
	Code    string `json:"code"`
	Tone    string `json:"tone"`
	Message string `json:"message"`
}

// Verdict is the guard's output: two independent booleans with ordered,
// human-readable reasons. The first reason is the headline.
type Verdict struct {
	ApproveAllowed bool     `json:"approveAllowed"`
	RejectAllowed  bool     `json:"rejectAllowed"`
	Reasons        []Reason `json:"reasons"`
}

// Evaluate computes the verdict. Blocker precedence: lock contention >
// overlay open > operation in flight > status not pending. All
// applicable reasons are listed; the first wins the headline.
func Evaluate(in Input) Verdict {
	if in.Item == nil {
		return Verdict{Reasons: []Reason{{
			Code: ReasonNoSelection, Tone: ToneInfo, Message: "No item selected.",
		}}}
	}

	var reasons []Reason

	if in.Phase == PhaseBlocked {
		message := "Another reviewer is processing this item."
		if in.Lock != nil {
			message = fmt.Sprintf("Being processed by %s, lock expires at %s.",
				in.Lock.OwnerName, in.Lock.ExpiresAt.Format("15:04:05"))
		}
		reasons = append(reasons, Reason{Code: ReasonLockContention, Tone: ToneBlocking, Message: message})
	}
	if in.Phase == PhaseLocking || in.Phase == PhaseIdle {
		reasons = append(reasons, Reason{
			Code: ReasonLockPending, Tone: ToneWarning,
			Message: "Waiting for the review lock.",
		})
	}
	if in.OverlayOpen {
		reasons = append(reasons, Reason{
			Code: ReasonOverlayOpen, Tone: ToneWarning,
			Message: "Close the open dialog before deciding.",
		})
	}
	if in.DecisionInFlight {
		reasons = append(reasons, Reason{
			Code: ReasonDecisionInFlight, Tone: ToneWarning,
			Message: "A decision is already being submitted.",
		})
	}
	if in.Item.Status != store.StatusReviewPending {
		reasons = append(reasons, Reason{
			Code: ReasonNotPending, Tone: ToneBlocking,
			Message: "This item has already been processed.",
		})
	}

	allowed := len(reasons) == 0
	return Verdict{
		ApproveAllowed: allowed,
		RejectAllowed:  allowed,
		Reasons:        reasons,
	}
}
