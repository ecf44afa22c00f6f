package store

import "time"

// Work item types.
const (
	ItemTypeVideo          = "video"
	ItemTypePolicyDocument = "policy_document"
)

// Work item review statuses.
const (
	StatusReviewPending = "REVIEW_PENDING"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

// Video review stages.
const (
	StageScript = 1
	StageFinal  = 2
)

// Decision kinds.
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// Policy document version lifecycle states.
const (
	LifecycleDraft    = "DRAFT"
	LifecyclePending  = "PENDING"
	LifecycleActive   = "ACTIVE"
	LifecycleRejected = "REJECTED"
	LifecycleArchived = "ARCHIVED"
)

// Preprocess pipeline statuses (externally driven).
const (
	PreprocessIdle       = "IDLE"
	PreprocessProcessing = "PROCESSING"
	PreprocessReady      = "READY"
	PreprocessFailed     = "FAILED"
)

// Indexing pipeline statuses.
const (
	IndexingIdle    = "IDLE"
	IndexingRunning = "INDEXING"
	IndexingDone    = "DONE"
	IndexingFailed  = "FAILED"
)

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// WorkItem is one reviewable unit. Status and Version change together and
// only through ApplyDecision; locks are ephemeral and live in the lock
// manager, never in this store.
type WorkItem struct {
	ID     string
	Type   string
	Title  string
	Status string

	// Version is the optimistic-concurrency basis: incremented exactly
	// once per successful decision.
	Version int64

	// Stage is 1 (script) or 2 (final cut) for video items, nil otherwise.
	Stage *int

	// Content linkage for policy document versions.
	DocumentID      string
	DocumentVersion int

	VideoURL string

	RiskScore           int
	PIIRiskLevel        int
	BannedWordCount     int
	QualityWarningCount int

	SubmittedBy string
	SubmittedAt time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
}

// Staged reports whether the item goes through the two-stage video flow.
func (w WorkItem) Staged() bool {
	return w.Stage != nil
}

// AuditEntry is one row of an item's append-only audit trail.
type AuditEntry struct {
	ID     int64
	ItemID string
	At     time.Time
	Actor  string
	Action string
	Detail string
}

// PolicyVersion is one version of a named policy document. At most one
// version per DocumentID is ACTIVE at any time.
type PolicyVersion struct {
	ID         string
	DocumentID string
	Version    int
	Title      string
	Body       string
	Lifecycle  string

	PreprocessStatus string
	IndexingStatus   string

	// WorkItemID links the version to the review queue entry created on
	// submission; empty while the version is still a draft.
	WorkItemID string

	CreatedBy string
	CreatedAt time.Time
	DecidedAt *time.Time
}
