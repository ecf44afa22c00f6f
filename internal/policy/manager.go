// Package policy manages the multi-version lifecycle of policy
// documents: draft, pending review, active, rejected, archived, with
// rollback as a compensating transition. It never decides anything by
// itself; decisions arrive from the review decision engine or from the
// explicit rollback/retry endpoints, and every state change lands in the
// linked work item's audit trail.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"verdict/api/internal/store"
	"verdict/api/internal/util"
)

// Store is the slice of the data store the lifecycle manager mutates.
type Store interface {
	InsertWorkItem(ctx context.Context, item store.WorkItem) error
	AppendAudit(ctx context.Context, entry store.AuditEntry) error

	InsertPolicyVersion(ctx context.Context, v store.PolicyVersion) error
	GetPolicyVersion(ctx context.Context, documentID string, version int) (store.PolicyVersion, error)
	GetPolicyVersionByID(ctx context.Context, versionID string) (store.PolicyVersion, error)
	ListPolicyVersions(ctx context.Context, documentID string) ([]store.PolicyVersion, error)
	MarkVersionPending(ctx context.Context, documentID string, version int, workItemID string) (store.PolicyVersion, error)
	ActivateVersion(ctx context.Context, documentID string, version int) (store.PolicyVersion, *int, error)
	RejectPolicyVersion(ctx context.Context, documentID string, version int) (store.PolicyVersion, error)
	SetIndexingStatus(ctx context.Context, versionID, status string) error
	SetIndexingStatusIf(ctx context.Context, versionID, expected, status string) (bool, error)
}

// Indexer is the external indexing pipeline boundary: submit with an
// asynchronous acknowledgement, and retract records that an activation
// swap superseded.
type Indexer interface {
	Submit(v store.PolicyVersion, done func(error))
	Retract(versionID string)
}

// ContentLog archives version content out of band; nil disables it.
type ContentLog interface {
	CommitVersion(documentID string, version int, title, body, author string) error
	TagActive(documentID string, version int) error
}

// ErrReasonRequired is returned when a reject or rollback arrives
// without a usable reason.
var ErrReasonRequired = errors.New("policy: reason required")

// NoOpError marks a request that changes nothing and deserves a warning
// rather than a failure: rolling back to the already-active version, or
// retrying indexing that is not in a failed state.
type NoOpError struct {
	Message string
}

func (e *NoOpError) Error() string { return e.Message }

type Manager struct {
	store   Store
	indexer Indexer
	content ContentLog
}

func NewManager(store Store, indexer Indexer, content ContentLog) *Manager {
	return &Manager{store: store, indexer: indexer, content: content}
}

// CreateDraft opens the next version number for a document.
func (m *Manager) CreateDraft(ctx context.Context, documentID, title, body, actor string) (store.PolicyVersion, error) {
	existing, err := m.store.ListPolicyVersions(ctx, documentID)
	if err != nil {
		return store.PolicyVersion{}, err
	}
	next := 1
	for _, v := range existing {
		if v.Version >= next {
			next = v.Version + 1
		}
	}

	draft := store.PolicyVersion{
		ID:               util.NewID("pv"),
		DocumentID:       documentID,
		Version:          next,
		Title:            title,
		Body:             body,
		Lifecycle:        store.LifecycleDraft,
		PreprocessStatus: store.PreprocessIdle,
		IndexingStatus:   store.IndexingIdle,
		CreatedBy:        actor,
	}
	if err := m.store.InsertPolicyVersion(ctx, draft); err != nil {
		return store.PolicyVersion{}, err
	}

	if m.content != nil {
		if err := m.content.CommitVersion(documentID, next, title, body, actor); err != nil {
			log.Printf("policy: content log commit %s v%d: %v", documentID, next, err)
		}
	}
	return draft, nil
}

// SubmitForReview moves a draft to PENDING and creates its work item in
// the review queue.
func (m *Manager) SubmitForReview(ctx context.Context, documentID string, version int, actor string) (store.PolicyVersion, store.WorkItem, error) {
	draft, err := m.store.GetPolicyVersion(ctx, documentID, version)
	if err != nil {
		return store.PolicyVersion{}, store.WorkItem{}, err
	}
	if draft.Lifecycle != store.LifecycleDraft {
		return store.PolicyVersion{}, store.WorkItem{}, store.ErrLifecycleConflict
	}

	item := store.WorkItem{
		ID:              util.NewID("itm"),
		Type:            store.ItemTypePolicyDocument,
		Title:           fmt.Sprintf("%s v%d", draft.Title, version),
		Status:          store.StatusReviewPending,
		DocumentID:      documentID,
		DocumentVersion: version,
		SubmittedBy:     actor,
	}
	if err := m.store.InsertWorkItem(ctx, item); err != nil {
		return store.PolicyVersion{}, store.WorkItem{}, err
	}

	pending, err := m.store.MarkVersionPending(ctx, documentID, version, item.ID)
	if err != nil {
		return store.PolicyVersion{}, store.WorkItem{}, err
	}

	if err := m.store.AppendAudit(ctx, store.AuditEntry{
		ItemID: item.ID,
		Actor:  actor,
		Action: "submitted",
		Detail: fmt.Sprintf("policy %s v%d submitted for review", documentID, version),
	}); err != nil {
		return store.PolicyVersion{}, store.WorkItem{}, err
	}
	return pending, item, nil
}

// ApproveVersion activates a PENDING version. The previously active
// version, if any, is archived in the same atomic step, so at most one
// version per document is ever ACTIVE. Indexing is triggered for the
// newly active version.
func (m *Manager) ApproveVersion(ctx context.Context, documentID string, version int, actor string) (store.PolicyVersion, error) {
	current, err := m.store.GetPolicyVersion(ctx, documentID, version)
	if err != nil {
		return store.PolicyVersion{}, err
	}
	if current.Lifecycle != store.LifecyclePending {
		return store.PolicyVersion{}, store.ErrLifecycleConflict
	}

	promoted, demoted, err := m.store.ActivateVersion(ctx, documentID, version)
	if err != nil {
		return store.PolicyVersion{}, err
	}

	detail := fmt.Sprintf("policy %s v%d activated", documentID, version)
	if demoted != nil {
		detail = fmt.Sprintf("%s, v%d archived", detail, *demoted)
	}
	m.audit(ctx, promoted.WorkItemID, actor, "policy_activated", detail)

	if m.content != nil {
		if err := m.content.TagActive(documentID, version); err != nil {
			log.Printf("policy: content log tag %s v%d: %v", documentID, version, err)
		}
	}

	m.triggerIndexing(ctx, promoted)
	m.retractDemoted(ctx, documentID, demoted)
	return promoted, nil
}

// RejectVersion moves a PENDING version to REJECTED. The active version
// is untouched and the reason is mandatory.
func (m *Manager) RejectVersion(ctx context.Context, documentID string, version int, actor, reason string) (store.PolicyVersion, error) {
	if strings.TrimSpace(reason) == "" {
		return store.PolicyVersion{}, ErrReasonRequired
	}

	rejected, err := m.store.RejectPolicyVersion(ctx, documentID, version)
	if err != nil {
		return store.PolicyVersion{}, err
	}
	m.audit(ctx, rejected.WorkItemID, actor, "policy_rejected",
		fmt.Sprintf("policy %s v%d rejected: %s", documentID, version, strings.TrimSpace(reason)))
	return rejected, nil
}

// Rollback promotes an ARCHIVED version back to ACTIVE and demotes the
// current ACTIVE version, both within one atomic step. Rolling back to
// the version that is already active is a no-op warning, not an error.
func (m *Manager) Rollback(ctx context.Context, documentID string, targetVersion int, actor, reason string) (store.PolicyVersion, error) {
	if strings.TrimSpace(reason) == "" {
		return store.PolicyVersion{}, ErrReasonRequired
	}

	target, err := m.store.GetPolicyVersion(ctx, documentID, targetVersion)
	if err != nil {
		return store.PolicyVersion{}, err
	}
	switch target.Lifecycle {
	case store.LifecycleActive:
		return target, &NoOpError{Message: fmt.Sprintf("version %d is already active", targetVersion)}
	case store.LifecycleArchived:
		// Eligible.
	default:
		return store.PolicyVersion{}, store.ErrLifecycleConflict
	}

	promoted, demoted, err := m.store.ActivateVersion(ctx, documentID, targetVersion)
	if err != nil {
		return store.PolicyVersion{}, err
	}

	detail := fmt.Sprintf("rollback to v%d: %s", targetVersion, strings.TrimSpace(reason))
	if demoted != nil {
		detail = fmt.Sprintf("%s (v%d archived)", detail, *demoted)
	}
	m.audit(ctx, promoted.WorkItemID, actor, "policy_rollback", detail)

	if m.content != nil {
		if err := m.content.TagActive(documentID, targetVersion); err != nil {
			log.Printf("policy: content log tag %s v%d: %v", documentID, targetVersion, err)
		}
	}

	m.triggerIndexing(ctx, promoted)
	m.retractDemoted(ctx, documentID, demoted)
	return promoted, nil
}

// RetryIndexing resubmits a version whose last indexing run failed. Any
// other indexing state makes the request a no-op warning.
func (m *Manager) RetryIndexing(ctx context.Context, versionID, actor string) (store.PolicyVersion, error) {
	v, err := m.store.GetPolicyVersionByID(ctx, versionID)
	if err != nil {
		return store.PolicyVersion{}, err
	}

	flipped, err := m.store.SetIndexingStatusIf(ctx, versionID, store.IndexingFailed, store.IndexingRunning)
	if err != nil {
		return store.PolicyVersion{}, err
	}
	if !flipped {
		if v.IndexingStatus == store.IndexingRunning {
			return v, &NoOpError{Message: "indexing is already in progress"}
		}
		return v, &NoOpError{Message: "indexing is not in a failed state"}
	}

	v.IndexingStatus = store.IndexingRunning
	m.audit(ctx, v.WorkItemID, actor, "indexing_retry",
		fmt.Sprintf("indexing retried for %s v%d", v.DocumentID, v.Version))
	m.submit(ctx, v)
	return v, nil
}

func (m *Manager) triggerIndexing(ctx context.Context, v store.PolicyVersion) {
	if err := m.store.SetIndexingStatus(ctx, v.ID, store.IndexingRunning); err != nil {
		log.Printf("policy: mark indexing %s: %v", v.ID, err)
		return
	}
	v.IndexingStatus = store.IndexingRunning
	m.submit(ctx, v)
}

// submit hands the version to the pipeline; the acknowledgement resolves
// the indexing status out of band. A lost acknowledgement leaves the
// version in INDEXING until the external pipeline reports, which is the
// accepted at-least-once tradeoff.
func (m *Manager) submit(ctx context.Context, v store.PolicyVersion) {
	if m.indexer == nil {
		return
	}
	m.indexer.Submit(v, func(submitErr error) {
		status := store.IndexingDone
		if submitErr != nil {
			status = store.IndexingFailed
		}
		if err := m.store.SetIndexingStatus(context.WithoutCancel(ctx), v.ID, status); err != nil {
			log.Printf("policy: resolve indexing %s to %s: %v", v.ID, status, err)
		}
	})
}

// retractDemoted drops the record of the version an activation swap just
// archived, so searches filtered to ACTIVE stop matching it. Best
// effort: a miss only leaves a stale record until the next swap.
func (m *Manager) retractDemoted(ctx context.Context, documentID string, demoted *int) {
	if demoted == nil || m.indexer == nil {
		return
	}
	old, err := m.store.GetPolicyVersion(ctx, documentID, *demoted)
	if err != nil {
		log.Printf("policy: load archived %s v%d for retraction: %v", documentID, *demoted, err)
		return
	}
	m.indexer.Retract(old.ID)
}

func (m *Manager) audit(ctx context.Context, itemID, actor, action, detail string) {
	if itemID == "" {
		return
	}
	if err := m.store.AppendAudit(ctx, store.AuditEntry{
		ItemID: itemID,
		Actor:  actor,
		Action: action,
		Detail: detail,
	}); err != nil {
		log.Printf("policy: append audit %s/%s: %v", itemID, action, err)
	}
}
