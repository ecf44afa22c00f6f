package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"verdict/api/internal/auth"
	"verdict/api/internal/authpw"
	"verdict/api/internal/config"
	"verdict/api/internal/export"
	"verdict/api/internal/guard"
	"verdict/api/internal/lock"
	"verdict/api/internal/policy"
	"verdict/api/internal/queue"
	"verdict/api/internal/search"
	"verdict/api/internal/store"
	"verdict/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// DecisionInput is one reviewer's decision attempt on a work item.
type DecisionInput struct {
	Kind            string `json:"kind"`
	ExpectedVersion int64  `json:"expectedVersion"`
	LockToken       string `json:"lockToken"`
	Reason          string `json:"reason"`
}

// QueueQuery is the wire form of a queue selection.
type QueueQuery struct {
	Tab      string
	Search   string
	Sort     string
	Stage    int
	MineOnly bool
	RiskOnly bool
	Page     int
	Size     int
}

// DataStore is the slice of the store the service consumes. Both
// PostgresStore and MemoryStore satisfy it.
type DataStore interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user store.User) error
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, userID string) (store.User, error)

	GetWorkItem(ctx context.Context, itemID string) (store.WorkItem, error)
	ListWorkItems(ctx context.Context) ([]store.WorkItem, error)
	InsertWorkItem(ctx context.Context, item store.WorkItem) error
	ApplyDecision(ctx context.Context, itemID, newStatus string, expectedVersion int64, actor, action, detail string) (store.WorkItem, error)
	AdvanceStage(ctx context.Context, itemID string, expectedVersion int64, actor, action, detail string) (store.WorkItem, error)

	AppendAudit(ctx context.Context, entry store.AuditEntry) error
	ListAudit(ctx context.Context, itemID string) ([]store.AuditEntry, error)
	ItemIDsWithActor(ctx context.Context, actor string) (map[string]struct{}, error)

	GetPolicyVersion(ctx context.Context, documentID string, version int) (store.PolicyVersion, error)
	GetPolicyVersionByID(ctx context.Context, versionID string) (store.PolicyVersion, error)
	ListPolicyVersions(ctx context.Context, documentID string) ([]store.PolicyVersion, error)
	SetPreprocessStatus(ctx context.Context, versionID, status string) error
}

// Publisher is notified when a work item reaches APPROVED. The default
// implementation only logs; downstream delivery lives outside this
// service.
type Publisher interface {
	Publish(ctx context.Context, item store.WorkItem) error
}

type logPublisher struct{}

func (logPublisher) Publish(_ context.Context, item store.WorkItem) error {
	log.Printf("publish: item %s (%s) approved at version %d", item.ID, item.Type, item.Version)
	return nil
}

// MediaResolver turns stored video references into playable URLs.
type MediaResolver interface {
	PlaybackURL(ctx context.Context, videoURL string) (string, error)
}

// Services bundles the dependencies the app service orchestrates.
// Media, Search, and Publisher are optional.
type Services struct {
	Store     DataStore
	Locker    lock.Locker
	Policy    *policy.Manager
	Auth      *authpw.Service
	Export    *export.Service
	Media     MediaResolver
	Search    *search.Meili
	Publisher Publisher
}

type Service struct {
	cfg       config.Config
	store     DataStore
	locker    lock.Locker
	policy    *policy.Manager
	authpw    *authpw.Service
	export    *export.Service
	media     MediaResolver
	search    *search.Meili
	publisher Publisher
	seq       *guard.Sequencer
}

func New(cfg config.Config, deps Services) *Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logPublisher{}
	}
	return &Service{
		cfg:       cfg,
		store:     deps.Store,
		locker:    deps.Locker,
		policy:    deps.Policy,
		authpw:    deps.Auth,
		export:    deps.Export,
		media:     deps.Media,
		search:    deps.Search,
		publisher: publisher,
		seq:       guard.NewSequencer(),
	}
}

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *Service) AuthPasswordService() *authpw.Service { return s.authpw }

func (s *Service) SyncToken() string { return s.cfg.SyncToken }

// ---------------------------------------------------------------------------
// Sessions

func (s *Service) IssueSession(user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// ---------------------------------------------------------------------------
// Locks

// AcquireLock takes or refreshes the review lock on an item for the
// session's reviewer. Re-acquiring a lock you already hold returns the
// same token with a fresh TTL.
func (s *Service) AcquireLock(ctx context.Context, session Session, itemID string) (lock.Grant, error) {
	item, err := s.store.GetWorkItem(ctx, itemID)
	if err != nil {
		return lock.Grant{}, s.mapStoreErr(err)
	}
	if item.Status != store.StatusReviewPending {
		return lock.Grant{}, domainError(http.StatusConflict, "ALREADY_PROCESSED",
			"item has already received a final decision", nil)
	}

	grant, err := s.locker.Acquire(ctx, itemID, session.UserID, session.UserName)
	if err != nil {
		if mapped := conflictError(err); mapped != nil {
			return lock.Grant{}, mapped
		}
		return lock.Grant{}, err
	}
	return grant, nil
}

// ReleaseLock drops the lock if the token still matches. A stale token
// is not an error: the lock either expired or moved on, and both mean
// the caller no longer holds it.
func (s *Service) ReleaseLock(ctx context.Context, itemID, token string) (bool, error) {
	return s.locker.Release(ctx, itemID, token)
}

// ---------------------------------------------------------------------------
// Decisions

// Decide runs one decision attempt through the full precondition chain:
// the item must exist, nobody else may hold the lock, and the version
// and status checks ride inside the atomic store update. Stage-1
// approvals on staged items advance the stage and keep the item
// pending; everything else is terminal.
func (s *Service) Decide(ctx context.Context, session Session, itemID string, input DecisionInput) (store.WorkItem, error) {
	item, err := s.store.GetWorkItem(ctx, itemID)
	if err != nil {
		return store.WorkItem{}, s.mapStoreErr(err)
	}

	// A lock held by someone else blocks the decision outright. No live
	// lock is fine: if ours expired mid-flight, the version check still
	// guarantees nobody decided in between.
	if err := s.locker.Check(ctx, itemID, input.LockToken); err != nil {
		if mapped := conflictError(err); mapped != nil {
			return store.WorkItem{}, mapped
		}
		return store.WorkItem{}, err
	}

	decision := strings.ToUpper(strings.TrimSpace(input.Kind))
	if decision != store.DecisionApprove && decision != store.DecisionReject {
		return store.WorkItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"kind must be APPROVE or REJECT", nil)
	}
	reason := strings.TrimSpace(input.Reason)
	if decision == store.DecisionReject && reason == "" {
		return store.WorkItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"a rejection requires a reason", nil)
	}

	updated, err := s.applyDecision(ctx, session, item, decision, input.ExpectedVersion, reason)
	if err != nil {
		if mapped := conflictError(err); mapped != nil {
			// Conflicts carry a partial snapshot so the client can
			// reconcile without a second round trip.
			if mapped.Code == "VERSION_CONFLICT" || mapped.Code == "ALREADY_PROCESSED" {
				if current, readErr := s.store.GetWorkItem(ctx, itemID); readErr == nil {
					snapshot := map[string]any{
						"id":      current.ID,
						"status":  current.Status,
						"version": current.Version,
					}
					if current.Stage != nil {
						snapshot["stage"] = *current.Stage
					}
					mapped.Details = map[string]any{"current": snapshot}
				}
			}
			return store.WorkItem{}, mapped
		}
		return store.WorkItem{}, err
	}

	if input.LockToken != "" {
		if _, err := s.locker.Release(ctx, itemID, input.LockToken); err != nil {
			log.Printf("app: release lock on %s after decision: %v", itemID, err)
		}
	}

	// Policy documents activate through the lifecycle manager instead of
	// being pushed to the projection feed.
	if updated.Status == store.StatusApproved && updated.Type != store.ItemTypePolicyDocument {
		if err := s.store.AppendAudit(ctx, store.AuditEntry{
			ItemID: updated.ID,
			Actor:  session.UserName,
			Action: "published",
			Detail: "publish emitted to the projection feed",
		}); err != nil {
			log.Printf("app: append publish audit %s: %v", updated.ID, err)
		}
		if err := s.publisher.Publish(ctx, updated); err != nil {
			log.Printf("app: publish %s: %v", updated.ID, err)
		}
	}
	return updated, nil
}

func (s *Service) applyDecision(ctx context.Context, session Session, item store.WorkItem, decision string, expectedVersion int64, reason string) (store.WorkItem, error) {
	actor := session.UserName

	if decision == store.DecisionReject {
		updated, err := s.store.ApplyDecision(ctx, item.ID, store.StatusRejected, expectedVersion,
			actor, "rejected", reason)
		if err != nil {
			return store.WorkItem{}, err
		}
		if item.Type == store.ItemTypePolicyDocument {
			if _, err := s.policy.RejectVersion(ctx, item.DocumentID, item.DocumentVersion, actor, reason); err != nil {
				log.Printf("app: reject policy %s v%d: %v", item.DocumentID, item.DocumentVersion, err)
			}
		}
		return updated, nil
	}

	// Approval of a staged item at the first stage is intermediate.
	if item.Staged() && *item.Stage == store.StageScript {
		return s.store.AdvanceStage(ctx, item.ID, expectedVersion, actor, "approved", "stage 1 approval")
	}

	updated, err := s.store.ApplyDecision(ctx, item.ID, store.StatusApproved, expectedVersion,
		actor, "approved", "final approval")
	if err != nil {
		return store.WorkItem{}, err
	}
	if item.Type == store.ItemTypePolicyDocument {
		if _, err := s.policy.ApproveVersion(ctx, item.DocumentID, item.DocumentVersion, actor); err != nil {
			log.Printf("app: activate policy %s v%d: %v", item.DocumentID, item.DocumentVersion, err)
		}
	}
	return updated, nil
}

// ---------------------------------------------------------------------------
// Queue and item reads

// ListQueue projects the queue for one reviewer. The generation counter
// lets clients discard responses that arrive out of order.
func (s *Service) ListQueue(ctx context.Context, session Session, query QueueQuery) (map[string]any, error) {
	items, err := s.store.ListWorkItems(ctx)
	if err != nil {
		return nil, err
	}

	sel := queue.Selection{
		Tab:              query.Tab,
		Search:           query.Search,
		MineOnly:         query.MineOnly,
		RiskOnly:         query.RiskOnly,
		Sort:             query.Sort,
		StageFilter:      query.Stage,
		Reviewer:         session.UserName,
		Page:             query.Page,
		Size:             query.Size,
		UnpagedThreshold: s.cfg.UnpagedThreshold,
	}
	if sel.Size <= 0 {
		sel.Size = s.cfg.PageSize
	}
	if sel.Tab == queue.TabMyActivity {
		mine, err := s.store.ItemIDsWithActor(ctx, session.UserName)
		if err != nil {
			return nil, err
		}
		sel.MyItemIDs = mine
	}

	page := queue.Project(items, sel)

	payload := make([]map[string]any, 0, len(page.Items))
	for _, item := range page.Items {
		payload = append(payload, s.itemSummary(ctx, item))
	}

	return map[string]any{
		"items":       payload,
		"totalCount":  page.TotalCount,
		"page":        page.Page,
		"size":        page.Size,
		"totalPages":  page.TotalPages,
		"virtualized": page.Virtualized,
		"stageCounts": page.StageCounts,
		"generation":  s.seq.Next("queue:" + session.UserID),
	}, nil
}

// GetItem returns the full item view: lock state, the guard verdict for
// the requesting reviewer, the audit trail, playback and policy detail
// where the item type calls for them.
func (s *Service) GetItem(ctx context.Context, session Session, itemID string) (map[string]any, error) {
	item, err := s.store.GetWorkItem(ctx, itemID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	payload := s.itemSummary(ctx, item)

	grant, err := s.locker.Inspect(ctx, itemID)
	if err != nil {
		return nil, err
	}
	payload["lock"] = lockPayload(grant)

	phase := guard.PhaseIdle
	if grant != nil {
		if grant.OwnerID == session.UserID {
			phase = guard.PhaseLocked
		} else {
			phase = guard.PhaseBlocked
		}
	}
	payload["guard"] = guard.Evaluate(guard.Input{Item: &item, Lock: grant, Phase: phase})

	entries, err := s.store.ListAudit(ctx, itemID)
	if err != nil {
		return nil, err
	}
	payload["audit"] = auditPayload(entries)

	if item.Type == store.ItemTypeVideo && s.media != nil && item.VideoURL != "" {
		playback, err := s.media.PlaybackURL(ctx, item.VideoURL)
		if err != nil {
			log.Printf("app: playback url for %s: %v", itemID, err)
		} else {
			payload["playbackUrl"] = playback
		}
	}

	if item.Type == store.ItemTypePolicyDocument {
		versions, err := s.store.ListPolicyVersions(ctx, item.DocumentID)
		if err != nil {
			return nil, err
		}
		payload["documentVersions"] = versionsPayload(versions)
	}
	return payload, nil
}

func (s *Service) ListAudit(ctx context.Context, itemID string) ([]map[string]any, error) {
	if _, err := s.store.GetWorkItem(ctx, itemID); err != nil {
		return nil, s.mapStoreErr(err)
	}
	entries, err := s.store.ListAudit(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return auditPayload(entries), nil
}

func (s *Service) ExportHistory(ctx context.Context, itemID string, format export.Format) (*export.Result, error) {
	result, err := s.export.Export(ctx, export.Request{ItemID: itemID, Format: format})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE",
				"export renderer is not installed on this host", nil)
		}
		return nil, err
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Policy document operations

func (s *Service) CreatePolicyDraft(ctx context.Context, session Session, documentID, title, body string) (map[string]any, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"documentId and title are required", nil)
	}
	draft, err := s.policy.CreateDraft(ctx, documentID, title, body, session.UserName)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return versionPayload(draft), nil
}

func (s *Service) SubmitPolicyDraft(ctx context.Context, session Session, documentID string, version int) (map[string]any, error) {
	pending, item, err := s.policy.SubmitForReview(ctx, documentID, version, session.UserName)
	if err != nil {
		if mapped := conflictError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	payload := versionPayload(pending)
	payload["workItem"] = s.itemSummary(ctx, item)
	return payload, nil
}

// RollbackPolicy restores an archived version. Rolling back to the
// already-active version answers 200 with a warning instead of failing.
func (s *Service) RollbackPolicy(ctx context.Context, session Session, documentID string, version int, reason string) (map[string]any, error) {
	restored, err := s.policy.Rollback(ctx, documentID, version, session.UserName, reason)
	if err != nil {
		var warn *policy.NoOpError
		if errors.As(err, &warn) {
			payload := versionPayload(restored)
			payload["warning"] = warn.Message
			return payload, nil
		}
		if mapped := conflictError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return versionPayload(restored), nil
}

func (s *Service) RetryIndexing(ctx context.Context, session Session, versionID string) (map[string]any, error) {
	v, err := s.policy.RetryIndexing(ctx, versionID, session.UserName)
	if err != nil {
		var warn *policy.NoOpError
		if errors.As(err, &warn) {
			payload := versionPayload(v)
			payload["warning"] = warn.Message
			return payload, nil
		}
		if mapped := conflictError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return versionPayload(v), nil
}

func (s *Service) ListPolicyVersions(ctx context.Context, documentID string) ([]map[string]any, error) {
	versions, err := s.store.ListPolicyVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return versionsPayload(versions), nil
}

func (s *Service) SearchPolicies(_ context.Context, query string, limit int64) ([]search.PolicyRecord, error) {
	if s.search == nil || !s.search.Healthy() {
		return nil, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE",
			"search engine is not available", nil)
	}
	return s.search.SearchPolicies(query, limit)
}

// HandlePipelineSync records a preprocess status reported by the
// external media pipeline.
func (s *Service) HandlePipelineSync(ctx context.Context, versionID, preprocessStatus string) error {
	switch preprocessStatus {
	case store.PreprocessIdle, store.PreprocessProcessing, store.PreprocessReady, store.PreprocessFailed:
	default:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"unknown preprocess status", nil)
	}
	if err := s.store.SetPreprocessStatus(ctx, versionID, preprocessStatus); err != nil {
		return s.mapStoreErr(err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Payload helpers

func (s *Service) itemSummary(_ context.Context, item store.WorkItem) map[string]any {
	payload := map[string]any{
		"id":                  item.ID,
		"type":                item.Type,
		"title":               item.Title,
		"status":              item.Status,
		"version":             item.Version,
		"riskScore":           item.RiskScore,
		"piiRiskLevel":        item.PIIRiskLevel,
		"bannedWordCount":     item.BannedWordCount,
		"qualityWarningCount": item.QualityWarningCount,
		"riskRank":            queue.RiskRank(item),
		"submittedBy":         item.SubmittedBy,
		"submittedAt":         item.SubmittedAt,
	}
	if item.Stage != nil {
		payload["stage"] = *item.Stage
	}
	if item.DocumentID != "" {
		payload["documentId"] = item.DocumentID
		payload["documentVersion"] = item.DocumentVersion
	}
	if item.VideoURL != "" {
		payload["videoUrl"] = item.VideoURL
	}
	if item.ApprovedAt != nil {
		payload["approvedAt"] = item.ApprovedAt
	}
	if item.RejectedAt != nil {
		payload["rejectedAt"] = item.RejectedAt
	}
	return payload
}

func lockPayload(grant *lock.Grant) any {
	if grant == nil {
		return nil
	}
	return map[string]any{
		"ownerId":   grant.OwnerID,
		"ownerName": grant.OwnerName,
		"expiresAt": grant.ExpiresAt,
	}
}

func auditPayload(entries []store.AuditEntry) []map[string]any {
	payload := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, map[string]any{
			"id":     entry.ID,
			"at":     entry.At,
			"actor":  entry.Actor,
			"action": entry.Action,
			"detail": entry.Detail,
		})
	}
	return payload
}

func versionPayload(v store.PolicyVersion) map[string]any {
	payload := map[string]any{
		"id":               v.ID,
		"documentId":       v.DocumentID,
		"version":          v.Version,
		"title":            v.Title,
		"body":             v.Body,
		"lifecycle":        v.Lifecycle,
		"preprocessStatus": v.PreprocessStatus,
		"indexingStatus":   v.IndexingStatus,
		"createdBy":        v.CreatedBy,
		"createdAt":        v.CreatedAt,
	}
	if v.WorkItemID != "" {
		payload["workItemId"] = v.WorkItemID
	}
	if v.DecidedAt != nil {
		payload["decidedAt"] = v.DecidedAt
	}
	return payload
}

func versionsPayload(versions []store.PolicyVersion) []map[string]any {
	payload := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		payload = append(payload, versionPayload(v))
	}
	return payload
}

func (s *Service) mapStoreErr(err error) error {
	if mapped := conflictError(err); mapped != nil {
		return mapped
	}
	return err
}

// ---------------------------------------------------------------------------
// Bootstrap

// Bootstrap seeds sample reviewers, video items, and a policy document
// when the store is empty. Dev convenience only.
func (s *Service) Bootstrap(ctx context.Context) error {
	items, err := s.store.ListWorkItems(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	var reviewer store.User
	if s.authpw != nil {
		reviewer, err = s.authpw.SignUp(ctx, authpw.SignUpRequest{
			Email:       "avery@example.com",
			Password:    "verdict-dev",
			DisplayName: "Avery",
		})
		if err != nil {
			return err
		}
		if _, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
			Email:       "jordan@example.com",
			Password:    "verdict-dev",
			DisplayName: "Jordan",
		}); err != nil {
			return err
		}
	}

	stage := store.StageScript
	videoSeeds := []store.WorkItem{
		{
			ID: util.NewID("itm"), Type: store.ItemTypeVideo,
			Title: "Launch Teaser Cut 2", Status: store.StatusReviewPending,
			Stage: &stage, VideoURL: "videos/launch-teaser-cut2.mp4",
			RiskScore: 1, BannedWordCount: 1, SubmittedBy: "Jordan",
		},
		{
			ID: util.NewID("itm"), Type: store.ItemTypeVideo,
			Title: "Creator Onboarding Walkthrough", Status: store.StatusReviewPending,
			VideoURL: "videos/onboarding.mp4", PIIRiskLevel: 2,
			QualityWarningCount: 1, SubmittedBy: "Jordan",
		},
		{
			ID: util.NewID("itm"), Type: store.ItemTypeVideo,
			Title: "Q3 Community Recap", Status: store.StatusReviewPending,
			VideoURL: "videos/q3-recap.mp4", SubmittedBy: "Avery",
		},
	}
	for _, seed := range videoSeeds {
		if err := s.store.InsertWorkItem(ctx, seed); err != nil {
			return err
		}
	}

	// A policy document with an active v1 and a pending v2.
	const docID = "doc-community-guidelines"
	seedSession := Session{UserID: reviewer.ID, UserName: firstNonEmpty(reviewer.DisplayName, "Avery")}

	if _, err := s.policy.CreateDraft(ctx, docID, "Community Guidelines",
		"Be excellent to each other.", seedSession.UserName); err != nil {
		return err
	}
	_, v1Item, err := s.policy.SubmitForReview(ctx, docID, 1, seedSession.UserName)
	if err != nil {
		return err
	}
	if _, err := s.Decide(ctx, seedSession, v1Item.ID, DecisionInput{
		Kind:            store.DecisionApprove,
		ExpectedVersion: 0,
	}); err != nil {
		return err
	}

	if _, err := s.policy.CreateDraft(ctx, docID, "Community Guidelines",
		"Be excellent to each other. No exceptions.", seedSession.UserName); err != nil {
		return err
	}
	if _, _, err := s.policy.SubmitForReview(ctx, docID, 2, seedSession.UserName); err != nil {
		return err
	}

	log.Printf("app: bootstrapped %d video items and policy document %s", len(videoSeeds), docID)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
