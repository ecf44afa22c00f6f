package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Users

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at
		FROM users WHERE email=$1
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ---------------------------------------------------------------------------
// Work items

const workItemColumns = `
	id, type, title, status, version, stage,
	document_id, document_version, video_url,
	risk_score, pii_risk_level, banned_word_count, quality_warning_count,
	submitted_by, submitted_at, approved_at, rejected_at
`

func scanWorkItem(row interface{ Scan(...any) error }) (WorkItem, error) {
	var item WorkItem
	var stage sql.NullInt64
	err := row.Scan(
		&item.ID, &item.Type, &item.Title, &item.Status, &item.Version, &stage,
		&item.DocumentID, &item.DocumentVersion, &item.VideoURL,
		&item.RiskScore, &item.PIIRiskLevel, &item.BannedWordCount, &item.QualityWarningCount,
		&item.SubmittedBy, &item.SubmittedAt, &item.ApprovedAt, &item.RejectedAt,
	)
	if err != nil {
		return WorkItem{}, err
	}
	if stage.Valid {
		value := int(stage.Int64)
		item.Stage = &value
	}
	return item, nil
}

func (s *PostgresStore) GetWorkItem(ctx context.Context, itemID string) (WorkItem, error) {
	item, err := scanWorkItem(s.db.QueryRowContext(ctx,
		`SELECT `+workItemColumns+` FROM work_items WHERE id=$1`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return WorkItem{}, ErrNotFound
	}
	if err != nil {
		return WorkItem{}, fmt.Errorf("get work item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListWorkItems(ctx context.Context) ([]WorkItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workItemColumns+` FROM work_items ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	items := make([]WorkItem, 0)
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertWorkItem(ctx context.Context, item WorkItem) error {
	var stage sql.NullInt64
	if item.Stage != nil {
		stage = sql.NullInt64{Int64: int64(*item.Stage), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_items (
			id, type, title, status, version, stage,
			document_id, document_version, video_url,
			risk_score, pii_risk_level, banned_word_count, quality_warning_count,
			submitted_by, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, NOW()))
		ON CONFLICT (id) DO NOTHING
	`, item.ID, item.Type, item.Title, item.Status, item.Version, stage,
		item.DocumentID, item.DocumentVersion, item.VideoURL,
		item.RiskScore, item.PIIRiskLevel, item.BannedWordCount, item.QualityWarningCount,
		item.SubmittedBy, nullTime(item.SubmittedAt))
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// ApplyDecision commits a review decision as one atomic step: the status
// flips, the version increments by exactly one, the decision timestamp is
// set if unset, and the audit entry lands in the same transaction. The
// UPDATE re-checks version and status so concurrent decisions linearize;
// a missed update is classified by re-reading the row.
func (s *PostgresStore) ApplyDecision(ctx context.Context, itemID string, newStatus string, expectedVersion int64, actor, action, detail string) (WorkItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WorkItem{}, fmt.Errorf("begin decision tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanWorkItem(tx.QueryRowContext(ctx, `
		UPDATE work_items SET
			status=$3,
			version=version+1,
			approved_at = CASE WHEN $3='APPROVED' AND approved_at IS NULL THEN NOW() ELSE approved_at END,
			rejected_at = CASE WHEN $3='REJECTED' AND rejected_at IS NULL THEN NOW() ELSE rejected_at END
		WHERE id=$1 AND version=$2 AND status='REVIEW_PENDING'
		RETURNING `+workItemColumns,
		itemID, expectedVersion, newStatus))
	if errors.Is(err, sql.ErrNoRows) {
		return WorkItem{}, s.classifyDecisionMiss(ctx, itemID, expectedVersion)
	}
	if err != nil {
		return WorkItem{}, fmt.Errorf("apply decision: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (item_id, actor, action, detail)
		VALUES ($1, $2, $3, $4)
	`, itemID, actor, action, detail); err != nil {
		return WorkItem{}, fmt.Errorf("append decision audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return WorkItem{}, fmt.Errorf("commit decision: %w", err)
	}
	return item, nil
}

// AdvanceStage records an intermediate approval on a staged item: the
// stage moves forward and the version increments, but the item stays in
// review. The same optimistic checks as ApplyDecision protect it.
func (s *PostgresStore) AdvanceStage(ctx context.Context, itemID string, expectedVersion int64, actor, action, detail string) (WorkItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WorkItem{}, fmt.Errorf("begin stage tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanWorkItem(tx.QueryRowContext(ctx, `
		UPDATE work_items SET
			version=version+1,
			stage=stage+1
		WHERE id=$1 AND version=$2 AND status='REVIEW_PENDING' AND stage IS NOT NULL
		RETURNING `+workItemColumns,
		itemID, expectedVersion))
	if errors.Is(err, sql.ErrNoRows) {
		return WorkItem{}, s.classifyDecisionMiss(ctx, itemID, expectedVersion)
	}
	if err != nil {
		return WorkItem{}, fmt.Errorf("advance stage: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (item_id, actor, action, detail)
		VALUES ($1, $2, $3, $4)
	`, itemID, actor, action, detail); err != nil {
		return WorkItem{}, fmt.Errorf("append stage audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return WorkItem{}, fmt.Errorf("commit stage advance: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) classifyDecisionMiss(ctx context.Context, itemID string, expectedVersion int64) error {
	current, err := s.GetWorkItem(ctx, itemID)
	if err != nil {
		return err
	}
	if current.Status != StatusReviewPending {
		return ErrAlreadyProcessed
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	return fmt.Errorf("apply decision on %s: update matched no rows", itemID)
}

// ---------------------------------------------------------------------------
// Audit log

func (s *PostgresStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (item_id, actor, action, detail)
		VALUES ($1, $2, $3, $4)
	`, entry.ItemID, entry.Actor, entry.Action, entry.Detail)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListAudit returns an item's audit trail newest-first for display.
func (s *PostgresStore) ListAudit(ctx context.Context, itemID string) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, at, actor, action, detail
		FROM audit_log
		WHERE item_id=$1
		ORDER BY at DESC, id DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.At, &entry.Actor, &entry.Action, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit: %w", err)
	}
	return entries, nil
}

// ItemIDsWithActor feeds the virtual "my activity" tab.
func (s *PostgresStore) ItemIDsWithActor(ctx context.Context, actor string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT item_id FROM audit_log WHERE actor=$1`, actor)
	if err != nil {
		return nil, fmt.Errorf("list actor items: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan actor item: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actor items: %w", err)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Policy document versions

const policyVersionColumns = `
	id, document_id, version, title, body, lifecycle,
	preprocess_status, indexing_status, work_item_id,
	created_by, created_at, decided_at
`

func scanPolicyVersion(row interface{ Scan(...any) error }) (PolicyVersion, error) {
	var v PolicyVersion
	err := row.Scan(
		&v.ID, &v.DocumentID, &v.Version, &v.Title, &v.Body, &v.Lifecycle,
		&v.PreprocessStatus, &v.IndexingStatus, &v.WorkItemID,
		&v.CreatedBy, &v.CreatedAt, &v.DecidedAt,
	)
	return v, err
}

func (s *PostgresStore) InsertPolicyVersion(ctx context.Context, v PolicyVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_versions (
			id, document_id, version, title, body, lifecycle,
			preprocess_status, indexing_status, work_item_id, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, v.ID, v.DocumentID, v.Version, v.Title, v.Body, v.Lifecycle,
		v.PreprocessStatus, v.IndexingStatus, v.WorkItemID, v.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert policy version: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPolicyVersion(ctx context.Context, documentID string, version int) (PolicyVersion, error) {
	v, err := scanPolicyVersion(s.db.QueryRowContext(ctx,
		`SELECT `+policyVersionColumns+` FROM policy_versions WHERE document_id=$1 AND version=$2`,
		documentID, version))
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, ErrNotFound
	}
	if err != nil {
		return PolicyVersion{}, fmt.Errorf("get policy version: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) GetPolicyVersionByID(ctx context.Context, versionID string) (PolicyVersion, error) {
	v, err := scanPolicyVersion(s.db.QueryRowContext(ctx,
		`SELECT `+policyVersionColumns+` FROM policy_versions WHERE id=$1`, versionID))
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, ErrNotFound
	}
	if err != nil {
		return PolicyVersion{}, fmt.Errorf("get policy version by id: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListPolicyVersions(ctx context.Context, documentID string) ([]PolicyVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+policyVersionColumns+` FROM policy_versions WHERE document_id=$1 ORDER BY version DESC`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("list policy versions: %w", err)
	}
	defer rows.Close()

	versions := make([]PolicyVersion, 0)
	for rows.Next() {
		v, err := scanPolicyVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy versions: %w", err)
	}
	return versions, nil
}

// MarkVersionPending moves a draft to PENDING and links its work item.
func (s *PostgresStore) MarkVersionPending(ctx context.Context, documentID string, version int, workItemID string) (PolicyVersion, error) {
	v, err := scanPolicyVersion(s.db.QueryRowContext(ctx, `
		UPDATE policy_versions SET lifecycle='PENDING', work_item_id=$3
		WHERE document_id=$1 AND version=$2 AND lifecycle='DRAFT'
		RETURNING `+policyVersionColumns,
		documentID, version, workItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, s.classifyLifecycleMiss(ctx, documentID, version)
	}
	if err != nil {
		return PolicyVersion{}, fmt.Errorf("mark version pending: %w", err)
	}
	return v, nil
}

// ActivateVersion promotes a PENDING or ARCHIVED version to ACTIVE and
// demotes the current ACTIVE version (if any) to ARCHIVED in the same
// transaction, preserving the one-ACTIVE-per-document invariant. The
// demoted version number is returned when a demotion happened.
func (s *PostgresStore) ActivateVersion(ctx context.Context, documentID string, version int) (PolicyVersion, *int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PolicyVersion{}, nil, fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var demoted *int
	var demotedVersion int
	err = tx.QueryRowContext(ctx, `
		UPDATE policy_versions SET lifecycle='ARCHIVED'
		WHERE document_id=$1 AND lifecycle='ACTIVE' AND version <> $2
		RETURNING version
	`, documentID, version).Scan(&demotedVersion)
	if err == nil {
		demoted = &demotedVersion
	} else if !errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, nil, fmt.Errorf("demote active version: %w", err)
	}

	promoted, err := scanPolicyVersion(tx.QueryRowContext(ctx, `
		UPDATE policy_versions SET lifecycle='ACTIVE', decided_at=COALESCE(decided_at, NOW())
		WHERE document_id=$1 AND version=$2 AND lifecycle IN ('PENDING', 'ARCHIVED')
		RETURNING `+policyVersionColumns,
		documentID, version))
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, nil, s.classifyLifecycleMiss(ctx, documentID, version)
	}
	if err != nil {
		return PolicyVersion{}, nil, fmt.Errorf("activate version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PolicyVersion{}, nil, fmt.Errorf("commit activate: %w", err)
	}
	return promoted, demoted, nil
}

// RejectPolicyVersion moves a PENDING version to REJECTED; the ACTIVE
// version, if any, is untouched.
func (s *PostgresStore) RejectPolicyVersion(ctx context.Context, documentID string, version int) (PolicyVersion, error) {
	v, err := scanPolicyVersion(s.db.QueryRowContext(ctx, `
		UPDATE policy_versions SET lifecycle='REJECTED', decided_at=COALESCE(decided_at, NOW())
		WHERE document_id=$1 AND version=$2 AND lifecycle='PENDING'
		RETURNING `+policyVersionColumns,
		documentID, version))
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyVersion{}, s.classifyLifecycleMiss(ctx, documentID, version)
	}
	if err != nil {
		return PolicyVersion{}, fmt.Errorf("reject policy version: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) classifyLifecycleMiss(ctx context.Context, documentID string, version int) error {
	if _, err := s.GetPolicyVersion(ctx, documentID, version); err != nil {
		return err
	}
	return ErrLifecycleConflict
}

func (s *PostgresStore) SetIndexingStatus(ctx context.Context, versionID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE policy_versions SET indexing_status=$2 WHERE id=$1`, versionID, status)
	if err != nil {
		return fmt.Errorf("set indexing status: %w", err)
	}
	return nil
}

// SetIndexingStatusIf flips indexing_status only when it currently holds
// the expected value; reports whether the flip happened.
func (s *PostgresStore) SetIndexingStatusIf(ctx context.Context, versionID, expected, status string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE policy_versions SET indexing_status=$3 WHERE id=$1 AND indexing_status=$2`,
		versionID, expected, status)
	if err != nil {
		return false, fmt.Errorf("set indexing status if: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set indexing status if: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) SetPreprocessStatus(ctx context.Context, versionID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE policy_versions SET preprocess_status=$2 WHERE id=$1`, versionID, status)
	if err != nil {
		return fmt.Errorf("set preprocess status: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
