// Package rbac maps account roles to the actions the API exposes.
// Viewers can read the queue but never move an item; reviewers carry the
// day-to-day workload; admins additionally manage accounts.
package rbac

type Role string
type Action string

const (
	RoleViewer   Role = "viewer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

const (
	ActionRead   Action = "read"   // queue, item detail, audit, export
	ActionDecide Action = "decide" // locks and decisions
	ActionManage Action = "manage" // policy drafts, rollback, indexing retries
	ActionAdmin  Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleReviewer:
		return action == ActionRead || action == ActionDecide || action == ActionManage
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

// Normalize folds unknown role strings to viewer so a bad value never
// grants more than read access.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleReviewer, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}
