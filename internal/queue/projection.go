// Package queue builds the read-side view of the work item store for one
// reviewer's tab, filter, and search selection. The projection owns no
// state of its own: it is recomputed deterministically from a store
// snapshot and is never authoritative.
package queue

import (
	"sort"
	"strings"

	"verdict/api/internal/store"
)

// Tabs partition items by status, plus a virtual tab of items the
// reviewer has touched.
const (
	TabPending    = "pending"
	TabApproved   = "approved"
	TabRejected   = "rejected"
	TabAll        = "all"
	TabMyActivity = "my_activity"
)

// Sort modes.
const (
	SortNewest = "newest"
	SortRisk   = "risk"
)

// DefaultPageSize is used when the request carries no size.
const DefaultPageSize = 20

// Selection is one reviewer's current view of the queue.
type Selection struct {
	Tab         string
	Search      string
	MineOnly    bool
	RiskOnly    bool
	Sort        string
	StageFilter int // 0 = all stages
	Reviewer    string

	// MyItemIDs holds items with at least one audit entry by the
	// reviewer; the caller supplies it from the store.
	MyItemIDs map[string]struct{}

	Page int
	Size int

	// UnpagedThreshold switches the result to a single virtualized list
	// when the filtered total does not exceed it.
	UnpagedThreshold int
}

// Page is the projected, paginated result.
type Page struct {
	Items       []store.WorkItem `json:"items"`
	TotalCount  int              `json:"totalCount"`
	Page        int              `json:"page"`
	Size        int              `json:"size"`
	TotalPages  int              `json:"totalPages"`
	Virtualized bool             `json:"virtualized"`

	// StageCounts is computed across the stage-unfiltered set so the UI
	// can label every stage filter option without a second call.
	StageCounts map[int]int `json:"stageCounts"`
}

// RiskRank is the weighted score used by the risk sort: PII carries the
// most weight, then banned words, then quality warnings, plus the
// item's explicit risk score.
func RiskRank(item store.WorkItem) int {
	return 3*item.PIIRiskLevel + 2*item.BannedWordCount + item.QualityWarningCount + item.RiskScore
}

// Project filters, sorts, and paginates a store snapshot.
func Project(items []store.WorkItem, sel Selection) Page {
	matched := make([]store.WorkItem, 0, len(items))
	stageCounts := make(map[int]int)

	for _, item := range items {
		if !matchesTab(item, sel) {
			continue
		}
		if sel.MineOnly && item.SubmittedBy != sel.Reviewer {
			continue
		}
		if sel.RiskOnly && RiskRank(item) == 0 {
			continue
		}
		if !matchesSearch(item, sel.Search) {
			continue
		}
		// Stage counts precede the stage filter on purpose.
		if item.Stage != nil {
			stageCounts[*item.Stage]++
		}
		if sel.StageFilter != 0 && (item.Stage == nil || *item.Stage != sel.StageFilter) {
			continue
		}
		matched = append(matched, item)
	}

	sortItems(matched, sel.Sort)
	return paginate(matched, sel, stageCounts)
}

func matchesTab(item store.WorkItem, sel Selection) bool {
	switch sel.Tab {
	case TabApproved:
		return item.Status == store.StatusApproved
	case TabRejected:
		return item.Status == store.StatusRejected
	case TabAll:
		return true
	case TabMyActivity:
		_, ok := sel.MyItemIDs[item.ID]
		return ok
	default:
		// Pending is the landing tab.
		return item.Status == store.StatusReviewPending
	}
}

func matchesSearch(item store.WorkItem, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.ID), needle) ||
		strings.Contains(strings.ToLower(item.DocumentID), needle)
}

func sortItems(items []store.WorkItem, mode string) {
	switch mode {
	case SortRisk:
		sort.SliceStable(items, func(i, j int) bool {
			left, right := RiskRank(items[i]), RiskRank(items[j])
			if left != right {
				return left > right
			}
			return items[i].SubmittedAt.After(items[j].SubmittedAt)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].SubmittedAt.After(items[j].SubmittedAt)
		})
	}
}

func paginate(matched []store.WorkItem, sel Selection, stageCounts map[int]int) Page {
	total := len(matched)

	if sel.UnpagedThreshold > 0 && total <= sel.UnpagedThreshold {
		return Page{
			Items:       matched,
			TotalCount:  total,
			Page:        0,
			Size:        total,
			TotalPages:  1,
			Virtualized: true,
			StageCounts: stageCounts,
		}
	}

	size := sel.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	page := sel.Page
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:       matched[start:end],
		TotalCount:  total,
		Page:        page,
		Size:        size,
		TotalPages:  totalPages,
		StageCounts: stageCounts,
	}
}
