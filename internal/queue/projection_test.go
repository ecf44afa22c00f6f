package queue

import (
	"fmt"
	"testing"
	"time"

	"verdict/api/internal/store"
)

func stage(n int) *int { return &n }

func testItems() []store.WorkItem {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	return []store.WorkItem{
		{ID: "vid-1", Type: store.ItemTypeVideo, Title: "Launch teaser script", Status: store.StatusReviewPending,
			Stage: stage(store.StageScript), SubmittedBy: "Avery", SubmittedAt: base.Add(3 * time.Hour),
			PIIRiskLevel: 2, BannedWordCount: 1},
		{ID: "vid-2", Type: store.ItemTypeVideo, Title: "Launch teaser final cut", Status: store.StatusReviewPending,
			Stage: stage(store.StageFinal), SubmittedBy: "Marcus", SubmittedAt: base.Add(2 * time.Hour),
			RiskScore: 10},
		{ID: "pol-1", Type: store.ItemTypePolicyDocument, Title: "Moderation policy v3", Status: store.StatusApproved,
			DocumentID: "POL-1", SubmittedBy: "Avery", SubmittedAt: base.Add(time.Hour)},
		{ID: "vid-3", Type: store.ItemTypeVideo, Title: "Holiday promo script", Status: store.StatusRejected,
			Stage: stage(store.StageScript), SubmittedBy: "Jamie", SubmittedAt: base},
	}
}

func TestProjectTabPartition(t *testing.T) {
	items := testItems()

	cases := []struct {
		tab  string
		want []string
	}{
		{TabPending, []string{"vid-1", "vid-2"}},
		{TabApproved, []string{"pol-1"}},
		{TabRejected, []string{"vid-3"}},
		{TabAll, []string{"vid-1", "vid-2", "pol-1", "vid-3"}},
	}
	for _, tc := range cases {
		page := Project(items, Selection{Tab: tc.tab, Size: 10})
		if len(page.Items) != len(tc.want) {
			t.Errorf("tab %s: expected %d items, got %d", tc.tab, len(tc.want), len(page.Items))
			continue
		}
		for i, id := range tc.want {
			if page.Items[i].ID != id {
				t.Errorf("tab %s item %d: expected %s, got %s", tc.tab, i, id, page.Items[i].ID)
			}
		}
	}
}

func TestProjectMyActivityTab(t *testing.T) {
	page := Project(testItems(), Selection{
		Tab:       TabMyActivity,
		Reviewer:  "Marcus",
		MyItemIDs: map[string]struct{}{"vid-3": {}, "pol-1": {}},
		Size:      10,
	})
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 touched items, got %d", page.TotalCount)
	}
}

func TestProjectRiskSort(t *testing.T) {
	page := Project(testItems(), Selection{Tab: TabPending, Sort: SortRisk, Size: 10})
	// vid-2 has explicit risk 10; vid-1 ranks 3*2+2*1 = 8.
	if page.Items[0].ID != "vid-2" || page.Items[1].ID != "vid-1" {
		t.Errorf("risk sort order wrong: %s, %s", page.Items[0].ID, page.Items[1].ID)
	}
}

func TestProjectRiskOnlyFilter(t *testing.T) {
	page := Project(testItems(), Selection{Tab: TabAll, RiskOnly: true, Size: 10})
	for _, item := range page.Items {
		if RiskRank(item) == 0 {
			t.Errorf("risk-only included zero-risk item %s", item.ID)
		}
	}
	if page.TotalCount != 2 {
		t.Errorf("expected 2 risky items, got %d", page.TotalCount)
	}
}

func TestProjectStageCountsIgnoreStageFilter(t *testing.T) {
	page := Project(testItems(), Selection{Tab: TabAll, StageFilter: store.StageFinal, Size: 10})
	if page.TotalCount != 1 || page.Items[0].ID != "vid-2" {
		t.Fatalf("stage filter should leave only vid-2, got %+v", page.Items)
	}
	// Counts span the stage-unfiltered set.
	if page.StageCounts[store.StageScript] != 2 || page.StageCounts[store.StageFinal] != 1 {
		t.Errorf("unexpected stage counts: %v", page.StageCounts)
	}
}

func TestProjectSearch(t *testing.T) {
	page := Project(testItems(), Selection{Tab: TabAll, Search: "teaser", Size: 10})
	if page.TotalCount != 2 {
		t.Errorf("expected 2 matches for 'teaser', got %d", page.TotalCount)
	}
	page = Project(testItems(), Selection{Tab: TabAll, Search: "POL-1", Size: 10})
	if page.TotalCount != 1 {
		t.Errorf("expected document id search to match, got %d", page.TotalCount)
	}
}

func TestProjectPagination(t *testing.T) {
	items := make([]store.WorkItem, 0, 45)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		items = append(items, store.WorkItem{
			ID: fmt.Sprintf("item-%02d", i), Status: store.StatusReviewPending,
			SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page := Project(items, Selection{Tab: TabPending, Page: 1, Size: 20})
	if page.TotalPages != 3 || page.TotalCount != 45 {
		t.Fatalf("expected 3 pages of 45, got %d pages of %d", page.TotalPages, page.TotalCount)
	}
	if len(page.Items) != 20 || page.Virtualized {
		t.Errorf("expected fixed page of 20, got %d (virtualized=%v)", len(page.Items), page.Virtualized)
	}

	// Out-of-range page clamps to the last one.
	page = Project(items, Selection{Tab: TabPending, Page: 9, Size: 20})
	if page.Page != 2 || len(page.Items) != 5 {
		t.Errorf("expected clamp to page 2 with 5 items, got page %d with %d", page.Page, len(page.Items))
	}
}

func TestProjectVirtualizedBelowThreshold(t *testing.T) {
	page := Project(testItems(), Selection{Tab: TabAll, Size: 2, UnpagedThreshold: 50})
	if !page.Virtualized {
		t.Fatal("small result sets should come back as one virtualized list")
	}
	if len(page.Items) != 4 || page.TotalPages != 1 {
		t.Errorf("expected all 4 items unpaged, got %d items, %d pages", len(page.Items), page.TotalPages)
	}
}

func TestProjectDeterministic(t *testing.T) {
	sel := Selection{Tab: TabAll, Sort: SortRisk, Size: 10}
	first := Project(testItems(), sel)
	second := Project(testItems(), sel)
	if len(first.Items) != len(second.Items) {
		t.Fatal("projection must be deterministic")
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Errorf("item %d differs across identical projections", i)
		}
	}
}
