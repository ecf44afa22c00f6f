package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleViewer, ActionRead, true},
		{RoleViewer, ActionDecide, false},
		{RoleViewer, ActionManage, false},
		{RoleReviewer, ActionRead, true},
		{RoleReviewer, ActionDecide, true},
		{RoleReviewer, ActionManage, true},
		{RoleReviewer, ActionAdmin, false},
		{RoleAdmin, ActionAdmin, true},
		{RoleAdmin, ActionDecide, true},
		{Role("intruder"), ActionRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestNormalizeFoldsUnknownToViewer(t *testing.T) {
	if got := Normalize("reviewer"); got != RoleReviewer {
		t.Fatalf("Normalize(reviewer) = %s", got)
	}
	if got := Normalize("root"); got != RoleViewer {
		t.Fatalf("Normalize(root) = %s, want viewer", got)
	}
	if got := Normalize(""); got != RoleViewer {
		t.Fatalf("Normalize(empty) = %s, want viewer", got)
	}
}
