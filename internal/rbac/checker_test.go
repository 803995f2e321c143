package rbac_test

import (
	"testing"

	"github.com/classhub/classhub-lms/internal/rbac"
)

func TestDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "attempt:create", true},
		{"student", "attempt:view-own", true},
		{"student", "attempt:view-all", false},
		{"student", "quiz:view-keys", false},
		{"student", "submission:grade", false},
		{"teacher", "quiz:create", true},
		{"teacher", "quiz:view-keys", true},
		{"teacher", "attempt:grade", true},
		{"teacher", "users:bulk_upsert", true},
		{"admin", "anything:at_all", true},
		{"", "quiz:view", false},
		{"unknown", "quiz:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"grader": {"attempt:*", "quiz:view"},
	})
	if !c.Has("grader", "attempt:grade") {
		t.Error("attempt:* should grant attempt:grade")
	}
	if c.Has("grader", "quiz:create") {
		t.Error("quiz:view should not grant quiz:create")
	}
	if !c.Any("grader", "submission:grade", "quiz:view") {
		t.Error("Any should match quiz:view")
	}
}
