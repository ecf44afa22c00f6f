package store

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func migrationsDir() string {
	return filepath.Join("..", "..", "db", "migrations")
}

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir())
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			t.Fatalf("unexpected file in migrations dir: %s", entry.Name())
		}
		version, direction := match[1], match[2]
		if byVersion[version] == nil {
			byVersion[version] = map[string]bool{}
		}
		if byVersion[version][direction] {
			t.Fatalf("duplicate %s migration file for version %s", direction, version)
		}
		byVersion[version][direction] = true
	}

	if len(byVersion) == 0 {
		t.Fatal("no migration files found")
	}
	for version, directions := range byVersion {
		if !directions["up"] || !directions["down"] {
			t.Fatalf("version %s is missing an up or down file", version)
		}
	}
}

func TestInitMigrationEnforcesSingleActivePolicyVersion(t *testing.T) {
	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir(), "001_init.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(sqlBytes)

	for _, snippet := range []string{
		"idx_policy_versions_single_active",
		`WHERE lifecycle = 'ACTIVE'`,
		"UNIQUE (document_id, version)",
	} {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected init migration to contain %q", snippet)
		}
	}
}

func TestAuditLogImmutabilityMigrationUsesBlockingTriggers(t *testing.T) {
	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir(), "002_audit_log_immutability.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(sqlBytes)

	for _, snippet := range []string{
		"audit_log_immutable_guard",
		"RAISE EXCEPTION",
		"CREATE TRIGGER trg_audit_log_block_update",
		"CREATE TRIGGER trg_audit_log_block_delete",
	} {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
	if strings.Contains(sqlText, "DO INSTEAD NOTHING") {
		t.Fatal("expected hard-fail immutability guard, found silent DO INSTEAD NOTHING rule")
	}
}
