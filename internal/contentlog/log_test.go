package contentlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestArchiveLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	l := New(tempDir)

	if err := l.CommitVersion("doc-1", 1, "Terms", "original body", "Avery"); err != nil {
		t.Fatalf("CommitVersion(v1) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "doc-1")); err != nil {
		t.Fatalf("archive directory missing: %v", err)
	}
	if err := l.CommitVersion("doc-1", 2, "Terms", "revised body", "Avery"); err != nil {
		t.Fatalf("CommitVersion(v2) error = %v", err)
	}

	if err := l.TagActive("doc-1", 2); err != nil {
		t.Fatalf("TagActive(v2) error = %v", err)
	}
	active, err := l.ActiveContent("doc-1")
	if err != nil {
		t.Fatalf("ActiveContent() error = %v", err)
	}
	if active.Version != 2 || active.Body != "revised body" {
		t.Fatalf("unexpected active content: %+v", active)
	}

	// Rollback moves the tag back.
	if err := l.TagActive("doc-1", 1); err != nil {
		t.Fatalf("TagActive(v1) error = %v", err)
	}
	active, err = l.ActiveContent("doc-1")
	if err != nil {
		t.Fatalf("ActiveContent() after rollback error = %v", err)
	}
	if active.Version != 1 || active.Body != "original body" {
		t.Fatalf("unexpected content after rollback: %+v", active)
	}

	history, err := l.History("doc-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(history))
	}
}

func TestCommitVersionIsIdempotent(t *testing.T) {
	l := New(t.TempDir())

	if err := l.CommitVersion("doc-1", 1, "Terms", "body", "Avery"); err != nil {
		t.Fatalf("CommitVersion() error = %v", err)
	}
	if err := l.CommitVersion("doc-1", 1, "Terms", "body changed later", "Avery"); err != nil {
		t.Fatalf("CommitVersion() repeat error = %v", err)
	}

	got, err := l.VersionContent("doc-1", 1)
	if err != nil {
		t.Fatalf("VersionContent() error = %v", err)
	}
	if got.Body != "body" {
		t.Fatalf("repeat commit overwrote archived content: %+v", got)
	}

	history, err := l.History("doc-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(history))
	}
}

func TestTagActiveRequiresArchivedVersion(t *testing.T) {
	l := New(t.TempDir())

	if err := l.CommitVersion("doc-1", 1, "Terms", "body", "Avery"); err != nil {
		t.Fatalf("CommitVersion() error = %v", err)
	}
	if err := l.TagActive("doc-1", 7); err == nil {
		t.Fatal("expected error tagging unknown version")
	}
}

func TestConcurrentCommitsSameDocument(t *testing.T) {
	l := New(t.TempDir())

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := l.CommitVersion("doc-1", idx+1, "Terms", fmt.Sprintf("body-%02d", idx+1), "Avery"); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitVersion() concurrent error = %v", err)
		}
	}

	history, err := l.History("doc-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != writers {
		t.Fatalf("expected %d commits, got %d", writers, len(history))
	}
}
