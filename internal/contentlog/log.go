// Package contentlog keeps an out-of-band archive of policy document
// content: one git repository per document, one commit per version, and
// a moving "active" tag that always points at the version currently in
// force. The archive is advisory; the store stays the source of truth
// and a contentlog failure never fails the calling operation.
package contentlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const contentFile = "policy.json"

// Content is the archived form of one policy version.
type Content struct {
	Version int    `json:"version"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// CommitInfo is a flattened commit for history listings.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Log struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Log {
	return &Log{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// CommitVersion archives one version as a commit on main, tagged
// v<version>. The repository is created on first use. Committing the
// same version twice is a no-op thanks to the tag check.
func (l *Log) CommitVersion(documentID string, version int, title, body, author string) error {
	lock := l.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := l.openOrInit(documentID)
	if err != nil {
		return err
	}

	tagName := fmt.Sprintf("v%d", version)
	if _, err := repo.Reference(plumbing.NewTagReferenceName(tagName), true); err == nil {
		return nil
	}

	hash, err := l.commit(repo, Content{Version: version, Title: title, Body: body}, author,
		fmt.Sprintf("Archive %s v%d", documentID, version))
	if err != nil {
		return err
	}

	_, err = repo.CreateTag(tagName, hash, nil)
	if err != nil && !errors.Is(err, git.ErrTagExists) {
		return fmt.Errorf("tag version: %w", err)
	}
	return nil
}

// TagActive moves the "active" tag to the commit archived for version.
// Activation and rollback both land here, so the tag tracks whatever is
// currently in force.
func (l *Log) TagActive(documentID string, version int) error {
	lock := l.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(l.repoPath(documentID))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewTagReferenceName(fmt.Sprintf("v%d", version)), true)
	if err != nil {
		return fmt.Errorf("resolve version tag v%d: %w", version, err)
	}

	if err := repo.DeleteTag("active"); err != nil && !errors.Is(err, git.ErrTagNotFound) {
		return fmt.Errorf("drop stale active tag: %w", err)
	}
	if _, err := repo.CreateTag("active", ref.Hash(), nil); err != nil {
		return fmt.Errorf("tag active: %w", err)
	}
	return nil
}

// ActiveContent reads the content the "active" tag points at.
func (l *Log) ActiveContent(documentID string) (Content, error) {
	lock := l.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(l.repoPath(documentID))
	if err != nil {
		return Content{}, fmt.Errorf("open archive: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewTagReferenceName("active"), true)
	if err != nil {
		return Content{}, fmt.Errorf("resolve active tag: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Content{}, fmt.Errorf("load active commit: %w", err)
	}
	return readContentFromCommit(commitObj)
}

// VersionContent reads the content archived for one version.
func (l *Log) VersionContent(documentID string, version int) (Content, error) {
	lock := l.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(l.repoPath(documentID))
	if err != nil {
		return Content{}, fmt.Errorf("open archive: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewTagReferenceName(fmt.Sprintf("v%d", version)), true)
	if err != nil {
		return Content{}, fmt.Errorf("resolve version tag v%d: %w", version, err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Content{}, fmt.Errorf("load version commit: %w", err)
	}
	return readContentFromCommit(commitObj)
}

// History lists archived commits for a document, newest first.
func (l *Log) History(documentID string, limit int) ([]CommitInfo, error) {
	lock := l.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(l.repoPath(documentID))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (l *Log) repoPath(documentID string) string {
	return filepath.Join(l.baseDir, documentID)
}

func (l *Log) documentLock(documentID string) *sync.Mutex {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()
	lock, ok := l.locks[documentID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	l.locks[documentID] = lock
	return lock
}

func (l *Log) openOrInit(documentID string) (*git.Repository, error) {
	path := l.repoPath(documentID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return nil, fmt.Errorf("set HEAD to main: %w", err)
	}
	return repo, nil
}

func (l *Log) commit(repo *git.Repository, content Content, author, message string) (plumbing.Hash, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("marshal content: %w", err)
	}
	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, contentFile), append(payload, '\n'), 0o644); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write %s: %w", contentFile, err)
	}
	if _, err := worktree.Add(contentFile); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git add content: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@local.verdict.dev", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("commit content: %w", err)
	}
	return hash, nil
}

func readContentFromCommit(commitObj *object.Commit) (Content, error) {
	file, err := commitObj.File(contentFile)
	if err != nil {
		return Content{}, fmt.Errorf("load %s from commit: %w", contentFile, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return Content{}, fmt.Errorf("open content reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Content{}, fmt.Errorf("read content bytes: %w", err)
	}

	var content Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return Content{}, fmt.Errorf("decode commit content: %w", err)
	}
	return content, nil
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
