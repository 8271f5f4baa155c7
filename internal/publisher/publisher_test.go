package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend simulates the remote git data API in memory.
type fakeBackend struct {
	mu sync.Mutex

	headSHA string // current main head; empty means no main ref
	refErr  error
	blobErr error

	blobs       map[string]string // sha -> content
	nextBlob    int
	trees       map[string][]TreeEntry
	commits     map[string]fakeCommit
	nextObject  int
	forcedAt    string // sha main was force-updated to
	forceCalled bool
}

type fakeCommit struct {
	message string
	treeSHA string
	parents []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		blobs:   make(map[string]string),
		trees:   make(map[string][]TreeEntry),
		commits: make(map[string]fakeCommit),
	}
}

func (f *fakeBackend) GetMainRef(context.Context, string, string) (string, bool, error) {
	if f.refErr != nil {
		return "", false, f.refErr
	}
	return f.headSHA, f.headSHA != "", nil
}

func (f *fakeBackend) CreateBlob(_ context.Context, _, _ string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blobErr != nil {
		return "", f.blobErr
	}
	f.nextBlob++
	sha := fmt.Sprintf("blob-%04d", f.nextBlob)
	f.blobs[sha] = string(content)
	return sha, nil
}

func (f *fakeBackend) CreateTree(_ context.Context, _, _ string, entries []TreeEntry) (string, error) {
	f.nextObject++
	sha := fmt.Sprintf("tree-%04d", f.nextObject)
	f.trees[sha] = append([]TreeEntry(nil), entries...)
	return sha, nil
}

func (f *fakeBackend) CreateCommit(_ context.Context, _, _, message, treeSHA string, parents []string) (string, error) {
	f.nextObject++
	sha := fmt.Sprintf("commit-%04d", f.nextObject)
	f.commits[sha] = fakeCommit{message: message, treeSHA: treeSHA, parents: parents}
	return sha, nil
}

func (f *fakeBackend) ForceUpdateMainRef(_ context.Context, _, _, sha string) error {
	f.forceCalled = true
	f.forcedAt = sha
	f.headSHA = sha
	return nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func treePaths(entries []TreeEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	sort.Strings(paths)
	return paths
}

func TestPublishInitialCommitHasNoParents(t *testing.T) {
	backend := newFakeBackend()
	workDir := writeTree(t, map[string]string{
		"README.md":        "readme",
		"cloudbuild.yaml":  "steps",
		"src/app/page.tsx": "page",
	})

	require.NoError(t, New(backend).Publish(context.Background(), "acme", "widgets", workDir, "Initial commit"))

	require.True(t, backend.forceCalled)
	commit, ok := backend.commits[backend.forcedAt]
	require.True(t, ok, "main must point at the created commit")
	assert.Empty(t, commit.parents)
	assert.Equal(t, "Initial commit", commit.message)

	entries := backend.trees[commit.treeSHA]
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"README.md", "cloudbuild.yaml", "src/app/page.tsx"}, treePaths(entries))
	assert.Len(t, backend.blobs, 3)
}

func TestPublishWithPriorHeadHasOneParent(t *testing.T) {
	backend := newFakeBackend()
	backend.headSHA = "commit-auto-init"
	workDir := writeTree(t, map[string]string{"README.md": "readme"})

	require.NoError(t, New(backend).Publish(context.Background(), "acme", "widgets", workDir, "replace"))

	commit := backend.commits[backend.forcedAt]
	assert.Equal(t, []string{"commit-auto-init"}, commit.parents)
}

func TestPublishRefUpdateObservable(t *testing.T) {
	backend := newFakeBackend()
	workDir := writeTree(t, map[string]string{"a.txt": "a"})

	require.NoError(t, New(backend).Publish(context.Background(), "acme", "widgets", workDir, "msg"))

	sha, ok, err := backend.GetMainRef(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, backend.forcedAt, sha)
}

func TestPublishSkipsGitMetadata(t *testing.T) {
	backend := newFakeBackend()
	workDir := writeTree(t, map[string]string{
		"a.txt":      "a",
		".git/HEAD":  "ref: refs/heads/main",
		".git/index": "binary",
	})

	require.NoError(t, New(backend).Publish(context.Background(), "acme", "widgets", workDir, "msg"))

	commit := backend.commits[backend.forcedAt]
	assert.Equal(t, []string{"a.txt"}, treePaths(backend.trees[commit.treeSHA]))
}

func TestPublishBlobFailureAborts(t *testing.T) {
	backend := newFakeBackend()
	backend.blobErr = errors.New("upload refused")
	workDir := writeTree(t, map[string]string{"a.txt": "a", "b.txt": "b"})

	err := New(backend).Publish(context.Background(), "acme", "widgets", workDir, "msg")
	require.Error(t, err)
	assert.Empty(t, backend.trees, "no tree after failed uploads")
	assert.Empty(t, backend.commits, "no commit after failed uploads")
	assert.False(t, backend.forceCalled, "ref must not move")
}

func TestPublishRefReadFailureAborts(t *testing.T) {
	backend := newFakeBackend()
	backend.refErr = errors.New("api unavailable")
	workDir := writeTree(t, map[string]string{"a.txt": "a"})

	err := New(backend).Publish(context.Background(), "acme", "widgets", workDir, "msg")
	require.Error(t, err)
	assert.Empty(t, backend.blobs)
}
