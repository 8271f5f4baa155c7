// Package publisher turns a local working tree into the head commit of a
// remote repository's main branch using the platform's git data API: blobs
// are uploaded in parallel, assembled into a single tree, committed, and the
// ref is advanced with one atomic force update.
package publisher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// TreeEntry ties an uploaded blob to its repository path. Paths always use
// forward slashes regardless of the host filesystem.
type TreeEntry struct {
	Path    string
	BlobSHA string
}

// GitBackend is the slice of the remote git data API the publisher needs.
type GitBackend interface {
	// GetMainRef reports the current head of main. A missing main ref is not
	// an error: ok is false and the published commit gets no parent.
	GetMainRef(ctx context.Context, owner, repo string) (sha string, ok bool, err error)
	CreateBlob(ctx context.Context, owner, repo string, content []byte) (sha string, err error)
	CreateTree(ctx context.Context, owner, repo string, entries []TreeEntry) (sha string, err error)
	CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parentSHAs []string) (sha string, err error)
	// ForceUpdateMainRef points main at the commit. Force is required: an
	// auto-initialized repository's existing commit shares no history with
	// the assembled tree, so a plain update would be rejected.
	ForceUpdateMainRef(ctx context.Context, owner, repo, sha string) error
}

const defaultUploadConcurrency = 8

type Publisher struct {
	backend           GitBackend
	uploadConcurrency int
}

func New(backend GitBackend) *Publisher {
	return &Publisher{
		backend:           backend,
		uploadConcurrency: defaultUploadConcurrency,
	}
}

// Publish commits the contents of workDir as the new head of main. Only the
// final ref update mutates shared state; a failure before it leaves at most
// orphaned blob objects, which are harmless.
func (p *Publisher) Publish(ctx context.Context, owner, repo, workDir, message string) error {
	parentSHA, hasParent, err := p.backend.GetMainRef(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("read main ref: %w", err)
	}
	if !hasParent {
		log.Printf("[Publisher] %s/%s has no main branch yet, publishing initial commit", owner, repo)
	}

	paths, err := collectFiles(workDir)
	if err != nil {
		return fmt.Errorf("enumerate working tree: %w", err)
	}

	entries := make([]TreeEntry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.uploadConcurrency)
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			content, err := os.ReadFile(filepath.Join(workDir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			sha, err := p.backend.CreateBlob(gctx, owner, repo, content)
			if err != nil {
				return fmt.Errorf("upload blob %s: %w", rel, err)
			}
			entries[i] = TreeEntry{Path: rel, BlobSHA: sha}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	treeSHA, err := p.backend.CreateTree(ctx, owner, repo, entries)
	if err != nil {
		return fmt.Errorf("create tree: %w", err)
	}

	var parents []string
	if hasParent {
		parents = []string{parentSHA}
	}
	commitSHA, err := p.backend.CreateCommit(ctx, owner, repo, message, treeSHA, parents)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	if err := p.backend.ForceUpdateMainRef(ctx, owner, repo, commitSHA); err != nil {
		return fmt.Errorf("update main ref: %w", err)
	}

	log.Printf("[Publisher] Committed %d files to %s/%s (%.8s)", len(entries), owner, repo, commitSHA)
	return nil
}

// collectFiles lists every regular file under workDir as a slash-separated
// relative path, skipping version-control metadata.
func collectFiles(workDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
