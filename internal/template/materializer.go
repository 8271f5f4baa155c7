// Package template turns a template repository into the customized working
// tree that gets committed to a newly provisioned repository.
package template

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
)

// Substitutions carries the values embedded into the materialized tree.
type Substitutions struct {
	DisplayName string
	RepoOwner   string
	RepoName    string
	ServiceName string
	Region      string
}

// CloneFunc clones a repository's current contents into dir.
type CloneFunc func(ctx context.Context, url, dir string) error

// GitClone is the production CloneFunc. History is irrelevant here, only the
// current file contents matter, so the clone is depth 1 and single-branch.
func GitClone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	})
	return err
}

type Materializer struct {
	clone        CloneFunc
	cloneTimeout time.Duration
}

func NewMaterializer() *Materializer {
	return &Materializer{
		clone:        GitClone,
		cloneTimeout: 60 * time.Second,
	}
}

// Materialize clones the template into workDir, strips the version-control
// metadata, rewrites the landing page, and writes the authoritative pipeline
// file. Any failure other than a missing landing page is fatal: a tree that
// failed to materialize must not be committed.
func (m *Materializer) Materialize(ctx context.Context, templateURL, workDir string, subs Substitutions) error {
	log.Printf("[Template] Cloning template from %s", templateURL)

	cloneCtx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()
	if err := m.clone(cloneCtx, templateURL, workDir); err != nil {
		return fmt.Errorf("clone template: %w", err)
	}

	// The remote commit is recreated from scratch, never inherited.
	if err := os.RemoveAll(filepath.Join(workDir, ".git")); err != nil {
		return fmt.Errorf("strip git metadata: %w", err)
	}

	if err := customizeLandingPage(workDir, subs); err != nil {
		return err
	}

	if err := WritePipelineFile(workDir, subs.ServiceName, subs.Region); err != nil {
		return err
	}

	return nil
}

// Conventional landing-page locations, most specific framework layout first.
var landingPageCandidates = []string{
	filepath.Join("src", "app", "page.tsx"),
	filepath.Join("app", "page.js"),
	filepath.Join("pages", "index.js"),
}

// customizeLandingPage overwrites the first landing-page candidate found. A
// template with no recognizable landing page is left as-is; the
// customization is cosmetic only.
func customizeLandingPage(workDir string, subs Substitutions) error {
	var target string
	for _, candidate := range landingPageCandidates {
		path := filepath.Join(workDir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			target = path
			break
		}
	}
	if target == "" {
		log.Printf("[Template] No landing page found among %v, skipping customization", landingPageCandidates)
		return nil
	}

	content, err := renderLandingPage(subs)
	if err != nil {
		return fmt.Errorf("render landing page: %w", err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("write landing page: %w", err)
	}

	rel, _ := filepath.Rel(workDir, target)
	log.Printf("[Template] Landing page updated: %s", rel)
	return nil
}
