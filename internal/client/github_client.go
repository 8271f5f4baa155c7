package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/craftbase/site-provisioner/internal/publisher"
)

const mainRef = "refs/heads/main"

// GitHubClient wraps the GitHub REST API for repository administration and
// the git data operations the publisher needs.
type GitHubClient struct {
	gh  *github.Client
	org string
}

func NewGitHubClient(token, org string) *GitHubClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &GitHubClient{
		gh:  github.NewClient(httpClient),
		org: org,
	}
}

// CreateRepository creates a public, auto-initialized repository under the
// configured organization. Auto-init gives the repository an initial ref
// that the publisher later force-updates over.
func (c *GitHubClient) CreateRepository(ctx context.Context, name string) error {
	log.Printf("[GitHub] Creating repository %s/%s", c.org, name)

	repo := &github.Repository{
		Name:     github.String(name),
		Private:  github.Bool(false),
		AutoInit: github.Bool(true),
	}
	if _, _, err := c.gh.Repositories.Create(ctx, c.org, repo); err != nil {
		return fmt.Errorf("create repository %s/%s: %w", c.org, name, err)
	}
	return nil
}

// GetMainRef implements publisher.GitBackend. A 404 means the repository has
// no main branch yet, which is a normal state for a brand-new repository.
func (c *GitHubClient) GetMainRef(ctx context.Context, owner, repo string) (string, bool, error) {
	ref, resp, err := c.gh.Git.GetRef(ctx, owner, repo, mainRef)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", mainRef, err)
	}
	return ref.GetObject().GetSHA(), true, nil
}

// CreateBlob implements publisher.GitBackend. Content is base64-encoded so
// binary template assets survive the trip.
func (c *GitHubClient) CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error) {
	blob := &github.Blob{
		Content:  github.String(base64.StdEncoding.EncodeToString(content)),
		Encoding: github.String("base64"),
	}
	created, _, err := c.gh.Git.CreateBlob(ctx, owner, repo, blob)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return created.GetSHA(), nil
}

// CreateTree implements publisher.GitBackend.
func (c *GitHubClient) CreateTree(ctx context.Context, owner, repo string, entries []publisher.TreeEntry) (string, error) {
	treeEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, e := range entries {
		treeEntries = append(treeEntries, &github.TreeEntry{
			Path: github.String(e.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  github.String(e.BlobSHA),
		})
	}
	tree, _, err := c.gh.Git.CreateTree(ctx, owner, repo, "", treeEntries)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}
	return tree.GetSHA(), nil
}

// CreateCommit implements publisher.GitBackend.
func (c *GitHubClient) CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parentSHAs []string) (string, error) {
	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
	}
	for _, sha := range parentSHAs {
		commit.Parents = append(commit.Parents, &github.Commit{SHA: github.String(sha)})
	}
	created, _, err := c.gh.Git.CreateCommit(ctx, owner, repo, commit, nil)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return created.GetSHA(), nil
}

// ForceUpdateMainRef implements publisher.GitBackend.
func (c *GitHubClient) ForceUpdateMainRef(ctx context.Context, owner, repo, sha string) error {
	ref := &github.Reference{
		Ref:    github.String(mainRef),
		Object: &github.GitObject{SHA: github.String(sha)},
	}
	if _, _, err := c.gh.Git.UpdateRef(ctx, owner, repo, ref, true); err != nil {
		return fmt.Errorf("force update %s: %w", mainRef, err)
	}
	return nil
}
