package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbase/site-provisioner/internal/config"
	"github.com/craftbase/site-provisioner/internal/template"
)

type fakeBuckets struct {
	calls []string
	err   error
}

func (f *fakeBuckets) CreateLogsBucket(ctx context.Context, name, location string) error {
	f.calls = append(f.calls, name)
	return f.err
}

type fakeRepos struct {
	calls []string
	err   error
}

func (f *fakeRepos) CreateRepository(ctx context.Context, name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

type fakeMaterializer struct {
	calls []template.Substitutions
	err   error
}

func (f *fakeMaterializer) Materialize(ctx context.Context, templateURL, workDir string, subs template.Substitutions) error {
	f.calls = append(f.calls, subs)
	return f.err
}

type fakePublisher struct {
	messages []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, owner, repo, workDir, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) RegisterAndTrigger(ctx context.Context, owner, repo, serviceName string) error {
	f.calls++
	return f.err
}

type provisionFixture struct {
	svc          *ProvisionService
	buckets      *fakeBuckets
	repos        *fakeRepos
	materializer *fakeMaterializer
	publisher    *fakePublisher
	registrar    *fakeRegistrar
}

func provisioningConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cloud.ProjectID = "test-project"
	cfg.Cloud.ProjectHash = "ab12cd34ef"
	cfg.Cloud.Region = "us-central1"
	cfg.GitHub.Org = "acme"
	cfg.GitHub.Token = "ghp_test"
	cfg.GitHub.TemplateRepoURL = "https://github.com/acme/site-template.git"
	return cfg
}

func newProvisionFixture(t *testing.T, cfg *config.Config) *provisionFixture {
	t.Helper()
	f := &provisionFixture{
		buckets:      &fakeBuckets{},
		repos:        &fakeRepos{},
		materializer: &fakeMaterializer{},
		publisher:    &fakePublisher{},
		registrar:    &fakeRegistrar{},
	}
	f.svc = NewProvisionService(cfg, f.buckets, f.repos, f.materializer, f.publisher, f.registrar)
	f.svc.bucketSettle = 0
	f.svc.tempRoot = t.TempDir()
	return f
}

// requireWorkDirRemoved asserts no abandoned working tree is left behind.
func requireWorkDirRemoved(t *testing.T, tempRoot string) {
	t.Helper()
	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "working tree was not cleaned up")
}

func TestProvisionSuccess(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())

	result := f.svc.Provision(context.Background(), "My Site")

	require.True(t, result.Success, "unexpected failure: %s", result.Error)
	assert.Regexp(t, regexp.MustCompile(`^acme/my-site-[a-f0-9]{6}$`), result.Repo)
	assert.Regexp(t, regexp.MustCompile(`^https://my-site-[a-f0-9]{6}-ab12cd34ef\.us-central1\.run\.app$`), result.URL)
	assert.Empty(t, result.Error)

	require.Len(t, f.buckets.calls, 1)
	assert.Regexp(t, regexp.MustCompile(`^cloud-build-logs-test-project-[a-f0-9]{6}$`), f.buckets.calls[0])
	require.Len(t, f.repos.calls, 1)
	require.Len(t, f.materializer.calls, 1)
	assert.Equal(t, "My Site", f.materializer.calls[0].DisplayName)
	assert.Equal(t, "acme", f.materializer.calls[0].RepoOwner)
	assert.Equal(t, f.repos.calls[0], f.materializer.calls[0].RepoName)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, `Initial commit: set up and customize site "My Site"`, f.publisher.messages[0])
	assert.Equal(t, 1, f.registrar.calls)

	requireWorkDirRemoved(t, f.svc.tempRoot)
}

func TestProvisionEmptyNameFails(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())

	result := f.svc.Provision(context.Background(), "")

	assert.False(t, result.Success)
	assert.Equal(t, "website name is required", result.Error)
	assert.Empty(t, f.buckets.calls)
}

func TestProvisionMissingConfigFailsBeforeAnyCall(t *testing.T) {
	cfg := provisioningConfig()
	cfg.GitHub.Token = ""
	cfg.Cloud.ProjectHash = ""
	f := newProvisionFixture(t, cfg)

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "server configuration error")
	assert.Contains(t, result.Error, "GITHUB_TOKEN")
	assert.Contains(t, result.Error, "GCLOUD_PROJECT_HASH")
	assert.Empty(t, f.buckets.calls)
	assert.Empty(t, f.repos.calls)
	assert.Equal(t, 0, f.registrar.calls)
}

func TestProvisionBucketFailureStopsRun(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())
	f.buckets.err = errors.New("quota exceeded")

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "create logs bucket")
	assert.Empty(t, f.repos.calls)
	requireWorkDirRemoved(t, f.svc.tempRoot)
}

func TestProvisionRepoFailureStopsRun(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())
	f.repos.err = errors.New("name already exists on this account")

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "name already exists")
	assert.Empty(t, f.materializer.calls)
	requireWorkDirRemoved(t, f.svc.tempRoot)
}

func TestProvisionMaterializeFailureStopsRun(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())
	f.materializer.err = errors.New("clone template: repository not found")

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Empty(t, f.publisher.messages)
	requireWorkDirRemoved(t, f.svc.tempRoot)
}

func TestProvisionPublishFailureStopsRun(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())
	f.publisher.err = errors.New("create blob: 502")

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Equal(t, 0, f.registrar.calls)
	requireWorkDirRemoved(t, f.svc.tempRoot)
}

func TestProvisionRegistrarFailureStopsRun(t *testing.T) {
	f := newProvisionFixture(t, provisioningConfig())
	f.registrar.err = errors.New("create deploy trigger for my-site: all 5 attempts failed")

	result := f.svc.Provision(context.Background(), "My Site")

	assert.False(t, result.Success)
	assert.Empty(t, result.URL)
	assert.Empty(t, result.Repo)
	requireWorkDirRemoved(t, f.svc.tempRoot)
}
