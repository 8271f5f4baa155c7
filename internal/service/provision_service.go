package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/craftbase/site-provisioner/internal/config"
	"github.com/craftbase/site-provisioner/internal/models"
	"github.com/craftbase/site-provisioner/internal/naming"
	"github.com/craftbase/site-provisioner/internal/template"
)

// LogBucketCreator creates the dedicated build-logs bucket for one run.
type LogBucketCreator interface {
	CreateLogsBucket(ctx context.Context, name, location string) error
}

// RepositoryCreator creates the remote repository with auto-initialization.
type RepositoryCreator interface {
	CreateRepository(ctx context.Context, name string) error
}

// Materializer prepares the customized working tree from the template.
type Materializer interface {
	Materialize(ctx context.Context, templateURL, workDir string, subs template.Substitutions) error
}

// TreePublisher commits a working tree as the remote's new main head.
type TreePublisher interface {
	Publish(ctx context.Context, owner, repo, workDir, message string) error
}

// TriggerRegistrar wires the repository to the build system and creates its
// deploy trigger.
type TriggerRegistrar interface {
	RegisterAndTrigger(ctx context.Context, owner, repo, serviceName string) error
}

// ProvisionService sequences one website-provisioning run:
//
//	Start -> BucketReady -> RepoCreated -> TemplateCommitted
//	      -> BuildRegistered/TriggerCreated -> Done
//
// Any step can fail the run; the temporary working tree is removed on every
// exit path. Already-created external resources are not rolled back: a
// failed run may leave an orphaned auto-initialized repository shell behind,
// which is accepted rather than compensated.
type ProvisionService struct {
	cfg          *config.Config
	buckets      LogBucketCreator
	repos        RepositoryCreator
	materializer Materializer
	publisher    TreePublisher
	registrar    TriggerRegistrar

	bucketSettle time.Duration
	tempRoot     string
}

func NewProvisionService(
	cfg *config.Config,
	buckets LogBucketCreator,
	repos RepositoryCreator,
	materializer Materializer,
	publisher TreePublisher,
	registrar TriggerRegistrar,
) *ProvisionService {
	return &ProvisionService{
		cfg:          cfg,
		buckets:      buckets,
		repos:        repos,
		materializer: materializer,
		publisher:    publisher,
		registrar:    registrar,
		bucketSettle: 5 * time.Second,
	}
}

// Provision creates and deploys a new website. The returned result is never
// partially populated: success carries both the repository full name and the
// service URL, failure carries only an error message. Raw platform errors
// never reach the caller.
func (s *ProvisionService) Provision(ctx context.Context, displayName string) *models.ProvisioningResult {
	if displayName == "" {
		return s.fail(fmt.Errorf("website name is required"))
	}
	if err := s.cfg.ValidateProvisioning(); err != nil {
		return s.fail(err)
	}

	identity := naming.GenerateIdentity(displayName)
	owner := s.cfg.GitHub.Org
	repoName := identity.ServiceName
	region := s.cfg.Cloud.Region

	log.Printf("[Provision] Starting provisioning of %q as %s/%s", displayName, owner, repoName)

	workDir, err := os.MkdirTemp(s.tempRoot, "template-clone-")
	if err != nil {
		return s.fail(fmt.Errorf("create working tree: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Printf("[Provision] Failed to remove working tree %s: %v", workDir, err)
		}
	}()

	// Start -> BucketReady
	logsBucket := fmt.Sprintf("cloud-build-logs-%s-%s", s.cfg.Cloud.ProjectID, identity.Suffix)
	if err := s.buckets.CreateLogsBucket(ctx, logsBucket, region); err != nil {
		return s.fail(fmt.Errorf("create logs bucket: %w", err))
	}
	if err := sleepCtx(ctx, s.bucketSettle); err != nil {
		return s.fail(err)
	}

	// BucketReady -> RepoCreated
	if err := s.repos.CreateRepository(ctx, repoName); err != nil {
		return s.fail(err)
	}

	// RepoCreated -> TemplateCommitted
	subs := template.Substitutions{
		DisplayName: displayName,
		RepoOwner:   owner,
		RepoName:    repoName,
		ServiceName: identity.ServiceName,
		Region:      region,
	}
	if err := s.materializer.Materialize(ctx, s.cfg.GitHub.TemplateRepoURL, workDir, subs); err != nil {
		return s.fail(err)
	}

	commitMessage := fmt.Sprintf("Initial commit: set up and customize site %q", displayName)
	if err := s.publisher.Publish(ctx, owner, repoName, workDir, commitMessage); err != nil {
		return s.fail(err)
	}

	// TemplateCommitted -> BuildRegistered -> TriggerCreated
	if err := s.registrar.RegisterAndTrigger(ctx, owner, repoName, identity.ServiceName); err != nil {
		return s.fail(err)
	}

	// TriggerCreated -> Done. The URL follows the platform's naming
	// convention, so no round trip is needed to learn it.
	serviceURL := fmt.Sprintf("https://%s-%s.%s.run.app", identity.ServiceName, s.cfg.Cloud.ProjectHash, region)

	log.Printf("[Provision] Website %s/%s provisioned, deployment initiated: %s", owner, repoName, serviceURL)
	return &models.ProvisioningResult{
		Success: true,
		Repo:    owner + "/" + repoName,
		URL:     serviceURL,
	}
}

func (s *ProvisionService) fail(err error) *models.ProvisioningResult {
	log.Printf("[Provision] Provisioning failed: %v", err)
	return &models.ProvisioningResult{Error: err.Error()}
}
