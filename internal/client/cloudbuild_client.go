package client

import (
	"context"
	"fmt"
	"log"
	"time"

	cloudbuildv1 "google.golang.org/api/cloudbuild/v1"
	cloudbuildv2 "google.golang.org/api/cloudbuild/v2"

	"github.com/craftbase/site-provisioner/internal/template"
)

// CloudBuildClient wraps the Cloud Build API: connection-level repository
// registration (v2 surface), trigger management and on-demand builds (v1
// surface).
type CloudBuildClient struct {
	v1 *cloudbuildv1.Service
	v2 *cloudbuildv2.Service

	projectID    string
	region       string
	connection   string
	pollInterval time.Duration
}

func NewCloudBuildClient(ctx context.Context, projectID, region, connection string) (*CloudBuildClient, error) {
	v1, err := cloudbuildv1.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloudbuild v1 service: %w", err)
	}
	v2, err := cloudbuildv2.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloudbuild v2 service: %w", err)
	}
	return &CloudBuildClient{
		v1:           v1,
		v2:           v2,
		projectID:    projectID,
		region:       region,
		connection:   connection,
		pollInterval: 5 * time.Second,
	}, nil
}

func (c *CloudBuildClient) locationParent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.projectID, c.region)
}

func (c *CloudBuildClient) connectionParent() string {
	return fmt.Sprintf("%s/connections/%s", c.locationParent(), c.connection)
}

func (c *CloudBuildClient) repositoryResource(owner, repo string) string {
	return fmt.Sprintf("%s/repositories/%s", c.connectionParent(), repositoryID(owner, repo))
}

func repositoryID(owner, repo string) string {
	return owner + "_" + repo
}

// RegisterRepository registers a GitHub repository with the named build
// connection. The call is not idempotent at the API level; callers treat an
// error here as "may already be registered".
func (c *CloudBuildClient) RegisterRepository(ctx context.Context, owner, repo string) error {
	repoID := repositoryID(owner, repo)
	log.Printf("[CloudBuild] Registering %s with connection %s", repoID, c.connection)

	body := &cloudbuildv2.Repository{
		RemoteUri: fmt.Sprintf("https://github.com/%s/%s.git", owner, repo),
	}
	_, err := c.v2.Projects.Locations.Connections.Repositories.
		Create(c.connectionParent(), body).
		RepositoryId(repoID).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("register repository %s: %w", repoID, err)
	}

	log.Printf("[CloudBuild] Repository registered: %s", repoID)
	return nil
}

// CreateDeployTrigger creates the push trigger that builds and deploys the
// service whenever commits land on main.
func (c *CloudBuildClient) CreateDeployTrigger(ctx context.Context, owner, repo, serviceName string) error {
	trigger := &cloudbuildv1.BuildTrigger{
		Name:        "deploy-" + serviceName,
		Description: "Deploys " + serviceName,
		Filename:    template.PipelineFileName,
		RepositoryEventConfig: &cloudbuildv1.RepositoryEventConfig{
			Repository: c.repositoryResource(owner, repo),
			Push: &cloudbuildv1.PushFilter{
				Branch: "main",
			},
		},
	}

	_, err := c.v1.Projects.Locations.Triggers.
		Create(c.locationParent(), trigger).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("create trigger deploy-%s: %w", serviceName, err)
	}

	log.Printf("[CloudBuild] Trigger created: deploy-%s", serviceName)
	return nil
}

// BuildImage submits a build of the repository's current main revision that
// produces the given image, and blocks until the build finishes.
func (c *CloudBuildClient) BuildImage(ctx context.Context, owner, repo, image string) error {
	log.Printf("[CloudBuild] Starting build of %s from %s/%s@main", image, owner, repo)

	build := &cloudbuildv1.Build{
		Steps: []*cloudbuildv1.BuildStep{{
			Name: "gcr.io/cloud-builders/docker",
			Args: []string{"build", "-t", image, "."},
		}},
		Images: []string{image},
		Source: &cloudbuildv1.Source{
			ConnectedRepository: &cloudbuildv1.ConnectedRepository{
				Repository: c.repositoryResource(owner, repo),
				Revision:   "main",
			},
		},
		Options: &cloudbuildv1.BuildOptions{
			Logging: "CLOUD_LOGGING_ONLY",
		},
	}

	op, err := c.v1.Projects.Locations.Builds.
		Create(c.locationParent(), build).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("submit build: %w", err)
	}

	if err := c.waitForOperation(ctx, op.Name); err != nil {
		return err
	}

	log.Printf("[CloudBuild] Build completed: %s", image)
	return nil
}

// waitForOperation polls a build operation until it finishes. The build
// platform enforces its own timeout; polling errors are retried on the next
// tick rather than aborting the wait.
func (c *CloudBuildClient) waitForOperation(ctx context.Context, name string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		op, err := c.v1.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			log.Printf("[CloudBuild] Error polling operation %s: %v", name, err)
			continue
		}
		if !op.Done {
			continue
		}
		if op.Error != nil {
			return fmt.Errorf("build failed: %s", op.Error.Message)
		}
		return nil
	}
}
