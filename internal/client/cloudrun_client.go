package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	run "google.golang.org/api/run/v2"
)

// CloudRunClient deploys container images as Cloud Run services.
type CloudRunClient struct {
	svc *run.Service

	projectID    string
	region       string
	pollInterval time.Duration
}

func NewCloudRunClient(ctx context.Context, projectID, region string) (*CloudRunClient, error) {
	svc, err := run.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create run service: %w", err)
	}
	return &CloudRunClient{
		svc:          svc,
		projectID:    projectID,
		region:       region,
		pollInterval: 5 * time.Second,
	}, nil
}

func (c *CloudRunClient) locationParent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.projectID, c.region)
}

// Deploy creates a new service instance running the image and blocks until
// the deployment finishes, returning the externally assigned URL (which may
// be empty if the platform reports none; callers decide whether that is
// fatal).
func (c *CloudRunClient) Deploy(ctx context.Context, serviceName, image string, port int64) (string, error) {
	log.Printf("[CloudRun] Deploying service %s (image %s, port %d)", serviceName, image, port)

	service := &run.GoogleCloudRunV2Service{
		Template: &run.GoogleCloudRunV2RevisionTemplate{
			Containers: []*run.GoogleCloudRunV2Container{{
				Image: image,
				Ports: []*run.GoogleCloudRunV2ContainerPort{{
					ContainerPort: port,
				}},
			}},
		},
	}

	op, err := c.svc.Projects.Locations.Services.
		Create(c.locationParent(), service).
		ServiceId(serviceName).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create service %s: %w", serviceName, err)
	}

	deployed, err := c.waitForService(ctx, op.Name)
	if err != nil {
		return "", err
	}

	log.Printf("[CloudRun] Service %s deployed: %s", serviceName, deployed.Uri)
	return deployed.Uri, nil
}

func (c *CloudRunClient) waitForService(ctx context.Context, opName string) (*run.GoogleCloudRunV2Service, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		op, err := c.svc.Projects.Locations.Operations.Get(opName).Context(ctx).Do()
		if err != nil {
			log.Printf("[CloudRun] Error polling operation %s: %v", opName, err)
			continue
		}
		if !op.Done {
			continue
		}
		if op.Error != nil {
			return nil, fmt.Errorf("deployment failed: %s", op.Error.Message)
		}

		var service run.GoogleCloudRunV2Service
		if err := json.Unmarshal(op.Response, &service); err != nil {
			return nil, fmt.Errorf("decode deployed service: %w", err)
		}
		return &service, nil
	}
}
