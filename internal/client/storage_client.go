package client

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/storage"
)

// StorageClient creates the per-run build-logs buckets.
type StorageClient struct {
	client    *storage.Client
	projectID string
}

func NewStorageClient(ctx context.Context, projectID string) (*StorageClient, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &StorageClient{client: c, projectID: projectID}, nil
}

// CreateLogsBucket creates a bucket with uniform bucket-level access in the
// given location. Each provisioning run gets its own bucket so build logs
// stay isolated per run.
func (c *StorageClient) CreateLogsBucket(ctx context.Context, name, location string) error {
	log.Printf("[Storage] Creating build logs bucket %s in %s", name, location)

	attrs := &storage.BucketAttrs{
		Location:                 location,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
	}
	if err := c.client.Bucket(name).Create(ctx, c.projectID, attrs); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}

func (c *StorageClient) Close() error {
	return c.client.Close()
}
