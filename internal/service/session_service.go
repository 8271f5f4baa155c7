package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/craftbase/site-provisioner/internal/config"
	"github.com/craftbase/site-provisioner/internal/models"
	"github.com/craftbase/site-provisioner/internal/naming"
)

// ImageBuilder builds a container image from a connected repository's
// current main revision, blocking until the build finishes.
type ImageBuilder interface {
	BuildImage(ctx context.Context, owner, repo, image string) error
}

// ServiceDeployer deploys an image as a new hosted service instance,
// blocking until deployment completes, and returns the assigned URL.
type ServiceDeployer interface {
	Deploy(ctx context.Context, serviceName, image string, port int64) (string, error)
}

// SessionService runs the live-editing flow: build the repository's current
// main branch into an image and deploy it under a fresh session identifier.
// Sessions are independent of each other and of the permanent deployment;
// uniqueness comes from the session id, not from any lock.
type SessionService struct {
	cfg         *config.Config
	connections ConnectionRegistrar
	builder     ImageBuilder
	deployer    ServiceDeployer

	registerSettle time.Duration
}

func NewSessionService(
	cfg *config.Config,
	connections ConnectionRegistrar,
	builder ImageBuilder,
	deployer ServiceDeployer,
) *SessionService {
	return &SessionService{
		cfg:            cfg,
		connections:    connections,
		builder:        builder,
		deployer:       deployer,
		registerSettle: 5 * time.Second,
	}
}

// ServiceName returns the hosted-service name for a session of the given
// repository.
func ServiceName(repo, sessionID string) string {
	return fmt.Sprintf("%s-session-%s", repo, sessionID)
}

// Start begins a live-editing session against fullRepoName ("owner/repo").
// Malformed input fails before any network call.
func (s *SessionService) Start(ctx context.Context, fullRepoName string) *models.SessionResult {
	owner, repo, err := splitRepoName(fullRepoName)
	if err != nil {
		return s.fail(err)
	}
	if err := s.cfg.ValidateSession(); err != nil {
		return s.fail(err)
	}

	sessionID := naming.NewSessionID()
	serviceName := ServiceName(repo, sessionID)
	image := fmt.Sprintf("gcr.io/%s/%s", s.cfg.Cloud.ProjectID, serviceName)

	log.Printf("[Session] Starting editing session %s for %s", sessionID, fullRepoName)

	// Same success-equivalent semantics as provisioning: the repository may
	// already be registered from an earlier run.
	if err := s.connections.RegisterRepository(ctx, owner, repo); err != nil {
		log.Printf("[Session] Registration of %s not confirmed (may already exist): %v", fullRepoName, err)
	}
	if err := sleepCtx(ctx, s.registerSettle); err != nil {
		return s.fail(err)
	}

	if err := s.builder.BuildImage(ctx, owner, repo, image); err != nil {
		return s.fail(fmt.Errorf("build %s: %w", image, err))
	}

	url, err := s.deployer.Deploy(ctx, serviceName, image, int64(s.cfg.Session.AppPort))
	if err != nil {
		return s.fail(fmt.Errorf("deploy %s: %w", serviceName, err))
	}
	if url == "" {
		// A deployment nobody can reach is not a usable session.
		return s.fail(fmt.Errorf("service %s was deployed without a URL", serviceName))
	}

	log.Printf("[Session] Session %s ready: %s", sessionID, url)
	return &models.SessionResult{
		Success:   true,
		URL:       url,
		SessionID: sessionID,
	}
}

func (s *SessionService) fail(err error) *models.SessionResult {
	log.Printf("[Session] Session start failed: %v", err)
	return &models.SessionResult{Error: err.Error()}
}

func splitRepoName(fullRepoName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullRepoName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository name %q, expected \"owner/repo\"", fullRepoName)
	}
	return owner, repo, nil
}
