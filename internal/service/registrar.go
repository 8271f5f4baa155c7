package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/craftbase/site-provisioner/internal/retry"
)

// ConnectionRegistrar registers a repository with the build system's named
// connection.
type ConnectionRegistrar interface {
	RegisterRepository(ctx context.Context, owner, repo string) error
}

// TriggerCreator creates a push-triggered build/deploy pipeline definition.
type TriggerCreator interface {
	CreateDeployTrigger(ctx context.Context, owner, repo, serviceName string) error
}

// Registrar connects a repository to the build system and creates its deploy
// trigger. Registration is eventually consistent on the platform side: the
// repository index is populated asynchronously, so the registrar waits a
// settling interval and then retries trigger creation with increasing backoff.
type Registrar struct {
	connections ConnectionRegistrar
	triggers    TriggerCreator

	settle          time.Duration
	triggerAttempts int
	triggerBackoff  retry.DelayFunc
}

func NewRegistrar(connections ConnectionRegistrar, triggers TriggerCreator) *Registrar {
	return &Registrar{
		connections:     connections,
		triggers:        triggers,
		settle:          10 * time.Second,
		triggerAttempts: 5,
		triggerBackoff:  retry.Linear(3*time.Second, 2*time.Second),
	}
}

// RegisterAndTrigger registers the repository and creates its push trigger.
// A registration failure is treated as success-equivalent: the desired end
// state is "repository is registered" whether this call achieved it or a
// prior one did. Exhausting every trigger-creation attempt is fatal.
func (r *Registrar) RegisterAndTrigger(ctx context.Context, owner, repo, serviceName string) error {
	if err := r.connections.RegisterRepository(ctx, owner, repo); err != nil {
		log.Printf("[Registrar] Registration of %s/%s not confirmed (may already exist): %v", owner, repo, err)
	}

	if err := sleepCtx(ctx, r.settle); err != nil {
		return err
	}

	attempt := 0
	err := retry.Do(ctx, r.triggerAttempts, r.triggerBackoff, func() error {
		attempt++
		if err := r.triggers.CreateDeployTrigger(ctx, owner, repo, serviceName); err != nil {
			log.Printf("[Registrar] Trigger creation attempt %d for %s failed: %v", attempt, serviceName, err)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create deploy trigger for %s: %w", serviceName, err)
	}
	return nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
