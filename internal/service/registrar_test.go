package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbase/site-provisioner/internal/retry"
)

type fakeConnections struct {
	calls int
	err   error
}

func (f *fakeConnections) RegisterRepository(ctx context.Context, owner, repo string) error {
	f.calls++
	return f.err
}

type fakeTriggers struct {
	calls    int
	failures int
	err      error
}

func (f *fakeTriggers) CreateDeployTrigger(ctx context.Context, owner, repo, serviceName string) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func newTestRegistrar(connections *fakeConnections, triggers *fakeTriggers) *Registrar {
	r := NewRegistrar(connections, triggers)
	r.settle = 0
	r.triggerBackoff = retry.Linear(0, 0)
	return r
}

func TestRegistrarRegistrationFailureIsNotFatal(t *testing.T) {
	connections := &fakeConnections{err: errors.New("already exists")}
	triggers := &fakeTriggers{}
	r := newTestRegistrar(connections, triggers)

	err := r.RegisterAndTrigger(context.Background(), "acme", "my-site", "my-site")

	require.NoError(t, err)
	assert.Equal(t, 1, connections.calls)
	assert.Equal(t, 1, triggers.calls)
}

func TestRegistrarRetriesTriggerCreation(t *testing.T) {
	triggers := &fakeTriggers{failures: 4, err: errors.New("repository not found in index")}
	r := newTestRegistrar(&fakeConnections{}, triggers)

	err := r.RegisterAndTrigger(context.Background(), "acme", "my-site", "my-site")

	require.NoError(t, err)
	assert.Equal(t, 5, triggers.calls)
}

func TestRegistrarTriggerExhaustionIsFatal(t *testing.T) {
	cause := errors.New("repository not found in index")
	triggers := &fakeTriggers{failures: 10, err: cause}
	r := newTestRegistrar(&fakeConnections{}, triggers)

	err := r.RegisterAndTrigger(context.Background(), "acme", "my-site", "my-site")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create deploy trigger for my-site")
	assert.Equal(t, 5, triggers.calls)
}

func TestRegistrarStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	triggers := &fakeTriggers{failures: 10, err: errors.New("not yet")}
	r := newTestRegistrar(&fakeConnections{}, triggers)
	r.settle = time.Hour // the settle wait must observe cancellation, not elapse

	err := r.RegisterAndTrigger(ctx, "acme", "my-site", "my-site")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, triggers.calls)
}
