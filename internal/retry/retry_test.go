package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, Linear(time.Hour, time.Hour), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoSucceedsOnFinalAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, Linear(time.Millisecond, 0), func() error {
		calls++
		if calls < 5 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), 3, Linear(time.Millisecond, 0), func() error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestDoContextCancelAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, 5, Linear(time.Hour, 0), func() error {
		calls++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestLinearSchedule(t *testing.T) {
	delay := Linear(3*time.Second, 2*time.Second)
	assert.Equal(t, 3*time.Second, delay(0))
	assert.Equal(t, 5*time.Second, delay(1))
	assert.Equal(t, 9*time.Second, delay(3))
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	err := Do(context.Background(), 0, Linear(0, 0), func() error { return nil })
	require.Error(t, err)
}
