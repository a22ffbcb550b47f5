package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestDoWithLog_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var logged []int

	err := DoWithLog(context.Background(), fastConfig(5), "smtp", func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logged = append(logged, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, logged)
}

func TestDoWithLog_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("refused")
	calls := 0

	err := DoWithLog(context.Background(), fastConfig(3), "smtp", func() error {
		calls++
		return sentinel
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "smtp: max retry attempts (3) exceeded")
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(3), func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextDelay_CapsAtMax(t *testing.T) {
	cfg := Config{BackoffFactor: 10, MaxDelay: time.Second}
	assert.Equal(t, time.Second, nextDelay(500*time.Millisecond, cfg))
	assert.Equal(t, 50*time.Millisecond, nextDelay(5*time.Millisecond, cfg))
}
