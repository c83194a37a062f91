package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Policy{MaxAttempts: 3, Cooldown: time.Hour}, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesAfterCooldown(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Policy{MaxAttempts: 3, Cooldown: 5 * time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

// The flood-wait extra attempt must not consume the attempt budget: with a
// budget of one, a flood error followed by a success still succeeds.
func TestDo_FloodWaitExtraAttemptNotCounted(t *testing.T) {
	const wait = 30 * time.Millisecond

	calls := 0
	start := time.Now()
	result, err := Do(context.Background(), Policy{MaxAttempts: 1, Cooldown: time.Hour}, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &FloodWaitError{RetryAfter: wait, Err: errors.New("429")}
		}
		return "sent", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "sent", result)
	assert.Equal(t, 2, calls)
	// Exactly one suspension of roughly the mandated duration.
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, wait)
	assert.Less(t, elapsed, 10*wait)
}

func TestDo_FloodWaitRetryFailureFallsBackToLoop(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Policy{MaxAttempts: 2, Cooldown: time.Millisecond}, func(ctx context.Context) (string, error) {
		calls++
		switch calls {
		case 1:
			return "", &FloodWaitError{RetryAfter: time.Millisecond, Err: errors.New("429")}
		case 2:
			return "", errors.New("still failing")
		default:
			return "sent", nil
		}
	})

	require.NoError(t, err)
	assert.Equal(t, "sent", result)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 4, Cooldown: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 4, calls)
}

func TestDo_ContextCancelledDuringCooldown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 2, Cooldown: time.Hour}, func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation must interrupt the cooldown wait")
}
