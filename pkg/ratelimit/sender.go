// Package ratelimit implements a bounded send-with-retry primitive that is
// aware of the platform's flood-control signal. It is used for every outbound
// Telegram send: reviewer notifications and final comment delivery alike.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrAttemptsExhausted wraps the last send error once the retry budget runs out.
var ErrAttemptsExhausted = errors.New("send attempts exhausted")

// FloodWaitError is the platform's rate-limit signal carrying the mandated
// cooldown before the next request may be issued.
type FloodWaitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait %s: %v", e.RetryAfter, e.Err)
}

func (e *FloodWaitError) Unwrap() error {
	return e.Err
}

// Policy bounds the retry loop: at most MaxAttempts calls, separated by
// Cooldown for failures that do not mandate their own wait.
type Policy struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Do executes op until it succeeds or the policy is exhausted.
//
// A FloodWaitError suspends for exactly the mandated duration and grants one
// extra attempt that does not consume the attempt budget; if that extra
// attempt fails too, the loop continues normally. Every wait is a cooperative
// context-aware sleep, so unrelated work keeps making progress.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var flood *FloodWaitError
		if errors.As(err, &flood) {
			logrus.Warnf("[SENDER] flood wait on attempt %d: suspending for %s", attempt, flood.RetryAfter)
			if serr := sleep(ctx, flood.RetryAfter); serr != nil {
				return zero, serr
			}
			// One immediate retry outside the attempt counter.
			result, err = op(ctx)
			if err == nil {
				return result, nil
			}
			logrus.WithError(err).Error("[SENDER] retry after flood wait failed")
		}

		lastErr = err
		logrus.WithError(err).Warnf("[SENDER] send failed (attempt %d/%d)", attempt, attempts)

		if attempt < attempts {
			if serr := sleep(ctx, policy.Cooldown); serr != nil {
				return zero, serr
			}
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
