// Package retrypolicy wraps a single external call with bounded exponential
// backoff. Only errors the caller classifies as retryable trigger another
// attempt; everything else propagates on first occurrence.
package retrypolicy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds one retry loop: at most MaxAttempts total attempts, with an
// exponential delay between attempts clamped to [Floor, Ceil]. No delay is
// applied before the first attempt.
type Policy struct {
	MaxAttempts uint
	Floor       time.Duration
	Ceil        time.Duration
}

// NewsDefaults and StoriesDefaults mirror the per-job retry bounds.
func NewsDefaults() Policy {
	return Policy{MaxAttempts: 3, Floor: 1 * time.Second, Ceil: 16 * time.Second}
}

func StoriesDefaults() Policy {
	return Policy{MaxAttempts: 3, Floor: 2 * time.Second, Ceil: 10 * time.Second}
}

// Do runs op under the policy. A retryable(err)==false error is returned
// immediately; after exhausting attempts the last error is returned.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func() (T, error)) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	if p.Floor > 0 {
		expo.InitialInterval = p.Floor
	}
	if p.Ceil > 0 {
		expo.MaxInterval = p.Ceil
	}
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	wrapped := func() (T, error) {
		value, err := op()
		if err != nil && !retryable(err) {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return value, err
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(maxAttempts),
	)
}
