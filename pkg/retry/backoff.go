package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// backOffFor builds the exponential schedule for policy. A zero
// MaxElapsedTime leaves MaxAttempts as the only bound.
func backOffFor(policy Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.Multiplier = policy.Multiplier
	exp.MaxElapsedTime = policy.MaxElapsedTime
	return exp
}

// NextDelay is the un-jittered wait after the given attempt (1-based),
// capped at MaxInterval when one is set. Used for logging only.
func NextDelay(policy Policy, attempt int) time.Duration {
	delay := float64(policy.InitialInterval) * math.Pow(policy.Multiplier, float64(attempt))
	if policy.MaxInterval > 0 && delay > float64(policy.MaxInterval) {
		return policy.MaxInterval
	}
	return time.Duration(delay)
}
