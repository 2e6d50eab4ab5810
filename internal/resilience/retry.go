package resilience

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts is the retry budget used when a policy leaves it unset.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the unit of linear backoff between attempts.
	DefaultBaseDelay = 2 * time.Second
)

// Sleeper pauses for d or returns early when ctx is cancelled.
// Injectable so retry timing is testable without real waits.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy is a stateless description of how an operation should be retried.
// The delay before attempt n+1 is BaseDelay * n (linear backoff).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       Sleeper
}

// DefaultPolicy returns the policy used by pipeline stages unless configured
// otherwise: 3 attempts, 2s linear backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Sleep:       defaultSleep,
	}
}

// FallbackPolicy extends Policy with the fallback switches carried in
// configuration. FallbackTimeout is declared but never compared against
// elapsed time; it is kept only because callers configure it.
type FallbackPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	FallbackEnabled bool
	FallbackTimeout time.Duration
}

// Retry converts the fallback policy into a retry policy.
func (p FallbackPolicy) Retry() Policy {
	return Policy{MaxAttempts: p.MaxAttempts, BaseDelay: p.BaseDelay}
}

// DefaultFallbackPolicy returns the production fallback configuration.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		MaxAttempts:     DefaultMaxAttempts,
		BaseDelay:       DefaultBaseDelay,
		FallbackEnabled: true,
		FallbackTimeout: 10 * time.Second,
	}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = defaultSleep
	}
	return p
}

// Do invokes fn up to policy.MaxAttempts times. After failed attempt n
// (except the last) it sleeps BaseDelay*n before retrying. A ValidationError
// aborts immediately without further attempts. After exhaustion the last
// failure is returned wrapped in an ExhaustedError.
func Do(ctx context.Context, policy Policy, log zerolog.Logger, name string, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, policy, log, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, policy Policy, log zerolog.Logger, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	p := policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Debug().Str("operation", name).Int("attempt", attempt).Msg("succeeded after retry")
			}
			return v, nil
		}
		lastErr = err

		if IsValidation(err) {
			// Bad input will not get better by asking again.
			return zero, err
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.BaseDelay * time.Duration(attempt)
		log.Warn().
			Str("operation", name).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("attempt failed, retrying")

		if serr := p.Sleep(ctx, delay); serr != nil {
			return zero, &ExhaustedError{Attempts: attempt, Cause: lastErr}
		}
	}

	log.Error().Str("operation", name).Int("attempts", p.MaxAttempts).Err(lastErr).Msg("retries exhausted")
	return zero, &ExhaustedError{Attempts: p.MaxAttempts, Cause: lastErr}
}
