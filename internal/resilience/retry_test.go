package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested delays without actually sleeping.
type fakeSleeper struct {
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func testPolicy(s *fakeSleeper, attempts int, base time.Duration) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: base, Sleep: s.Sleep}
}

func TestDoValue_SucceedsFirstAttempt(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0

	v, err := DoValue(context.Background(), testPolicy(sleeper, 3, time.Second), zerolog.Nop(), "op",
		func(context.Context) (int, error) {
			calls++
			return 42, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays, "no backoff when first attempt succeeds")
}

func TestDoValue_InvokesExactlyMaxAttempts(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0
	boom := errors.New("boom")

	_, err := DoValue(context.Background(), testPolicy(sleeper, 4, time.Second), zerolog.Nop(), "op",
		func(context.Context) (int, error) {
			calls++
			return 0, boom
		})

	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
}

func TestDoValue_LinearBackoff(t *testing.T) {
	sleeper := &fakeSleeper{}

	_, err := DoValue(context.Background(), testPolicy(sleeper, 3, 2*time.Second), zerolog.Nop(), "op",
		func(context.Context) (int, error) {
			return 0, errors.New("still broken")
		})

	require.Error(t, err)
	// Sleeps after attempts 1 and 2, not after the last.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func TestDoValue_RecoversMidway(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0

	v, err := DoValue(context.Background(), testPolicy(sleeper, 5, time.Second), zerolog.Nop(), "op",
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.delays, 2)
}

func TestDoValue_ValidationErrorFailsFast(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0

	_, err := DoValue(context.Background(), testPolicy(sleeper, 5, time.Second), zerolog.Nop(), "op",
		func(context.Context) (int, error) {
			calls++
			return 0, NewValidationError("location", "must not be empty")
		})

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 1, calls, "validation errors are not retried")
	assert.Empty(t, sleeper.delays)
	assert.False(t, IsExhausted(err))
}

func TestDoValue_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	_, err := DoValue(ctx, policy, zerolog.Nop(), "op",
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("down")
		})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsExhausted(err))
}

func TestDo_DefaultsApplied(t *testing.T) {
	// A zero policy must still terminate with the default attempt budget.
	sleeper := &fakeSleeper{}
	calls := 0

	err := Do(context.Background(), Policy{Sleep: sleeper.Sleep}, zerolog.Nop(), "op",
		func(context.Context) error {
			calls++
			return errors.New("nope")
		})

	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestFallbackPolicy_Retry(t *testing.T) {
	fp := FallbackPolicy{MaxAttempts: 7, BaseDelay: 50 * time.Millisecond}
	p := fp.Retry()
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, p.BaseDelay)
}
