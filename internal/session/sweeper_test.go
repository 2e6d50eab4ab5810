package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSweeper_Defaults(t *testing.T) {
	sw := NewSweeper(NewStore(zerolog.Nop()), SweeperConfig{}, zerolog.Nop())
	assert.Equal(t, DefaultSweepInterval, sw.interval)
	assert.Equal(t, DefaultMaxIdle, sw.maxIdle)
	assert.Equal(t, DefaultRetryInterval, sw.retryInterval)
}

func TestSweeper_RunEvictsIdleSessions(t *testing.T) {
	st := NewStore(zerolog.Nop())

	base := time.Now()
	st.now = func() time.Time { return base }
	st.GetOrCreate("old")
	st.now = func() time.Time { return base.Add(time.Hour) }

	sw := NewSweeper(st, SweeperConfig{
		Interval: 5 * time.Millisecond,
		MaxIdle:  DefaultMaxIdle,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return st.Len() == 0
	}, time.Second, 5*time.Millisecond, "idle session evicted by the loop")

	cancel()
	<-done
}

func TestSweeper_SelfHealsAfterFailedScan(t *testing.T) {
	sw := NewSweeper(NewStore(zerolog.Nop()), SweeperConfig{
		Interval:      5 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
	}, zerolog.Nop())

	var calls atomic.Int32
	sw.scan = func() (int, error) {
		if calls.Add(1) <= 2 {
			return 0, errors.New("store unavailable")
		}
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 4
	}, time.Second, 5*time.Millisecond, "loop keeps scanning past failures")

	cancel()
	<-done
}

func TestSweeper_ScanFailuresCarryStage(t *testing.T) {
	sw := NewSweeper(NewStore(zerolog.Nop()), SweeperConfig{}, zerolog.Nop())
	sw.scan = func() (int, error) { return 0, errors.New("store unavailable") }

	_, err := sw.runScan()
	assert.ErrorContains(t, err, "orchestration/session_sweep")
}

func TestSweeper_ScanPanicIsContained(t *testing.T) {
	sw := NewSweeper(NewStore(zerolog.Nop()), SweeperConfig{}, zerolog.Nop())
	sw.scan = func() (int, error) { panic("boom") }

	removed, err := sw.runScan()
	assert.Zero(t, removed)
	assert.ErrorContains(t, err, "boom")
}
