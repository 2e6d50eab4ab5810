package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/concierge/internal/resilience"
)

const (
	// DefaultSweepInterval is how often the sweep loop scans the store.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultMaxIdle is how long a session may stay untouched before the
	// sweep evicts it.
	DefaultMaxIdle = 30 * time.Minute

	// DefaultRetryInterval reschedules the sweep after a failed scan.
	DefaultRetryInterval = time.Minute
)

// Sweeper runs the background eviction loop. A scan that fails (panics) does
// not kill the loop: the next scan is rescheduled sooner instead.
type Sweeper struct {
	store         *Store
	interval      time.Duration
	maxIdle       time.Duration
	retryInterval time.Duration
	log           zerolog.Logger

	// scan is the unit of work; overridable in tests.
	scan func() (int, error)
}

// SweeperConfig tunes the sweep loop. Zero values take the defaults.
type SweeperConfig struct {
	Interval      time.Duration
	MaxIdle       time.Duration
	RetryInterval time.Duration
}

// NewSweeper creates a sweeper over the store.
func NewSweeper(store *Store, cfg SweeperConfig, log zerolog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = DefaultMaxIdle
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	s := &Sweeper{
		store:         store,
		interval:      cfg.Interval,
		maxIdle:       cfg.MaxIdle,
		retryInterval: cfg.RetryInterval,
		log:           log,
	}
	s.scan = func() (int, error) {
		return store.SweepIdle(s.maxIdle), nil
	}
	return s
}

// Run blocks, sweeping until ctx is cancelled. Intended to be launched as a
// goroutine next to the orchestrator.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("max_idle", s.maxIdle).
		Msg("session sweeper started")

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("session sweeper stopped")
			return
		case <-timer.C:
			next := s.interval
			if _, err := s.runScan(); err != nil {
				// Self-healing backoff: come back sooner rather than
				// abandoning the loop.
				s.log.Error().Err(err).Dur("retry_in", s.retryInterval).Msg("sweep failed")
				next = s.retryInterval
			}
			timer.Reset(next)
		}
	}
}

// runScan executes one scan with panic containment, tagging failures with
// their stage.
func (s *Sweeper) runScan() (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
	}()
	err = resilience.Guard(s.log, resilience.StageOrchestration, "session_sweep", func() error {
		n, scanErr := s.scan()
		removed = n
		return scanErr
	})
	return removed, err
}
