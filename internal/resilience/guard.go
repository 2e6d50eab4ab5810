package resilience

import (
	"github.com/rs/zerolog"
)

// Guard runs fn, logging start and success, and converts any failure that is
// not already a tagged domain error into an AgentError for the given stage
// and operation. Domain errors pass through unchanged so callers can still
// match on them.
func Guard(log zerolog.Logger, stage Stage, operation string, fn func() error) error {
	_, err := GuardValue(log, stage, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// GuardValue is Guard for operations that produce a value.
func GuardValue[T any](log zerolog.Logger, stage Stage, operation string, fn func() (T, error)) (T, error) {
	log.Debug().Str("operation", operation).Str("stage", string(stage)).Msg("starting")

	v, err := fn()
	if err == nil {
		log.Debug().Str("operation", operation).Str("stage", string(stage)).Msg("completed")
		return v, nil
	}

	if IsDomain(err) {
		return v, err
	}
	return v, NewAgentError(stage, operation, err)
}

// GuardValueMapped is GuardValue with a caller-supplied mapper for
// non-domain failures.
func GuardValueMapped[T any](log zerolog.Logger, operation string, mapper func(error) error, fn func() (T, error)) (T, error) {
	log.Debug().Str("operation", operation).Msg("starting")

	v, err := fn()
	if err == nil {
		log.Debug().Str("operation", operation).Msg("completed")
		return v, nil
	}

	if IsDomain(err) {
		return v, err
	}
	return v, mapper(err)
}
