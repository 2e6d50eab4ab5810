// Package resilience provides the error taxonomy and retry primitives shared
// by every stage of the assistant pipeline. All component boundaries convert
// raw failures into one of these tagged types so the orchestrator can decide
// what is user error, what is worth retrying, and what is a genuine fault.
package resilience

import (
	"errors"
	"fmt"
	"reflect"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageQuery         Stage = "query"
	StageResponse      Stage = "response"
	StageOrchestration Stage = "orchestration"
)

// ValidationError marks malformed or missing required input. It fails fast:
// the retry combinators abort immediately when they see one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TransientServiceError marks a collaborator failure that is expected to be
// temporary. These are retried up to the policy limit, then routed to
// fallback.
type TransientServiceError struct {
	Service string
	Cause   error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Service, e.Cause)
}

func (e *TransientServiceError) Unwrap() error { return e.Cause }

// NewTransientError wraps a collaborator failure.
func NewTransientError(service string, cause error) *TransientServiceError {
	return &TransientServiceError{Service: service, Cause: cause}
}

// AgentError tags a failure with the pipeline stage and operation it came
// from, wrapping the inner cause for diagnostics.
type AgentError struct {
	Stage     Stage
	Operation string
	Cause     error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Stage, e.Operation, e.Cause)
}

func (e *AgentError) Unwrap() error { return e.Cause }

// NewAgentError tags cause with its originating stage and operation.
func NewAgentError(stage Stage, operation string, cause error) *AgentError {
	return &AgentError{Stage: stage, Operation: operation, Cause: cause}
}

// ExhaustedError is returned by the retry combinators after every attempt has
// failed. It carries the last observed failure and the attempt count.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error { return e.Cause }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransient reports whether err is (or wraps) a TransientServiceError.
func IsTransient(err error) bool {
	var te *TransientServiceError
	return errors.As(err, &te)
}

// IsDomain reports whether err already carries one of the domain tags and
// should pass component boundaries unchanged.
func IsDomain(err error) bool {
	var ae *AgentError
	return IsValidation(err) || IsTransient(err) || errors.As(err, &ae)
}

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// RequireString fails fast with a ValidationError when value is empty.
func RequireString(field, value string) error {
	if value == "" {
		return NewValidationError(field, "must not be empty")
	}
	return nil
}

// RequireNotNil fails fast with a ValidationError when value is nil,
// including a typed nil pointer boxed in an interface.
func RequireNotNil(field string, value any) error {
	if value == nil {
		return NewValidationError(field, "must not be nil")
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return NewValidationError(field, "must not be nil")
		}
	}
	return nil
}
