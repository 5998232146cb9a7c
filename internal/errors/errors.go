package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the quickreply matching system
type ErrorType string

const (
	// Input errors
	ErrorTypeValidation ErrorType = "validation"

	// Availability errors
	ErrorTypeCircuitOpen ErrorType = "circuit_open"
	ErrorTypeTimeout     ErrorType = "timeout"

	// Corpus and configuration errors
	ErrorTypeCorpus ErrorType = "corpus"
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Validation reasons. Compare with errors.Is against a *ValidationError.
var (
	ErrEmptyInput          = errors.New("input is empty")
	ErrInputTooLong        = errors.New("input exceeds maximum length")
	ErrInputExceedsCeiling = errors.New("input exceeds hard safety ceiling")
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
// Callers should treat it as "temporarily unavailable", not "bad input".
var ErrCircuitOpen = errors.New("circuit open: matching temporarily unavailable")

// ErrTimeout is returned when a raced computation misses its deadline
var ErrTimeout = errors.New("matching timed out")

// ValidationError reports why an input was rejected before normalization
type ValidationError struct {
	Type      ErrorType
	Reason    error
	Length    int
	Limit     int
	Timestamp time.Time
}

// NewValidationError creates a validation error for the given reason
func NewValidationError(reason error, length, limit int) *ValidationError {
	return &ValidationError{
		Type:      ErrorTypeValidation,
		Reason:    reason,
		Length:    length,
		Limit:     limit,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("invalid input: %v (%d > %d characters)", e.Reason, e.Length, e.Limit)
	}
	return fmt.Sprintf("invalid input: %v", e.Reason)
}

// Unwrap returns the reason for errors.Is
func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// IsValidation reports whether err is (or wraps) a validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CorpusError represents a problem loading or building the response corpus
type CorpusError struct {
	Type       ErrorType
	Source     string
	Key        string
	Underlying error
	Timestamp  time.Time
}

// NewCorpusError creates a new corpus error
func NewCorpusError(source string, err error) *CorpusError {
	return &CorpusError{
		Type:       ErrorTypeCorpus,
		Source:     source,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithKey adds the offending corpus key to the error
func (e *CorpusError) WithKey(key string) *CorpusError {
	e.Key = key
	return e
}

// Error implements the error interface
func (e *CorpusError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("corpus %s: key %q: %v", e.Source, e.Key, e.Underlying)
	}
	return fmt.Sprintf("corpus %s: %v", e.Source, e.Underlying)
}

// Unwrap returns the underlying error
func (e *CorpusError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for field %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// InternalError wraps an unexpected failure inside the match pipeline.
// The detail is for logs only; Public is what end users may see.
type InternalError struct {
	Stage      string
	Underlying error
	Timestamp  time.Time
}

// PublicInternalMessage is the only text surfaced to callers for internal failures
const PublicInternalMessage = "Sorry, something went wrong while processing your message."

// NewInternalError creates an internal error for a pipeline stage
func NewInternalError(stage string, err error) *InternalError {
	return &InternalError{
		Stage:      stage,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal failure during %s: %v", e.Stage, e.Underlying)
}

// Unwrap returns the underlying error
func (e *InternalError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
