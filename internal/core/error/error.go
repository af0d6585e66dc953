package errx

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError so callers can decide how to react without
// string matching.
type Kind string

const (
	KindInternal   Kind = "internal"
	KindInput      Kind = "input"
	KindProvider   Kind = "provider"
	KindValidation Kind = "validation"
	KindCache      Kind = "cache"
	KindGraphStore Kind = "graph_store"
)

const (
	SystemErrorMessage     = "internal error"
	InputErrorMessage      = "invalid input"
	ProviderErrorMessage   = "llm provider call failed"
	ValidationErrorMessage = "model output failed validation"
	RedisErrorMessage      = "redis operation failed"
	RedisNotFoundMessage   = "cache entry not found"
	Neo4jErrorMessage      = "neo4j operation failed"
)

// AppError wraps an underlying error with a kind and a safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Message string
	// Attempts is set for validation failures: how many model calls were made.
	Attempts int
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// New creates a new AppError with the provided information.
func New(err error, kind Kind, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Message: message,
	}
}

// Input reports a caller mistake detected before any external call.
func Input(format string, args ...any) error {
	return New(fmt.Errorf(format, args...), KindInput, InputErrorMessage)
}

// WrapProvider marks err as a failure of the named LLM provider.
func WrapProvider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%s: %w", provider, err), KindProvider, ProviderErrorMessage)
}

// Validation reports that the model never produced a valid answer.
func Validation(err error, attempts int) error {
	return &AppError{
		Err:      err,
		Kind:     KindValidation,
		Message:  fmt.Sprintf("%s after %d attempt(s)", ValidationErrorMessage, attempts),
		Attempts: attempts,
	}
}

// WrapNeo4j wraps a graph store error.
func WrapNeo4j(err error) error {
	if err == nil {
		return nil
	}
	return New(err, KindGraphStore, Neo4jErrorMessage)
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
