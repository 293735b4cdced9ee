// Package errors provides custom error types for the parity system.
// These errors enable programmatic error checking with errors.Is and errors.As
// and carry enough context (stream, field, record position) to debug a failed run.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Join is an alias for the standard library errors.Join.
var Join = errors.Join

// Common sentinel errors for the parity system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecondition indicates that input data violated an invariant the engine relies on
	ErrPrecondition = errors.New("precondition failed")

	// ErrCycle indicates a dependency cycle between streams
	ErrCycle = errors.New("dependency cycle")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IdentityKeyError reports a record whose identity key cannot be computed
// because a key field is absent or null.
type IdentityKeyError struct {
	Stream string
	Source string // "expected" or "actual"
	Index  int    // position of the record in its collection
	Field  string
}

// Error implements the error interface
func (e *IdentityKeyError) Error() string {
	return fmt.Sprintf("stream %s: %s record %d has no value for identity key field %q", e.Stream, e.Source, e.Index, e.Field)
}

// Is implements errors.Is support
func (e *IdentityKeyError) Is(target error) bool {
	return target == ErrPrecondition
}

// NewIdentityKeyError creates a new IdentityKeyError
func NewIdentityKeyError(stream, source string, index int, field string) *IdentityKeyError {
	return &IdentityKeyError{Stream: stream, Source: source, Index: index, Field: field}
}

// PreconditionError aggregates every precondition violation found while
// reconciling one stream.
type PreconditionError struct {
	Stream string
	Errs   []error
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("stream %s: %d precondition failures:\n  %s", e.Stream, len(e.Errs), strings.Join(msgs, "\n  "))
}

// Unwrap implements multi-error unwrapping
func (e *PreconditionError) Unwrap() []error {
	return e.Errs
}

// Is implements errors.Is support
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// DependencyError indicates a stream depends on a stream that is not available
type DependencyError struct {
	Stream     string
	Dependency string
	Message    string
}

// Error implements the error interface
func (e *DependencyError) Error() string {
	return fmt.Sprintf("stream %s depends on %s: %s", e.Stream, e.Dependency, e.Message)
}

// Is implements errors.Is support
func (e *DependencyError) Is(target error) bool {
	return target == ErrNotFound
}

// CycleError reports streams that could not be ordered because their
// dependencies form a cycle.
type CycleError struct {
	Streams []string
}

// Error implements the error interface
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle between streams: %s", strings.Join(e.Streams, ", "))
}

// Is implements errors.Is support
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// FetchError represents a failure of the collaborator that supplies expected records
type FetchError struct {
	Stream string
	Err    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch expected records for stream %s: %v", e.Stream, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "jsonl", "yaml"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "open", "stat"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPrecondition checks if an error is an input precondition failure
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsCycle checks if an error reports a dependency cycle
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycle)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapFetch wraps an error as a FetchError
func WrapFetch(stream string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Stream: stream, Err: err}
}
