// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinel errors. Wrapped errors returned by this package match these with errors.Is.
var (
	// ErrEmptyConnectionString is returned when a configuration is started
	// without a connection string.
	ErrEmptyConnectionString = errors.New("modelinit: connection string could not be empty")

	// ErrInvalidContextType is returned when the context type does not embed DbContext.
	ErrInvalidContextType = errors.New("modelinit: context type is invalid")

	// ErrConfigurationConsumed is returned by Build when the configuration
	// has already produced a factory.
	ErrConfigurationConsumed = errors.New("modelinit: configuration already built")

	// ErrUnknownDialect is returned when the connection string names no registered dialect.
	ErrUnknownDialect = errors.New("modelinit: unknown dialect")

	// ErrDriverNotRegistered is returned when the database/sql driver for a
	// dialect was not registered when the connection factory was initialized.
	ErrDriverNotRegistered = errors.New("modelinit: driver not registered")

	// ErrAlreadyInitialized is returned when dialects are registered after
	// the connection factory was initialized.
	ErrAlreadyInitialized = errors.New("modelinit: connection factory already initialized")

	// ErrDuplicateMapping is returned when two mappings configure the same type.
	ErrDuplicateMapping = errors.New("modelinit: type already configured")

	// ErrInvalidMapping is returned when a mapping cannot be turned into a model.
	ErrInvalidMapping = errors.New("modelinit: invalid mapping")

	// ErrNotMapped is returned when a type has no mapping in the compiled model.
	ErrNotMapped = errors.New("modelinit: type not mapped")

	// ErrMemoryInProduction is returned when an in-memory database is
	// requested while running in production.
	ErrMemoryInProduction = errors.New("modelinit: in-memory database not allowed in production")

	// ErrUnsupported is returned when an operation is not available for a dialect.
	ErrUnsupported = errors.New("modelinit: operation not supported")

	// ErrConnectionClosed is returned when a context uses the connection
	// of a factory that was closed.
	ErrConnectionClosed = errors.New("modelinit: connection closed")

	// ErrInvalidDatabasePath is returned when a SQLite file path is rejected.
	ErrInvalidDatabasePath = errors.New("modelinit: invalid database path")
)

// ArgumentError reports an invalid argument passed to a configuration entry point.
type ArgumentError struct {
	Param string
	Err   error
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v (parameter %q)", e.Err, e.Param)
}

// Unwrap returns the underlying sentinel.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e)
}

// MappingError reports a mapping type that could not be constructed or configured.
type MappingError struct {
	Type reflect.Type
	Err  error
}

// Error returns the error string.
func (e *MappingError) Error() string {
	return fmt.Sprintf("modelinit: mapping %s: %v", e.Type, e.Err)
}

// Unwrap returns the construction failure.
func (e *MappingError) Unwrap() error {
	return e.Err
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rule an entity failed.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "modelinit: %s failed validation", e.Entity)
	for i, f := range e.Fields {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s %s", f.Field, f.Message)
	}
	return sb.String()
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}
