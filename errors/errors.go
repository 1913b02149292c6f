// Package errors provides error handling for marchkit.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Assertion errors for internal invariants
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := loadDataset(path); err != nil {
//	    return errors.Wrap(err, "failed to load dataset")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrSchema) {
//	    // dataset is malformed, abort
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions and panics
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	HasAssertionFailure              = crdb.HasAssertionFailure
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Sentinel errors for use across marchkit.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrSchema indicates the microarchitecture dataset violates its schema.
	// Schema validation is all-or-nothing: nothing is built from a dataset
	// that produces this error.
	ErrSchema = New("dataset schema violation")

	// ErrDuplicatePredicate indicates a feature-alias predicate kind was
	// registered twice under the same name.
	ErrDuplicatePredicate = New("alias predicate already registered")

	// ErrUnknownPredicate indicates a feature alias references a predicate
	// kind that was never registered. Raised when the alias is built, not
	// when the dataset is loaded.
	ErrUnknownPredicate = New("unknown alias predicate")

	// ErrIncomparable indicates an ordering comparison between two
	// microarchitectures with no ancestor relationship.
	ErrIncomparable = New("no ordering relationship")

	// ErrCollector indicates a raw-info collector failed or produced an
	// incomplete record. Host detection recovers from it by trying the
	// next collector.
	ErrCollector = New("cpu info collection failed")
)

// IsSchemaError checks if an error is or wraps ErrSchema.
func IsSchemaError(err error) bool {
	return err != nil && Is(err, ErrSchema)
}

// IsIncomparable checks if an error is or wraps ErrIncomparable.
func IsIncomparable(err error) bool {
	return err != nil && Is(err, ErrIncomparable)
}

// IsCollectorError checks if an error is or wraps ErrCollector.
func IsCollectorError(err error) bool {
	return err != nil && Is(err, ErrCollector)
}

// NewSchemaError creates a schema violation with a formatted message.
func NewSchemaError(format string, args ...interface{}) error {
	return Wrap(ErrSchema, Newf(format, args...).Error())
}

// NewCollectorError creates a collector failure with a formatted message.
func NewCollectorError(format string, args ...interface{}) error {
	return Wrap(ErrCollector, Newf(format, args...).Error())
}
