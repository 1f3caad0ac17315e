// Package errors provides error handling for the measurement pipeline.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, hints,
// marks) and defines the sentinel kinds used across the pipeline. Classify an
// error with Mark and test it with Is:
//
//	if err := store.AppendRecords(ctx, recs); err != nil {
//	    return errors.Mark(errors.Wrap(err, "append records"), errors.ErrStorage)
//	}
//
//	if errors.Is(err, errors.ErrValidation) {
//	    // reject the request
//	}
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

	// AssertionFailedf reports a broken internal invariant
	AssertionFailedf = crdb.AssertionFailedf
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	GetAllHints = crdb.GetAllHints
)

// Error inspection and classification
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Sentinel kinds. Wrap or Mark these to add context while keeping the kind.
var (
	// ErrParse indicates the input could not be tokenized into typed rows
	ErrParse = New("parse error")

	// ErrValidation indicates a batch broke one of the batch rules and was rejected whole
	ErrValidation = New("validation failed")

	// ErrStorage indicates a record or summary store operation failed
	ErrStorage = New("storage error")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsParseError checks if an error is or wraps ErrParse
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// IsValidationError checks if an error is or wraps ErrValidation
func IsValidationError(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsStorageError checks if an error is or wraps ErrStorage
func IsStorageError(err error) bool {
	return err != nil && Is(err, ErrStorage)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// Storage wraps err with context and marks it as a storage failure.
// Returns nil when err is nil.
func Storage(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrStorage)
}

// Parsef builds a parse error with a formatted message.
func Parsef(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrParse)
}

// InvalidRequestf builds an invalid-request error with a formatted message.
func InvalidRequestf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}
