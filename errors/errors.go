// Package errors provides error handling for Burrow.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrTenantNotFound) {
//	    // handle unknown tenant
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

// Mark associates an error with a sentinel without hiding the original
// cause from Is/As.
var Mark = crdb.Mark

// CombineErrors and Join are used during pool teardown, where a failure
// closing one handle must not mask failures closing the rest.
var (
	CombineErrors = crdb.CombineErrors
	Join          = crdb.Join
)

// GetStack returns the reportable stack trace attached to an error, if any.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors for use across Burrow.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrTenantNotFound indicates the tenant id has never been registered
	ErrTenantNotFound = New("tenant not found")

	// ErrDuplicateTenant indicates the tenant id is already registered
	ErrDuplicateTenant = New("tenant already registered")

	// ErrInvalidTenantID indicates the tenant id failed identifier validation
	ErrInvalidTenantID = New("invalid tenant id")

	// ErrConnectionFailure indicates a tenant store could not be opened or used
	ErrConnectionFailure = New("connection failure")

	// ErrShutdown indicates teardown of one or more handles failed
	ErrShutdown = New("shutdown incomplete")
)

// IsTenantNotFound checks if an error is or wraps ErrTenantNotFound.
func IsTenantNotFound(err error) bool {
	return err != nil && Is(err, ErrTenantNotFound)
}

// IsDuplicateTenant checks if an error is or wraps ErrDuplicateTenant.
func IsDuplicateTenant(err error) bool {
	return err != nil && Is(err, ErrDuplicateTenant)
}

// IsConnectionFailure checks if an error is or wraps ErrConnectionFailure.
func IsConnectionFailure(err error) bool {
	return err != nil && Is(err, ErrConnectionFailure)
}

// NewTenantNotFound creates a tenant-not-found error naming the tenant.
func NewTenantNotFound(id string) error {
	return Wrapf(ErrTenantNotFound, "tenant %q", id)
}

// NewDuplicateTenant creates a duplicate-registration error naming the tenant.
func NewDuplicateTenant(id string) error {
	return Wrapf(ErrDuplicateTenant, "tenant %q", id)
}
