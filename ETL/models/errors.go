package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the reconciliation pipeline
var (
	// ErrSchemaMismatch indicates a dataset lacks required logical columns
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrReconciliationFailure indicates the joins produced nothing despite valid schemas
	ErrReconciliationFailure = errors.New("reconciliation failure")

	// ErrNoInput indicates that no category carries any row
	ErrNoInput = errors.New("no input data")
)

// SchemaMismatchError lists every logical column a dataset is missing
type SchemaMismatchError struct {
	Category       Category
	MissingColumns []string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s file: missing columns: %s",
		e.Category, strings.Join(e.MissingColumns, ", "))
}

// Is implements errors.Is support
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// ReconciliationFailureError signals a systemic key mismatch between datasets
type ReconciliationFailureError struct {
	Reason string
}

// Error implements the error interface
func (e *ReconciliationFailureError) Error() string {
	return fmt.Sprintf("reconciliation failure: %s", e.Reason)
}

// Is implements errors.Is support
func (e *ReconciliationFailureError) Is(target error) bool {
	return target == ErrReconciliationFailure
}

// IsSchemaMismatch reports whether err wraps a schema mismatch
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsReconciliationFailure reports whether err wraps a reconciliation failure
func IsReconciliationFailure(err error) bool {
	return errors.Is(err, ErrReconciliationFailure)
}
