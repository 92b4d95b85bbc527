// Package apperr defines the error categories shared by the reconciliation
// services. Feature packages wrap these sentinels in their own condition
// errors so callers can classify failures with errors.Is without depending
// on every feature package.
package apperr

import "errors"

var (
	// ErrValidation marks payloads missing a required natural-key field.
	// No writes are attempted for the offending entity.
	ErrValidation = errors.New("validation_failed")

	// ErrNotFound marks events that reference a subscription or order
	// natural key that has not been reconciled yet, e.g. an update
	// delivered before its create.
	ErrNotFound = errors.New("not_found")
)
