// Package apperr holds the error kinds shared by the pipeline components.
// Callers wrap them with fmt.Errorf("...: %w", kind) and match with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks input that was rejected before any work started.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks a missing credential or setting required by an operation.
	ErrConfiguration = errors.New("configuration is incomplete")
	// ErrProviderExhausted is returned when every candidate model failed with a not-found error.
	ErrProviderExhausted = errors.New("no compatible model found")
	// ErrExtraction is returned when no tier could produce résumé text.
	ErrExtraction = errors.New("resume text extraction failed")
	// ErrEncryption marks a failure of the cipher primitive.
	ErrEncryption = errors.New("encryption failed")
	// ErrTransport marks a failed email delivery.
	ErrTransport = errors.New("email transport failed")
)
