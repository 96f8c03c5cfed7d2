package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollectionRequired indicates an operation was called without a collection name.
	ErrCollectionRequired = errors.New("collection name is required")

	// ErrUnknownCollection indicates the content repository has no such collection.
	// It may have been deleted after being configured.
	ErrUnknownCollection = errors.New("collection does not exist in the content repository")

	// ErrNotConfigured indicates the collection has no indexing configuration.
	ErrNotConfigured = errors.New("collection is not configured for indexing")

	// ErrRebuildInProgress indicates another rebuild of the same collection is running.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrValidationFailed indicates a rebuilt index did not pass validation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrEngineUnavailable indicates the search engine could not be reached.
	ErrEngineUnavailable = errors.New("search engine unavailable")

	// ErrEngineNotConfigured indicates no search engine host is configured.
	ErrEngineNotConfigured = errors.New("search engine not configured")
)

// ErrorKind classifies failures for propagation decisions.
type ErrorKind string

// Error kinds.
const (
	// KindConfiguration is a missing collection name or config. Not retried.
	KindConfiguration ErrorKind = "configuration"

	// KindConnectivity is an unreachable engine or repository.
	KindConnectivity ErrorKind = "connectivity"

	// KindValidation is a count or sample mismatch after a rebuild.
	KindValidation ErrorKind = "validation"

	// KindInternal is anything else.
	KindInternal ErrorKind = "internal"
)

// IndexingError carries the kind and operation of a failure.
type IndexingError struct {
	Kind       ErrorKind
	Op         string
	Collection string
	Err        error
}

// Error implements the error interface.
func (e *IndexingError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Collection, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IndexingError) Unwrap() error {
	return e.Err
}

// ConfigurationError wraps err as a KindConfiguration failure.
func ConfigurationError(op, collection string, err error) error {
	return &IndexingError{Kind: KindConfiguration, Op: op, Collection: collection, Err: err}
}

// ConnectivityError wraps err as a KindConnectivity failure.
func ConnectivityError(op string, err error) error {
	return &IndexingError{Kind: KindConnectivity, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an IndexingError.
func KindOf(err error) ErrorKind {
	var ie *IndexingError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}

// IsConfigurationError reports whether err is a configuration failure.
func IsConfigurationError(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

// IsConnectivityError reports whether err is a connectivity failure.
func IsConnectivityError(err error) bool {
	return err != nil && KindOf(err) == KindConnectivity
}

// Warning is the outcome of a best-effort step.
// A nil *Warning means the step succeeded. Callers log non-nil warnings and continue.
type Warning struct {
	Op  string
	Err error
}

// String describes the warning for logs.
func (w *Warning) String() string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", w.Op, w.Err)
}

// NewWarning returns a warning for op, or nil when err is nil.
func NewWarning(op string, err error) *Warning {
	if err == nil {
		return nil
	}
	return &Warning{Op: op, Err: err}
}
