package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheMiss is returned when an entry is not in the cache store.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache store unavailable")

	// ErrInvalidDocument is returned when a document fails schema validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrTextUnreadable is returned when no usable text could be extracted
	// from a PDF by any available method.
	ErrTextUnreadable = errors.New("no readable text in document")
)

// ExtractionErrorKind classifies why a structured extraction could not be
// used, so the orchestrator can decide between retrying, salvaging and
// falling back to heuristics without matching on error strings.
type ExtractionErrorKind string

const (
	// ExtractionUnavailable means the backend is down or misconfigured.
	ExtractionUnavailable ExtractionErrorKind = "unavailable"
	// ExtractionUnparseable means the backend answered but the output was
	// not salvageable JSON.
	ExtractionUnparseable ExtractionErrorKind = "unparseable"
	// ExtractionEmpty means the output parsed but carried zero usable
	// attributes or requirements.
	ExtractionEmpty ExtractionErrorKind = "empty"
)

// ExtractionError is the tagged failure type of the structured extractor
// contract. Every kind is recoverable via the heuristic fallback.
type ExtractionError struct {
	Kind ExtractionErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed (%s)", e.Kind)
	}
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractionKind returns the classification of err, or "" when err is not an
// ExtractionError.
func ExtractionKind(err error) ExtractionErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
