package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractionError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ExtractionError{Kind: ExtractionUnavailable, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap should expose the cause")
	}
	if ExtractionKind(err) != ExtractionUnavailable {
		t.Errorf("kind = %q, want %q", ExtractionKind(err), ExtractionUnavailable)
	}
	if ExtractionKind(fmt.Errorf("wrapped: %w", err)) != ExtractionUnavailable {
		t.Error("kind should survive wrapping")
	}
	if ExtractionKind(errors.New("plain")) != "" {
		t.Error("plain errors have no extraction kind")
	}
}

func TestExtractionErrorWithoutCause(t *testing.T) {
	err := &ExtractionError{Kind: ExtractionEmpty}
	if err.Error() == "" {
		t.Error("message should name the kind even without a cause")
	}
	if ExtractionKind(err) != ExtractionEmpty {
		t.Errorf("kind = %q, want %q", ExtractionKind(err), ExtractionEmpty)
	}
}
