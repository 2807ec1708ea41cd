package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := NewOCRFailedError("rec-1", fmt.Errorf("engine down"))
	if CodeOf(err) != ErrorOCRFailed {
		t.Errorf("CodeOf() = %q, want OCR_FAILED", CodeOf(err))
	}

	wrapped := fmt.Errorf("pipeline: %w", err)
	if CodeOf(wrapped) != ErrorOCRFailed {
		t.Errorf("CodeOf(wrapped) = %q, want OCR_FAILED", CodeOf(wrapped))
	}

	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("plain errors must have no category")
	}
	if CodeOf(nil) != "" {
		t.Error("nil must have no category")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewOCRFailedError("rec-1", cause)

	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NewNotFoundError("rec-1")) {
		t.Error("IsNotFound() = false for a not-found error")
	}
	if IsNotFound(NewValidationError("bad input")) {
		t.Error("IsNotFound() = true for a validation error")
	}
}

// Not-found messages must not reveal whether the record exists for someone
// else.
func TestNotFoundMessageIsGeneric(t *testing.T) {
	err := NewNotFoundError("rec-1")
	if err.Message != "Record not found" {
		t.Errorf("message = %q, want the generic one", err.Message)
	}
}
