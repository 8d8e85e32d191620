package apperrors

import (
	"errors"
	"testing"
)

func TestIsAppError(t *testing.T) {
	err := NewRetrievalFailedError("retrieval timed out")
	appErr, ok := IsAppError(err)
	if !ok {
		t.Fatal("IsAppError returned false for an *AppError")
	}
	if appErr.Code != ErrRetrievalFailed {
		t.Errorf("Code = %v, want %v", appErr.Code, ErrRetrievalFailed)
	}
	if !appErr.Retryable {
		t.Error("retrieval failures should be retryable")
	}

	if _, ok := IsAppError(errors.New("plain error")); ok {
		t.Error("IsAppError returned true for a non-AppError")
	}
}

func TestWithDetailsMutatesAndReturnsSameError(t *testing.T) {
	err := NewGenerationFailedError("model timed out")
	returned := err.WithDetails("context deadline exceeded")
	if returned != err {
		t.Error("WithDetails should return the same *AppError it mutated")
	}
	if err.Details != "context deadline exceeded" {
		t.Errorf("Details = %v, want the given details", err.Details)
	}
}

func TestNewInternalErrorDefaultsMessage(t *testing.T) {
	err := NewInternalError("")
	if err.Message == "" {
		t.Error("NewInternalError(\"\") should default to a non-empty message")
	}
}

func TestErrorImplementsStandardErrorInterface(t *testing.T) {
	var err error = NewTimeoutError("deadline exceeded")
	if err.Error() == "" {
		t.Error("Error() returned an empty string")
	}
}
