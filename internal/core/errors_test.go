package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := WrapError(ErrConfigInvalid, fmt.Errorf("weight out of range"))
	if !errors.Is(wrapped, ErrConfigInvalid) {
		t.Error("wrapped error should match its base by code")
	}
	if errors.Is(wrapped, ErrNoData) {
		t.Error("wrapped error should not match a different code")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	wrapped := WrapError(ErrInsufficientSample, cause)
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestError_Message(t *testing.T) {
	if ErrNoData.Error() != "[NO_DATA] no candle data available" {
		t.Errorf("unexpected message: %s", ErrNoData.Error())
	}
	wrapped := WrapError(ErrNoData, fmt.Errorf("empty csv"))
	want := "[NO_DATA] no candle data available: empty csv"
	if wrapped.Error() != want {
		t.Errorf("message = %q, want %q", wrapped.Error(), want)
	}
}
