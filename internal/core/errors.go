package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors. Insufficient data during warm-up is NOT reported through
	// these: detectors return empty results instead. These cover callers
	// handing the harness nothing to work with.
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no candle data available"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Statistics errors. InsufficientSample is returned by robustness checks
	// when the pooled trade count is too small for the statistic to mean
	// anything; distinct from a computed zero.
	ErrInsufficientSample = &Error{Code: "INSUFFICIENT_SAMPLE", Message: "too few trades for a meaningful statistic"}
	ErrDegenerateStats    = &Error{Code: "DEGENERATE_STATS", Message: "degenerate input for statistic"}
)
