package convert

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrUnsupportedParameter = errors.New("unsupported parameter type")
	ErrUnconvertibleValue   = errors.New("unconvertible native value")
)

// ConvertError provides structured error information for conversion failures.
type ConvertError struct {
	Op    string // Direction that failed ("parameters" or "record")
	Key   string // Parameter key or record field, dotted for nested values
	Type  string // Go type of the offending value
	Cause error  // Underlying sentinel
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Key, e.Type, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Type, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ConvertError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ConvertError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func unsupportedParameter(key string, value any) error {
	return &ConvertError{
		Op:    "parameters",
		Key:   key,
		Type:  fmt.Sprintf("%T", value),
		Cause: ErrUnsupportedParameter,
	}
}

func parameterOverflow(key string, value any) error {
	return &ConvertError{
		Op:    "parameters",
		Key:   key,
		Type:  fmt.Sprintf("%T", value),
		Cause: fmt.Errorf("%w: %v overflows int64", ErrUnsupportedParameter, value),
	}
}

func unconvertibleValue(key string, value any) error {
	return &ConvertError{
		Op:    "record",
		Key:   key,
		Type:  fmt.Sprintf("%T", value),
		Cause: ErrUnconvertibleValue,
	}
}

// IsUnsupportedParameter returns true if the error is a parameter rejection.
func IsUnsupportedParameter(err error) bool {
	return errors.Is(err, ErrUnsupportedParameter)
}

// IsUnconvertible returns true if the error is a record conversion failure.
func IsUnconvertible(err error) bool {
	return errors.Is(err, ErrUnconvertibleValue)
}
