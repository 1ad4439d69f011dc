package palpa

import (
	"errors"
	"fmt"
	"os"
)

// ErrorType represents the category of a lookup failure
type ErrorType int

const (
	// ErrTypeNetwork indicates the request never produced a response
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeParse indicates a body that is not a lookup response
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// LookupError describes a failed deposit lookup
type LookupError struct {
	Type       ErrorType
	Message    string
	StatusCode int   // HTTP status code (ErrTypeHTTP only)
	Timeout    bool  // Network error caused by a timeout
	Err        error // Underlying error (if any)
}

// Error implements the error interface
func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a network-level error
func NewNetworkError(message string, err error) *LookupError {
	return &LookupError{
		Type:    ErrTypeNetwork,
		Message: message,
		Timeout: err != nil && os.IsTimeout(err),
		Err:     err,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *LookupError {
	return &LookupError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *LookupError {
	return &LookupError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

func isType(err error, t ErrorType) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Type == t
	}
	return false
}

// IsNetworkError checks if an error is a network error
func IsNetworkError(err error) bool {
	return isType(err, ErrTypeNetwork)
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	return isType(err, ErrTypeHTTP)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	return isType(err, ErrTypeParse)
}
