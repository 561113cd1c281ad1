package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryConnection Category = "connection"
	CategoryAuth       Category = "auth"
)

// CraftError is a coded error with an explanation and a fix hint.
type CraftError struct {
	// Code is a unique error identifier (e.g., "CW201").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually the underlying cause.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CraftError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CraftError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *CraftError) WithDetail(d string) *CraftError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CraftError) WithSuggestion(s string) *CraftError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error and uses its text as the detail when none is set.
func (e *CraftError) Wrap(err error) *CraftError {
	e.Wrapped = err
	if e.Detail == "" && err != nil {
		e.Detail = err.Error()
	}
	return e
}

// New creates a CraftError from a registered error code.
func New(code string) *CraftError {
	template, ok := registry[code]
	if !ok {
		return &CraftError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CraftError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new CraftError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CraftError {
	return &CraftError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a CraftError with the given code. A CraftError
// anywhere in err's chain is returned as-is.
func FromError(err error, code string) *CraftError {
	if err == nil {
		return nil
	}
	var ce *CraftError
	if stderrors.As(err, &ce) {
		return ce
	}
	e := New(code)
	e.Wrapped = err
	e.Detail = err.Error()
	return e
}
