// Package errors provides coded errors shared by the CLI and the HTTP API.
//
// A code is machine-readable and stable; the message is for people. The
// HTTP server maps codes to status codes, the CLI prints [UserMessage].
//
//	err := errors.New(errors.ErrCodeEmptyDiagram, "no sections in %s", path)
//	if errors.Is(err, errors.ErrCodeEmptyDiagram) {
//	    // ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeFileNotFound, cause, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// Input errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidAnswer  Code = "INVALID_ANSWER"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeEmptyDiagram   Code = "EMPTY_DIAGRAM"
	ErrCodeSourceTooLarge Code = "SOURCE_TOO_LARGE"

	// Lookup errors
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeQuestionNotFound Code = "QUESTION_NOT_FOUND"

	// Backend errors
	ErrCodeCache       Code = "CACHE_ERROR"
	ErrCodeFetch       Code = "FETCH_ERROR"
	ErrCodeRender      Code = "RENDER_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is an error with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix. A wrapped
// cause is appended unless it is itself coded.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil || GetCode(e.Cause) != "" {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}
