package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeEmptyDiagram, "no sections in %s", "plan.mmd")

	if err.Code != ErrCodeEmptyDiagram {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEmptyDiagram)
	}
	if want := "EMPTY_DIAGRAM: no sections in plan.mmd"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "read %s", "plan.mmd")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if want := "FILE_NOT_FOUND: read plan.mmd: no such file"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "x"), ErrCodeInvalidInput, true},
		{"other code", New(ErrCodeInvalidInput, "x"), ErrCodeInvalidFormat, false},
		{"outer code wins", Wrap(ErrCodeRender, New(ErrCodeInvalidFormat, "inner"), "outer"), ErrCodeRender, true},
		{"behind fmt wrap", fmt.Errorf("compile: %w", New(ErrCodeEmptyDiagram, "x")), ErrCodeEmptyDiagram, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
		{"empty code", errors.New("plain"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCache, "x")); got != ErrCodeCache {
		t.Errorf("GetCode() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"coded", New(ErrCodeInvalidInput, "diagram is empty"), "diagram is empty"},
		{"plain", errors.New("plain error"), "plain error"},
		{"plain cause", Wrap(ErrCodeFileNotFound, errors.New("denied"), "read x"), "read x: denied"},
		{"coded cause", Wrap(ErrCodeRender, New(ErrCodeInvalidFormat, "bad"), "render"), "render"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}
