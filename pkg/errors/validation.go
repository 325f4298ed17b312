package errors

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// MaxSourceBytes bounds the size of a diagram accepted from a file or request.
const MaxSourceBytes = 1 << 20

// ValidatePath checks a user-supplied file path. Absolute paths are allowed;
// control characters and empty paths are not.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains control characters")
		}
	}
	return nil
}

// ValidateSource checks that a diagram is non-empty and within MaxSourceBytes.
func ValidateSource(src []byte) error {
	if len(src) > MaxSourceBytes {
		return New(ErrCodeSourceTooLarge, "diagram is %d bytes, limit is %d", len(src), MaxSourceBytes)
	}
	if strings.TrimSpace(string(src)) == "" {
		return New(ErrCodeInvalidInput, "diagram is empty")
	}
	return nil
}

// ValidateFormats checks that every format is one of supported.
// Formats are compared case-insensitively and must not repeat.
func ValidateFormats(formats, supported []string) error {
	if len(formats) == 0 {
		return New(ErrCodeInvalidFormat, "no output format given")
	}
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(supported, f) {
			return New(ErrCodeInvalidFormat, "unknown format %q (supported: %s)", f, strings.Join(supported, ", "))
		}
		if seen[f] {
			return New(ErrCodeInvalidFormat, "format %q given twice", f)
		}
		seen[f] = true
	}
	return nil
}

var questionIDRe = regexp.MustCompile(`^\w+$`)

// ValidateQuestionID checks that id could name a diagram node.
func ValidateQuestionID(id string) error {
	if !questionIDRe.MatchString(id) {
		return New(ErrCodeInvalidAnswer, "invalid question id %q", id)
	}
	return nil
}

// ParseAnswerFlag splits a "QUESTION=ANSWER" argument. The answer may
// contain '=' and spaces; it is trimmed but may not be empty.
func ParseAnswerFlag(s string) (questionID, answer string, err error) {
	id, ans, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", New(ErrCodeInvalidAnswer, "answer %q must look like QUESTION=ANSWER", s)
	}
	id, ans = strings.TrimSpace(id), strings.TrimSpace(ans)
	if err := ValidateQuestionID(id); err != nil {
		return "", "", err
	}
	if ans == "" {
		return "", "", New(ErrCodeInvalidAnswer, "answer for %s is empty", id)
	}
	return id, ans, nil
}
