// Package validate provides small input validation helpers.
package validate

import (
	"fmt"
	"strings"
)

// Error represents a validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s - %s", e.Field, e.Message)
}

// New creates a new validation error.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Newf creates a new validation error with formatted message.
func Newf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required validates that a string is not blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Newf(field, "is required")
	}
	return nil
}

// URL validates a URL string.
func URL(field, url string) error {
	if url == "" {
		return New(field, "cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return New(field, "must start with http:// or https://")
	}
	return nil
}

// Token validates a bot token format.
// Format: {bot_id}:{secret} where bot_id is numeric.
func Token(token string) error {
	if token == "" {
		return New("token", "cannot be empty")
	}

	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return New("token", "invalid format, expected {bot_id}:{secret}")
	}

	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return New("token", "bot_id must be numeric")
		}
	}

	if parts[1] == "" {
		return New("token", "secret cannot be empty")
	}

	return nil
}

// MaxLength validates string length.
func MaxLength(field, value string, max int) error {
	if len(value) > max {
		return Newf(field, "exceeds maximum length of %d", max)
	}
	return nil
}
