package delivery

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors - use with errors.Is().
var (
	ErrNotConfigured    = errors.New("giftrelay: delivery target not configured")
	ErrInvalidToken     = errors.New("giftrelay: invalid bot token")
	ErrUnauthorized     = errors.New("giftrelay: unauthorized (invalid token)")
	ErrChatNotFound     = errors.New("giftrelay: chat not found")
	ErrTooManyRequests  = errors.New("giftrelay: too many requests")
	ErrCircuitOpen      = errors.New("giftrelay: circuit breaker open")
	ErrResponseTooLarge = errors.New("giftrelay: response too large")
)

// DeliveryError represents a failed delivery attempt: either a non-2xx HTTP
// status or an API-level rejection ({ok:false}). Use errors.As() to extract
// details, errors.Is() to match sentinels.
type DeliveryError struct {
	Method      string
	Status      int
	Code        int
	Description string
	cause       error
}

func (e *DeliveryError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("giftrelay: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
	}
	return fmt.Sprintf("giftrelay: %s failed with status %d", e.Method, e.Status)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *DeliveryError) Unwrap() error { return e.cause }

// NewDeliveryError creates a DeliveryError with automatic sentinel detection.
func NewDeliveryError(method string, status, code int, description string) *DeliveryError {
	return &DeliveryError{
		Method:      method,
		Status:      status,
		Code:        code,
		Description: description,
		cause:       detectSentinel(code, description),
	}
}

// detectSentinel maps bot API error codes/descriptions to sentinel errors.
func detectSentinel(code int, desc string) error {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "chat not found"):
		return ErrChatNotFound
	}
	switch code {
	case 401:
		return ErrUnauthorized
	case 429:
		return ErrTooManyRequests
	}
	return nil
}
