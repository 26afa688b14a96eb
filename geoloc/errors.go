package geoloc

import (
	"context"
	"errors"
	"fmt"
)

// Platform error codes, matching the geolocation API's PositionError values.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Sentinel errors - use with errors.Is().
var (
	ErrPermissionDenied    = errors.New("geoloc: permission denied")
	ErrPositionUnavailable = errors.New("geoloc: position unavailable")
	ErrTimeout             = errors.New("geoloc: request timed out")
	ErrUnknown             = errors.New("geoloc: unknown failure")
)

// GeoError is a failed geolocation request. It carries both the technical
// message and a user-facing one. Use errors.As() to extract details,
// errors.Is() to match sentinels.
type GeoError struct {
	Code        int
	Message     string
	UserMessage string
	cause       error
}

func (e *GeoError) Error() string {
	return fmt.Sprintf("geoloc: request failed: %s (code=%d)", e.Message, e.Code)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *GeoError) Unwrap() error { return e.cause }

// NewGeoError builds a GeoError from a platform code and technical message.
// The user-facing message and sentinel are derived from the code.
func NewGeoError(code int, message string) *GeoError {
	return &GeoError{
		Code:        code,
		Message:     message,
		UserMessage: Guidance(code),
		cause:       detectSentinel(code),
	}
}

// Guidance returns user-facing help text keyed by platform error code.
func Guidance(code int) string {
	switch code {
	case CodePermissionDenied:
		return "Location permission was denied. Enable location access for this site and try again."
	case CodePositionUnavailable:
		return "Your position could not be determined. Check that location services are switched on."
	case CodeTimeout:
		return "Locating you took too long. Try again somewhere with better reception."
	default:
		return "Location is unavailable for an unknown reason."
	}
}

func detectSentinel(code int) error {
	switch code {
	case CodePermissionDenied:
		return ErrPermissionDenied
	case CodePositionUnavailable:
		return ErrPositionUnavailable
	case CodeTimeout:
		return ErrTimeout
	default:
		return ErrUnknown
	}
}

// normalizeError maps an arbitrary Locator failure to a *GeoError. A value
// that already is a *GeoError passes through; context deadline expiry becomes
// a timeout; everything else is an unknown failure.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	var ge *GeoError
	if errors.As(err, &ge) {
		return ge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewGeoError(CodeTimeout, err.Error())
	}
	return NewGeoError(0, err.Error())
}
