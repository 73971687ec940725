package detection

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the capture, detection and session layers.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUserCancelled     = errors.New("user cancelled")
	ErrDeviceError       = errors.New("device error")
	ErrNetwork           = errors.New("network error")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidGeometry   = errors.New("invalid geometry")
	ErrStaleResponse     = errors.New("stale response discarded")
)

// ServerError reports a non-success HTTP status from the detection service.
// It matches ErrServer under errors.Is.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.Code)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Code, e.Message)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// UserMessage maps an error to the notification text shown to the user.
// Cancellation and stale responses are not user-visible and return "".
func UserMessage(err error) string {
	var se *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserCancelled), errors.Is(err, ErrStaleResponse):
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied: grant access to the screen or image library and try again."
	case errors.As(err, &se):
		return fmt.Sprintf("Detection service failed (status %d). Please try again.", se.Code)
	case errors.Is(err, ErrNetwork):
		return "Failed to upload image: the detection service could not be reached."
	case errors.Is(err, ErrMalformedResponse):
		return "The detection service returned an unreadable response."
	case errors.Is(err, ErrDeviceError):
		return "Could not read the image from the device."
	case errors.Is(err, ErrInvalidGeometry):
		return "The image has invalid dimensions."
	default:
		return "Something went wrong: " + err.Error()
	}
}
