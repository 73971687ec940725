package session

import (
	"errors"

	"github.com/soocke/snap-detect-go/domain/detection"
)

// Phase enumerates the session states.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCaptured
	PhaseUploading
	PhaseDetected
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCaptured:
		return "captured"
	case PhaseUploading:
		return "uploading"
	case PhaseDetected:
		return "detected"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. Image is nil only in
// PhaseIdle; Detections and AnnotatedURL are set only in PhaseDetected; Err
// only in PhaseFailed.
type State struct {
	Phase        Phase
	Image        *detection.ImageHandle
	Detections   []detection.Detection
	AnnotatedURL string
	Err          error
}

// HasImage reports whether the state carries an image.
func (s State) HasImage() bool { return s.Image != nil }

// ImageID returns the current image's ID or "".
func (s State) ImageID() string {
	if s.Image == nil {
		return ""
	}
	return s.Image.ID
}

// ErrUploadRejected is returned by StartUpload outside PhaseCaptured.
var ErrUploadRejected = errors.New("upload rejected")

// ErrClosed is returned when events are posted after Close.
var ErrClosed = errors.New("session closed")

// StateListener is called on the machine goroutine after each committed
// transition. Listeners must not block or call back into the machine
// synchronously.
type StateListener func(prev, next State)

// Source exposes read access to the session.
type Source interface{ Current() State }

// Controller is the event surface used by presenters.
type Controller interface {
	Source
	ImageAcquired(detection.ImageHandle) error
	StartUpload() error
	Reset() error
	AddListener(StateListener)
}
