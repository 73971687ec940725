package capture

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/soocke/snap-detect-go/domain/detection"
)

// Picker asks the user for an image file. An empty path means the user
// dismissed the dialog.
type Picker func(ctx context.Context) (string, error)

// GrabFunc captures the primary screen.
type GrabFunc func() (*image.RGBA, error)

// ImageSource acquires images and gives read access to their spooled bytes.
type ImageSource interface {
	Capture(ctx context.Context) (detection.ImageHandle, error)
	PickFromLibrary(ctx context.Context) (detection.ImageHandle, error)
	Open(h detection.ImageHandle) (io.ReadCloser, error)
	Load(h detection.ImageHandle) (image.Image, error)
	Release(h detection.ImageHandle)
}

// SourceStats summarises acquisition behaviour for instrumentation.
type SourceStats struct {
	Captures  uint64
	Picks     uint64
	Failures  uint64
	AvgEncode time.Duration
	LastAt    time.Time
}
