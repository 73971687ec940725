package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// Grab returns a screen capture of the current active monitor.
func Grab() (*image.RGBA, error) {
	prepareGrab()
	return screenshot.CaptureScreen()
}
