package detection

import (
	"fmt"
	"math"
)

// ImageHandle references an acquired image and the true pixel dimensions of
// the encoded bytes behind URI. Values are immutable; a new acquisition
// produces a new handle with a fresh ID.
type ImageHandle struct {
	ID     string
	URI    string
	Width  int
	Height int
}

// Valid reports whether the handle carries an identity and positive dimensions.
func (h ImageHandle) Valid() bool {
	return h.ID != "" && h.Width > 0 && h.Height > 0
}

func (h ImageHandle) String() string {
	return fmt.Sprintf("%s (%dx%d)", h.ID, h.Width, h.Height)
}

// Detection is one labeled box in source-image pixel space.
type Detection struct {
	Label      string
	Confidence float64
	X1, Y1     float64
	X2, Y2     float64
	// ClassID is the numeric class when the service reports one, -1 otherwise.
	ClassID int
}

// Validate checks the confidence range and corner ordering.
func (d Detection) Validate() error {
	for _, v := range []float64{d.Confidence, d.X1, d.Y1, d.X2, d.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("detection %q: non-finite value", d.Label)
		}
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("detection %q: confidence %.3f outside [0,1]", d.Label, d.Confidence)
	}
	if d.X1 > d.X2 || d.Y1 > d.Y2 {
		return fmt.Errorf("detection %q: inverted box (%.1f,%.1f)-(%.1f,%.1f)", d.Label, d.X1, d.Y1, d.X2, d.Y2)
	}
	return nil
}

// Caption formats the label the way the overlay and result list show it.
func (d Detection) Caption() string {
	return Caption(d.Label, d.Confidence)
}

// Summary is the one-line text form used in result listings.
func (d Detection) Summary() string {
	return fmt.Sprintf("%s - Box: (%g, %g) to (%g, %g)", d.Caption(), d.X1, d.Y1, d.X2, d.Y2)
}

// Caption renders "label (NN%)" with the confidence rounded to a whole percent.
func Caption(label string, confidence float64) string {
	return fmt.Sprintf("%s (%d%%)", label, int(math.Round(confidence*100)))
}

// DisplayGeometry is the derived size of an image rendered at a constrained width.
type DisplayGeometry struct {
	ScaleFactor   float64
	DisplayWidth  float64
	DisplayHeight float64
}

// DisplayBox is a Detection projected into display space.
type DisplayBox struct {
	Label      string
	Confidence float64
	Left       float64
	Top        float64
	Width      float64
	Height     float64
}

// Caption mirrors Detection.Caption for projected boxes.
func (b DisplayBox) Caption() string {
	return Caption(b.Label, b.Confidence)
}

// Result is what the detection service returned for one upload.
// AnnotatedURL is empty unless the service rendered its own overlay.
type Result struct {
	Detections   []Detection
	AnnotatedURL string
}

// FilterConfidence returns the detections whose confidence is at least min,
// preserving order. A non-positive min returns the input unchanged.
func FilterConfidence(dets []Detection, min float64) []Detection {
	if min <= 0 {
		return dets
	}
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}
