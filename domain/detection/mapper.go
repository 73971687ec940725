package detection

import "fmt"

// DefaultDisplayRatio is the share of the available width an image may occupy.
const DefaultDisplayRatio = 0.9

// TargetWidth returns the display width budget for an image given the
// available width and the share of it the image may occupy. Ratios outside
// (0,1] fall back to DefaultDisplayRatio.
func TargetWidth(available, ratio float64) float64 {
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultDisplayRatio
	}
	if available <= 0 {
		return 0
	}
	return available * ratio
}

// CapTargetWidth lowers targetWidth so that an image of the given source size
// renders no taller than maxHeight. A non-positive maxHeight or source size
// leaves targetWidth unchanged.
func CapTargetWidth(targetWidth float64, sourceWidth, sourceHeight int, maxHeight float64) float64 {
	if maxHeight <= 0 || sourceWidth <= 0 || sourceHeight <= 0 {
		return targetWidth
	}
	if limit := maxHeight * float64(sourceWidth) / float64(sourceHeight); limit < targetWidth {
		return limit
	}
	return targetWidth
}

// Geometry computes the scale factor and rendered size of a source image
// constrained to targetWidth. Images are only ever shrunk: when the target is
// at least as wide as the source the scale factor is exactly 1.
func Geometry(sourceWidth, sourceHeight int, targetWidth float64) (DisplayGeometry, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return DisplayGeometry{}, fmt.Errorf("%w: source %dx%d", ErrInvalidGeometry, sourceWidth, sourceHeight)
	}
	if targetWidth <= 0 {
		return DisplayGeometry{}, fmt.Errorf("%w: target width %g", ErrInvalidGeometry, targetWidth)
	}
	sw := float64(sourceWidth)
	scale := 1.0
	if targetWidth < sw {
		scale = targetWidth / sw
	}
	return DisplayGeometry{
		ScaleFactor:   scale,
		DisplayWidth:  sw * scale,
		DisplayHeight: float64(sourceHeight) * scale,
	}, nil
}

// Project maps detections from source pixel space into display space.
// Labels and confidences pass through unchanged and output order matches input.
// An empty input yields an empty, non-nil slice.
func Project(dets []Detection, sourceWidth, sourceHeight int, targetWidth float64) ([]DisplayBox, error) {
	geo, err := Geometry(sourceWidth, sourceHeight, targetWidth)
	if err != nil {
		return nil, err
	}
	return ProjectWith(geo, dets), nil
}

// ProjectWith applies an already computed geometry.
func ProjectWith(geo DisplayGeometry, dets []Detection) []DisplayBox {
	s := geo.ScaleFactor
	out := make([]DisplayBox, 0, len(dets))
	for _, d := range dets {
		out = append(out, DisplayBox{
			Label:      d.Label,
			Confidence: d.Confidence,
			Left:       d.X1 * s,
			Top:        d.Y1 * s,
			Width:      (d.X2 - d.X1) * s,
			Height:     (d.Y2 - d.Y1) * s,
		})
	}
	return out
}
