package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/overlay"
	"github.com/soocke/snap-detect-go/domain/session"
	"github.com/soocke/snap-detect-go/ui/presenter"
)

// HeadlessOptions configures a single detection run without a window.
type HeadlessOptions struct {
	ImagePath string // image to upload; ignored when Capture is set
	Capture   bool   // grab the screen instead of reading ImagePath
	OutPath   string // annotated PNG destination
	Width     int    // available display width; 0 uses the configured window width
}

// Report summarises a headless run.
type Report struct {
	Image    detection.ImageHandle
	Geometry detection.DisplayGeometry
	Boxes    []detection.DisplayBox
	Lines    []string
	Server   bool // output is the server-annotated image
	OutPath  string
}

// RunHeadless drives one capture, upload and render cycle through the same
// session machine the window uses, then writes the annotated image as PNG.
func RunHeadless(ctx context.Context, c *AppContainer, opts HeadlessOptions) (Report, error) {
	var rep Report
	if opts.OutPath == "" {
		return rep, errors.New("headless: output path required")
	}
	acquire := c.Source.Capture
	if !opts.Capture {
		if opts.ImagePath == "" {
			return rep, errors.New("headless: image path required")
		}
		path := opts.ImagePath
		c.Source.SetPicker(func(context.Context) (string, error) { return path, nil })
		acquire = c.Source.PickFromLibrary
	}

	h, err := acquire(ctx)
	if err != nil {
		return rep, err
	}
	defer c.Source.Release(h)
	rep.Image = h

	done := make(chan session.State, 1)
	c.Session.AddListener(func(_, next session.State) {
		if next.Image == nil || next.Image.ID != h.ID {
			return
		}
		if next.Phase == session.PhaseDetected || next.Phase == session.PhaseFailed {
			select {
			case done <- next:
			default:
			}
		}
	})
	if err := c.Session.ImageAcquired(h); err != nil {
		return rep, err
	}
	if err := c.Session.StartUpload(); err != nil {
		return rep, err
	}

	var final session.State
	select {
	case final = <-done:
	case <-ctx.Done():
		_ = c.Session.Reset()
		return rep, ctx.Err()
	}
	if final.Phase == session.PhaseFailed {
		return rep, final.Err
	}

	width := opts.Width
	if width <= 0 {
		width = c.Config.WindowWidth
	}
	target := detection.TargetWidth(float64(width), c.Config.DisplayWidthRatio)
	geo, err := detection.Geometry(h.Width, h.Height, target)
	if err != nil {
		return rep, err
	}
	dets := detection.FilterConfidence(final.Detections, c.Config.MinConfidence)
	rep.Geometry = geo
	rep.Boxes = detection.ProjectWith(geo, dets)
	rep.Lines = presenter.ResultLines(final, c.Config.MinConfidence)

	img, server, err := c.renderResult(ctx, h, final.AnnotatedURL, geo, rep.Boxes)
	if err != nil {
		return rep, err
	}
	rep.Server = server

	if dir := filepath.Dir(opts.OutPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return rep, fmt.Errorf("headless: output dir: %w", err)
		}
	}
	if err := imgio.Save(opts.OutPath, img, imgio.PNGEncoder()); err != nil {
		return rep, fmt.Errorf("headless: save %s: %w", opts.OutPath, err)
	}
	rep.OutPath = opts.OutPath

	if c.Logger != nil {
		for _, line := range rep.Lines {
			c.Logger.Info("detection", "result", line)
		}
		c.Logger.Info("annotated image written", "path", rep.OutPath,
			"width", geo.DisplayWidth, "height", geo.DisplayHeight, "server", server)
	}
	return rep, nil
}

// renderResult prefers the server overlay when configured and falls back to
// drawing the boxes locally.
func (c *AppContainer) renderResult(ctx context.Context, h detection.ImageHandle, annotatedURL string, geo detection.DisplayGeometry, boxes []detection.DisplayBox) (image.Image, bool, error) {
	if c.Config.PreferServerAnnotation && annotatedURL != "" {
		img, err := c.Client.FetchAnnotated(ctx, annotatedURL)
		if err == nil {
			w, hh := int(math.Round(geo.DisplayWidth)), int(math.Round(geo.DisplayHeight))
			return imaging.Resize(img, w, hh, imaging.Lanczos), true, nil
		}
		if c.Logger != nil {
			c.Logger.Warn("annotated image unavailable, drawing locally", "url", annotatedURL, "error", err)
		}
	}
	src, err := c.Source.Load(h)
	if err != nil {
		return nil, false, err
	}
	return overlay.Render(src, geo, boxes), false, nil
}
