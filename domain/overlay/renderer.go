// Package overlay draws projected detection boxes onto a display-sized copy
// of the source image.
package overlay

import (
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/snap-detect-go/domain/detection"
)

const (
	defaultStroke = 2
	labelPadX     = 3
	labelPadY     = 2
)

// Renderer strokes boxes and captions. The zero value is usable.
type Renderer struct {
	Stroke int       // box line width in pixels; 0 means 2
	Face   font.Face // caption face; nil means basicfont 7x13
}

// Render is Renderer{}.Render.
func Render(src image.Image, geo detection.DisplayGeometry, boxes []detection.DisplayBox) *image.NRGBA {
	return Renderer{}.Render(src, geo, boxes)
}

// Render resizes src to the display geometry and draws every box with its
// caption. Boxes are clipped to the image; src is never modified.
func (r Renderer) Render(src image.Image, geo detection.DisplayGeometry, boxes []detection.DisplayBox) *image.NRGBA {
	w := int(math.Round(geo.DisplayWidth))
	h := int(math.Round(geo.DisplayHeight))
	var dst *image.NRGBA
	if b := src.Bounds(); w <= 0 || h <= 0 || (w == b.Dx() && h == b.Dy()) {
		dst = imaging.Clone(src)
	} else {
		dst = imaging.Resize(src, w, h, imaging.Lanczos)
	}
	stroke := r.Stroke
	if stroke <= 0 {
		stroke = defaultStroke
	}
	face := r.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	for _, b := range boxes {
		c := LabelColor(b.Label)
		rect := image.Rect(
			int(math.Round(b.Left)),
			int(math.Round(b.Top)),
			int(math.Round(b.Left+b.Width)),
			int(math.Round(b.Top+b.Height)),
		)
		strokeRect(dst, rect, stroke, c)
		drawCaption(dst, face, rect.Min, b.Caption(), c)
	}
	return dst
}

// LabelColor returns a stable, saturated color for a label.
func LabelColor(label string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)
	r, g, b := colorful.Hsv(hue, 0.8, 0.95).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func strokeRect(dst *image.NRGBA, r image.Rectangle, width int, c color.NRGBA) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(dst.Bounds())
		if !e.Empty() {
			draw.Draw(dst, e, u, image.Point{}, draw.Src)
		}
	}
}

// drawCaption puts the caption on a filled tab above the box, or inside the
// box when there is no room above it.
func drawCaption(dst *image.NRGBA, face font.Face, at image.Point, text string, bg color.NRGBA) {
	m := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := (m.Ascent + m.Descent).Ceil()
	tab := image.Rect(at.X, at.Y-textH-2*labelPadY, at.X+textW+2*labelPadX, at.Y)
	if tab.Min.Y < dst.Bounds().Min.Y {
		tab = tab.Add(image.Pt(0, tab.Dy()))
	}
	clipped := tab.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	draw.Draw(dst, clipped, image.NewUniform(bg), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor(bg)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(tab.Min.X + labelPadX), Y: fixed.I(tab.Min.Y+labelPadY) + m.Ascent},
	}
	d.DrawString(text)
}

// textColor picks black or white for contrast against bg.
func textColor(bg color.NRGBA) color.Color {
	c, _ := colorful.MakeColor(bg)
	if _, _, l := c.Hcl(); l > 0.6 {
		return color.Black
	}
	return color.White
}
