package view

import (
	"image"

	"github.com/soocke/snap-detect-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Preview shows the session image with its overlay.
type Preview interface {
	Show(img image.Image)
	Reset()
}

type preview struct {
	label     *LabelWidget
	prevPhoto *Img // last Tk photo image instance
	maxH      int
}

const (
	placeholderW = 320
	placeholderH = 180
)

// NewPreview creates the preview label and grids it at row, spanning cols
// columns. The placeholder is scaled to fit maxH.
func NewPreview(row, cols, maxH int) Preview {
	v := &preview{maxH: maxH}
	v.prevPhoto = NewPhoto(Data(images.EncodePNG(v.placeholder())))
	v.label = Label(Image(v.prevPhoto), Borderwidth(1), Relief("sunken"))
	Grid(v.label, Row(row), Column(0), Columnspan(cols), Sticky("nw"), Padx("0.4m"), Pady("0.4m"))
	return v
}

// Show replaces the displayed image. The image is already sized to the
// display geometry by the presenter and is shown as is.
func (v *preview) Show(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	v.replace(NewPhoto(Data(images.EncodePNG(img))))
}

func (v *preview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.replace(NewPhoto(Data(images.EncodePNG(v.placeholder()))))
}

func (v *preview) placeholder() image.Image {
	ph := images.Placeholder(placeholderW, placeholderH)
	if v.maxH > 0 {
		return images.ScaleToFit(ph, placeholderW, v.maxH)
	}
	return ph
}

// replace swaps photos and disposes the previous one so obsolete pixel
// buffers are not retained by Tk.
func (v *preview) replace(photo *Img) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = photo
	v.label.Configure(Image(photo))
}
