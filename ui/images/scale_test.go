package images

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestScaleToFit_PreservesAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	out := ScaleToFit(src, 400, 400)
	if b := out.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("expected 400x200, got %v", b)
	}
}

func TestScaleToFit_NoUpscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	if out := ScaleToFit(src, 400, 400); out != image.Image(src) {
		t.Fatalf("small image should be returned as is")
	}
	if ScaleToFit(nil, 10, 10) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestEncodePNG(t *testing.T) {
	b := EncodePNG(Placeholder(8, 4))
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image should encode to nil")
	}
}
