package app

import (
	"context"
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/gin-gonic/gin"

	"github.com/soocke/snap-detect-go/domain/detection"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestRunHeadless_DrawsLocalOverlay(t *testing.T) {
	srv := detectService(t, appleResponse)
	dir := t.TempDir()
	cfg := testConfig(t, srv.URL+"/detect")
	c := BuildContainer(cfg, discardLogger(), "")
	defer c.Close()

	out := filepath.Join(dir, "out", "annotated.png")
	rep, err := RunHeadless(context.Background(), c, HeadlessOptions{ImagePath: writeImage(t, dir, 1000, 800), OutPath: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Image.Width != 1000 || rep.Image.Height != 800 {
		t.Fatalf("unexpected image dims %dx%d", rep.Image.Width, rep.Image.Height)
	}
	if !near(rep.Geometry.ScaleFactor, 0.45) || !near(rep.Geometry.DisplayWidth, 450) || !near(rep.Geometry.DisplayHeight, 360) {
		t.Fatalf("unexpected geometry %+v", rep.Geometry)
	}
	if len(rep.Boxes) != 1 {
		t.Fatalf("low-confidence box should be filtered, got %+v", rep.Boxes)
	}
	b := rep.Boxes[0]
	if b.Label != "apple" || !near(b.Left, 45) || !near(b.Top, 45) || !near(b.Width, 90) || !near(b.Height, 90) {
		t.Fatalf("unexpected projected box %+v", b)
	}
	if len(rep.Lines) != 1 || rep.Lines[0] != "apple (87%) - Box: (100, 100) to (300, 300)" {
		t.Fatalf("unexpected lines %v", rep.Lines)
	}
	if rep.Server {
		t.Fatalf("server overlay not requested")
	}

	img, err := imgio.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 450 || got.Dy() != 360 {
		t.Fatalf("output size %v, want 450x360", got)
	}
	if c.Session.Uploads() != 1 {
		t.Fatalf("expected exactly one upload, got %d", c.Session.Uploads())
	}
}

func TestRunHeadless_PrefersServerOverlay(t *testing.T) {
	srv := detectService(t, appleResponse)
	dir := t.TempDir()
	cfg := testConfig(t, srv.URL+"/detect")
	cfg.PreferServerAnnotation = true
	c := BuildContainer(cfg, discardLogger(), "")
	defer c.Close()

	out := filepath.Join(dir, "server.png")
	rep, err := RunHeadless(context.Background(), c, HeadlessOptions{ImagePath: writeImage(t, dir, 1000, 800), OutPath: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.Server {
		t.Fatalf("expected server-annotated output")
	}
	img, err := imgio.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 450 || got.Dy() != 360 {
		t.Fatalf("server overlay must be scaled to the display size, got %v", got)
	}
	r, g, _, _ := img.At(200, 200).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Fatalf("expected the red server image, got r=%d g=%d", r>>8, g>>8)
	}
}

func TestRunHeadless_ServerError(t *testing.T) {
	srv := detectService(t, func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model exploded"})
	})
	dir := t.TempDir()
	c := BuildContainer(testConfig(t, srv.URL+"/detect"), discardLogger(), "")
	defer c.Close()

	_, err := RunHeadless(context.Background(), c, HeadlessOptions{ImagePath: writeImage(t, dir, 64, 48), OutPath: filepath.Join(dir, "x.png")})
	if !errors.Is(err, detection.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestRunHeadless_MissingImage(t *testing.T) {
	srv := detectService(t, appleResponse)
	dir := t.TempDir()
	c := BuildContainer(testConfig(t, srv.URL+"/detect"), discardLogger(), "")
	defer c.Close()

	_, err := RunHeadless(context.Background(), c, HeadlessOptions{ImagePath: filepath.Join(dir, "nope.png"), OutPath: filepath.Join(dir, "x.png")})
	if !errors.Is(err, detection.ErrDeviceError) {
		t.Fatalf("expected device error, got %v", err)
	}
	if c.Session.Uploads() != 0 {
		t.Fatalf("nothing should be uploaded")
	}
}

func TestRunHeadless_RequiresPaths(t *testing.T) {
	c := BuildContainer(testConfig(t, "http://127.0.0.1:1/detect"), discardLogger(), "")
	defer c.Close()
	if _, err := RunHeadless(context.Background(), c, HeadlessOptions{ImagePath: "a.png"}); err == nil {
		t.Fatalf("expected error without output path")
	}
	if _, err := RunHeadless(context.Background(), c, HeadlessOptions{OutPath: "a.png"}); err == nil {
		t.Fatalf("expected error without image path")
	}
}
