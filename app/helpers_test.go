package app

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/soocke/snap-detect-go/config"
	"github.com/soocke/snap-detect-go/domain/session"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// detectService stands in for the detection server. Every POST /detect is
// answered by respond; GET /uploads/:name serves a small red PNG.
func detectService(t *testing.T, respond gin.HandlerFunc) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/detect", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
			return
		}
		f, err := fh.Open()
		if err == nil {
			_, _ = io.Copy(io.Discard, f)
			f.Close()
		}
		respond(c)
	})
	r.GET("/uploads/:name", func(c *gin.Context) {
		img := image.NewRGBA(image.Rect(0, 0, 4, 3))
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			}
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func appleResponse(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"detections": []gin.H{
			{"name": "apple", "confidence": 0.87, "x1": 100, "y1": 100, "x2": 300, "y2": 300, "class": 47},
			{"name": "cup", "confidence": 0.2, "x1": 500, "y1": 400, "x2": 600, "y2": 500},
		},
		"image_url": "uploads/annotated.jpg",
	})
}

// writeImage stores a grey w x h PNG in dir and returns its path.
func writeImage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "input.png")
	if err := imaging.Save(imaging.New(w, h, color.NRGBA{R: 128, G: 128, B: 128, A: 255}), path); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.TimeoutSeconds = 5
	cfg.SpoolDir = filepath.Join(t.TempDir(), "spool")
	cfg.WindowWidth = 500
	cfg.DisplayWidthRatio = 0.9
	cfg.MinConfidence = 0.5
	return cfg
}

// fakeUI records what the presenters push into the window.
type fakeUI struct {
	mu       sync.Mutex
	width    int
	maxH     int
	statuses []string
	phases   []session.Phase
	results  [][]string
	preview  image.Image
	notes    []string
}

func (u *fakeUI) SetStatus(text string, phase session.Phase) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.statuses = append(u.statuses, text)
	u.phases = append(u.phases, phase)
}

func (u *fakeUI) SetResults(lines []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.results = append(u.results, lines)
}

func (u *fakeUI) ShowPreview(img image.Image) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.preview = img
}

func (u *fakeUI) ClearPreview() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.preview = nil
}

func (u *fakeUI) Notify(title, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notes = append(u.notes, title+": "+message)
}

func (u *fakeUI) AvailableWidth() int { return u.width }

func (u *fakeUI) PreviewMaxHeight() int { return u.maxH }

func (u *fakeUI) lastPhase() session.Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.phases) == 0 {
		return session.PhaseIdle
	}
	return u.phases[len(u.phases)-1]
}

func (u *fakeUI) lastResults() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.results) == 0 {
		return nil
	}
	return u.results[len(u.results)-1]
}
