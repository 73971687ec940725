package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofrs/uuid"

	"github.com/soocke/snap-detect-go/domain/detection"
)

const defaultJPEGQuality = 90

// Source acquires images from the screen or from a picked file and spools
// them as JPEG. The dimensions in a returned handle are those of the spooled
// JPEG, which are exactly the bytes later uploaded.
type Source struct {
	logger   *slog.Logger
	spoolDir string
	quality  int
	grab     GrabFunc
	pick     Picker

	captures    atomic.Uint64
	picks       atomic.Uint64
	failures    atomic.Uint64
	encodeNanos atomic.Uint64
	lastAt      atomic.Int64
}

// Option customises a Source.
type Option func(*Source)

// WithGrab replaces the screen grabber.
func WithGrab(g GrabFunc) Option { return func(s *Source) { s.grab = g } }

// WithPicker sets the file picker used by PickFromLibrary.
func WithPicker(p Picker) Option { return func(s *Source) { s.pick = p } }

// WithJPEGQuality sets the spool encoder quality (1-100).
func WithJPEGQuality(q int) Option { return func(s *Source) { s.quality = q } }

// NewSource constructs a source spooling into spoolDir. An empty spoolDir uses
// a directory below os.TempDir.
func NewSource(logger *slog.Logger, spoolDir string, opts ...Option) *Source {
	if spoolDir == "" {
		spoolDir = filepath.Join(os.TempDir(), "snap-detect")
	}
	s := &Source{logger: logger, spoolDir: spoolDir, quality: defaultJPEGQuality, grab: Grab}
	for _, o := range opts {
		o(s)
	}
	if s.quality < 1 || s.quality > 100 {
		s.quality = defaultJPEGQuality
	}
	return s
}

// SetPicker replaces the picker after construction (the GUI creates its
// dialog only once Tk is up).
func (s *Source) SetPicker(p Picker) { s.pick = p }

// SpoolDir returns the directory spooled images are written to.
func (s *Source) SpoolDir() string { return s.spoolDir }

// Capture grabs the primary screen.
func (s *Source) Capture(ctx context.Context) (detection.ImageHandle, error) {
	if err := ctx.Err(); err != nil {
		return detection.ImageHandle{}, err
	}
	if s.grab == nil {
		return s.fail(fmt.Errorf("%w: no screen grabber", detection.ErrDeviceError))
	}
	img, err := s.grab()
	if err != nil {
		return s.fail(fmt.Errorf("%w: grab screen: %w", detection.ErrDeviceError, err))
	}
	if img == nil || img.Bounds().Empty() {
		return s.fail(fmt.Errorf("%w: empty screen grab", detection.ErrDeviceError))
	}
	h, err := s.spool(img)
	if err != nil {
		return s.fail(err)
	}
	s.captures.Add(1)
	s.logStats("capture", h)
	return h, nil
}

// PickFromLibrary asks the picker for a file and spools its decoded,
// orientation-corrected contents.
func (s *Source) PickFromLibrary(ctx context.Context) (detection.ImageHandle, error) {
	if s.pick == nil {
		return s.fail(fmt.Errorf("%w: no picker available", detection.ErrDeviceError))
	}
	path, err := s.pick(ctx)
	if err != nil {
		return s.fail(classify(err))
	}
	if path == "" {
		return detection.ImageHandle{}, detection.ErrUserCancelled
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return s.fail(classify(fmt.Errorf("decode %s: %w", path, err)))
	}
	h, err := s.spool(img)
	if err != nil {
		return s.fail(err)
	}
	s.picks.Add(1)
	s.logStats("pick", h)
	return h, nil
}

// Open returns the spooled JPEG bytes behind h.
func (s *Source) Open(h detection.ImageHandle) (io.ReadCloser, error) {
	return os.Open(detection.PathFromURI(h.URI))
}

// Load decodes the spooled image behind h.
func (s *Source) Load(h detection.ImageHandle) (image.Image, error) {
	img, err := imaging.Open(detection.PathFromURI(h.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", detection.ErrDeviceError, h.ID, err)
	}
	return img, nil
}

// Release removes the spool file of a superseded image. Files outside the
// spool directory are never touched.
func (s *Source) Release(h detection.ImageHandle) {
	path := detection.PathFromURI(h.URI)
	if path == "" || filepath.Dir(path) != filepath.Clean(s.spoolDir) {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) && s.logger != nil {
		s.logger.Warn("spool release", "image", h.ID, "error", err)
	}
}

// Stats returns acquisition counters.
func (s *Source) Stats() SourceStats {
	n := s.captures.Load() + s.picks.Load()
	var avg time.Duration
	if n > 0 {
		avg = time.Duration(s.encodeNanos.Load() / n)
	}
	var last time.Time
	if ns := s.lastAt.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return SourceStats{
		Captures:  s.captures.Load(),
		Picks:     s.picks.Load(),
		Failures:  s.failures.Load(),
		AvgEncode: avg,
		LastAt:    last,
	}
}

func (s *Source) spool(img image.Image) (detection.ImageHandle, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return detection.ImageHandle{}, fmt.Errorf("%w: image id: %w", detection.ErrDeviceError, err)
	}
	if err := os.MkdirAll(s.spoolDir, 0o755); err != nil {
		return detection.ImageHandle{}, classify(fmt.Errorf("spool dir: %w", err))
	}
	path := filepath.Join(s.spoolDir, id.String()+".jpg")
	start := time.Now()
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.quality)); err != nil {
		return detection.ImageHandle{}, classify(fmt.Errorf("spool %s: %w", path, err))
	}
	s.encodeNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.lastAt.Store(time.Now().UnixNano())
	b := img.Bounds()
	return detection.ImageHandle{
		ID:     id.String(),
		URI:    detection.FileURI(path),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func (s *Source) fail(err error) (detection.ImageHandle, error) {
	s.failures.Add(1)
	if s.logger != nil {
		s.logger.Error("image acquisition", "error", err)
	}
	return detection.ImageHandle{}, err
}

// classify maps filesystem and decoder errors onto the shared taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, detection.ErrUserCancelled),
		errors.Is(err, detection.ErrPermissionDenied),
		errors.Is(err, detection.ErrDeviceError):
		return err
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", detection.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %w", detection.ErrDeviceError, err)
	}
}

func (s *Source) logStats(kind string, h detection.ImageHandle) {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"kind", kind,
		"image", h.String(),
		"captures", stats.Captures,
		"picks", stats.Picks,
		"failures", stats.Failures,
		"avg_encode", stats.AvgEncode,
	)
}

var _ ImageSource = (*Source)(nil)
