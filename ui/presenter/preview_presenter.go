package presenter

import (
	"context"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/overlay"
	"github.com/soocke/snap-detect-go/domain/session"
)

const fetchTimeout = 15 * time.Second

// ImageLoader decodes the bytes behind a handle.
type ImageLoader interface {
	Load(h detection.ImageHandle) (image.Image, error)
}

// AnnotatedFetcher downloads a server-rendered overlay.
type AnnotatedFetcher interface {
	FetchAnnotated(ctx context.Context, url string) (image.Image, error)
}

// PreviewView displays the rendered preview.
type PreviewView interface {
	ShowPreview(img image.Image)
	ClearPreview()
}

// PreviewOptions controls how the preview is sized and what it shows.
type PreviewOptions struct {
	WidthRatio    float64
	MinConfidence float64
	PreferServer  bool
}

type renderKey struct {
	imageID string
	phase   session.Phase
	target  int
	opts    PreviewOptions
}

type renderTask struct {
	key    renderKey
	state  session.State
	target float64
}

type renderResult struct {
	key    renderKey
	img    image.Image
	geo    detection.DisplayGeometry
	server bool
	err    error
}

// PreviewPresenter re-renders the session image whenever the session state or
// the available width changes. The mapping is recomputed from the handle's
// intrinsic dimensions and the current display width on every render; the
// work runs on a worker goroutine and results that no longer match the
// wanted key are dropped.
type PreviewPresenter struct {
	Source  session.Source
	Loader  ImageLoader
	Fetcher AnnotatedFetcher
	View    PreviewView
	Width   func() int
	// MaxHeight bounds the rendered height; nil or non-positive means no bound.
	MaxHeight func() int
	logger    *slog.Logger

	opts PreviewOptions // read on the UI thread only; copied into each task

	workerOnce sync.Once
	workCh     chan renderTask
	resultCh   chan renderResult

	want  renderKey
	shown renderKey

	// worker-owned decode cache
	cacheID  string
	cacheImg image.Image
}

// NewPreviewPresenter constructs a preview presenter.
func NewPreviewPresenter(src session.Source, loader ImageLoader, fetcher AnnotatedFetcher, view PreviewView, width func() int, opts PreviewOptions, logger *slog.Logger) *PreviewPresenter {
	return &PreviewPresenter{
		Source:   src,
		Loader:   loader,
		Fetcher:  fetcher,
		View:     view,
		Width:    width,
		opts:     normalize(opts),
		logger:   logger,
		workCh:   make(chan renderTask, 1),
		resultCh: make(chan renderResult, 1),
	}
}

func normalize(o PreviewOptions) PreviewOptions {
	if o.WidthRatio <= 0 || o.WidthRatio > 1 {
		o.WidthRatio = detection.DefaultDisplayRatio
	}
	return o
}

// SetOptions changes what later renders show. Call from the UI thread.
func (p *PreviewPresenter) SetOptions(o PreviewOptions) {
	if p != nil {
		p.opts = normalize(o)
	}
}

// Tick handles finished renders and schedules a new one if needed.
func (p *PreviewPresenter) Tick() {
	if p == nil || p.Source == nil || p.Loader == nil || p.View == nil || p.Width == nil {
		return
	}
	p.ensureWorker()

	for {
		select {
		case res := <-p.resultCh:
			p.handleResult(res)
		default:
			goto drained
		}
	}

drained:
	state := p.Source.Current()
	if !state.HasImage() {
		if p.want != (renderKey{}) {
			p.want = renderKey{}
			p.shown = renderKey{}
			p.View.ClearPreview()
		}
		return
	}
	target := detection.TargetWidth(float64(p.Width()), p.opts.WidthRatio)
	if p.MaxHeight != nil {
		target = detection.CapTargetWidth(target, state.Image.Width, state.Image.Height, float64(p.MaxHeight()))
	}
	key := renderKey{imageID: state.Image.ID, phase: state.Phase, target: int(math.Round(target)), opts: p.opts}
	if key == p.want {
		return
	}
	p.want = key
	p.dispatch(renderTask{key: key, state: state, target: target})
}

// Shown reports whether the preview currently reflects the latest session state.
func (p *PreviewPresenter) Shown() bool {
	return p != nil && p.want != (renderKey{}) && p.shown == p.want
}

func (p *PreviewPresenter) ensureWorker() {
	p.workerOnce.Do(func() {
		go p.runWorker()
	})
}

func (p *PreviewPresenter) runWorker() {
	for task := range p.workCh {
		res := p.render(task)
		select {
		case p.resultCh <- res:
		default:
			select {
			case <-p.resultCh:
			default:
			}
			select {
			case p.resultCh <- res:
			default:
			}
		}
	}
}

func (p *PreviewPresenter) dispatch(task renderTask) {
	select {
	case p.workCh <- task:
	default:
		select {
		case <-p.workCh:
		default:
		}
		select {
		case p.workCh <- task:
		default:
		}
	}
}

func (p *PreviewPresenter) render(task renderTask) (res renderResult) {
	res.key = task.key
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("preview render panic", "error", r)
			}
			res.img = nil
		}
	}()
	h := *task.state.Image
	geo, err := detection.Geometry(h.Width, h.Height, task.target)
	if err != nil {
		res.err = err
		return res
	}
	res.geo = geo
	src, err := p.load(h)
	if err != nil {
		res.err = err
		return res
	}
	if task.state.Phase != session.PhaseDetected {
		res.img = overlay.Render(src, geo, nil)
		return res
	}
	opts := task.key.opts
	if opts.PreferServer && task.state.AnnotatedURL != "" && p.Fetcher != nil {
		if img, ok := p.fetchAnnotated(task.state.AnnotatedURL, geo); ok {
			res.img = img
			res.server = true
			return res
		}
	}
	dets := detection.FilterConfidence(task.state.Detections, opts.MinConfidence)
	res.img = overlay.Render(src, geo, detection.ProjectWith(geo, dets))
	return res
}

// fetchAnnotated returns the server overlay scaled to geo. Failures fall
// back to the client-side overlay.
func (p *PreviewPresenter) fetchAnnotated(url string, geo detection.DisplayGeometry) (image.Image, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	img, err := p.Fetcher.FetchAnnotated(ctx, url)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("annotated image unavailable, drawing locally", "url", url, "error", err)
		}
		return nil, false
	}
	w, h := int(math.Round(geo.DisplayWidth)), int(math.Round(geo.DisplayHeight))
	return imaging.Resize(img, w, h, imaging.Lanczos), true
}

func (p *PreviewPresenter) load(h detection.ImageHandle) (image.Image, error) {
	if p.cacheID == h.ID && p.cacheImg != nil {
		return p.cacheImg, nil
	}
	img, err := p.Loader.Load(h)
	if err != nil {
		return nil, err
	}
	p.cacheID, p.cacheImg = h.ID, img
	return img, nil
}

func (p *PreviewPresenter) handleResult(res renderResult) {
	if res.key != p.want {
		return
	}
	if res.err != nil || res.img == nil {
		if p.logger != nil {
			p.logger.Error("preview render", "image", res.key.imageID, "error", res.err)
		}
		p.View.ClearPreview()
		p.shown = res.key
		return
	}
	if p.logger != nil {
		p.logger.Debug("preview rendered", "image", res.key.imageID, "phase", res.key.phase.String(),
			"scale", res.geo.ScaleFactor, "width", res.geo.DisplayWidth, "server", res.server)
	}
	p.View.ShowPreview(res.img)
	p.shown = res.key
}
