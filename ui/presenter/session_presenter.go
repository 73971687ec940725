package presenter

import (
	"fmt"
	"sync"
	"time"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/session"
	"github.com/soocke/snap-detect-go/ui/model"
)

// StatusView shows the session status line and the detection list.
type StatusView interface {
	SetStatus(text string, phase session.Phase)
	SetResults(lines []string)
}

// Notifier surfaces one user-facing message.
type Notifier interface {
	Notify(title, message string)
}

// SessionPresenter receives session transitions from the machine goroutine
// and reflects them into the view on the next Tick.
type SessionPresenter struct {
	view          StatusView
	notify        Notifier
	upload        *model.UploadModel
	minConfidence float64

	mu      sync.Mutex
	pending []session.State
	latest  session.State
	dirty   bool
}

// NewSessionPresenter returns a new SessionPresenter. Detections below
// minConfidence are left out of the listing.
func NewSessionPresenter(view StatusView, notify Notifier, upload *model.UploadModel, minConfidence float64) *SessionPresenter {
	if upload == nil {
		upload = model.NewUploadModel()
	}
	return &SessionPresenter{view: view, notify: notify, upload: upload, minConfidence: minConfidence, dirty: true}
}

// SetMinConfidence changes the listing threshold. Call from the UI thread.
func (p *SessionPresenter) SetMinConfidence(v float64) {
	if p == nil {
		return
	}
	p.minConfidence = v
	p.dirty = true
}

// OnState queues a transition. It is registered as a session listener and
// runs on the machine goroutine.
func (p *SessionPresenter) OnState(_, next session.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick processes queued states: every failure is announced once, the view
// shows the most recent state.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	queued := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, s := range queued {
		if s.Phase == session.PhaseFailed && p.notify != nil {
			if msg := detection.UserMessage(s.Err); msg != "" {
				p.notify.Notify("Detection failed", msg)
			}
		}
	}
	if len(queued) > 0 {
		p.latest = queued[len(queued)-1]
		p.dirty = true
	}

	p.upload.OnTick(p.latest.Phase == session.PhaseUploading, now)
	if p.dirty {
		p.view.SetResults(ResultLines(p.latest, p.minConfidence))
	}
	if p.dirty || p.upload.Active() {
		p.view.SetStatus(p.statusText(), p.latest.Phase)
		p.dirty = false
	}
}

func (p *SessionPresenter) statusText() string {
	s := p.latest
	switch s.Phase {
	case session.PhaseIdle:
		return "No image. Take or pick a photo."
	case session.PhaseCaptured:
		return fmt.Sprintf("Ready: %dx%d image", s.Image.Width, s.Image.Height)
	case session.PhaseUploading:
		cur, _ := p.upload.Values()
		return fmt.Sprintf("Detecting... %ds", int(cur.Seconds()))
	case session.PhaseDetected:
		n := len(detection.FilterConfidence(s.Detections, p.minConfidence))
		_, last := p.upload.Values()
		return fmt.Sprintf("%d object(s) detected in %.1fs", n, last.Seconds())
	case session.PhaseFailed:
		if s.Err == nil {
			return "Detection failed"
		}
		return "Detection failed: " + s.Err.Error()
	default:
		return s.Phase.String()
	}
}

// ResultLines formats the detections of s as list entries.
func ResultLines(s session.State, minConfidence float64) []string {
	if s.Phase != session.PhaseDetected {
		return nil
	}
	dets := detection.FilterConfidence(s.Detections, minConfidence)
	if len(dets) == 0 {
		return []string{"No objects detected."}
	}
	lines := make([]string, 0, len(dets))
	for _, d := range dets {
		lines = append(lines, d.Summary())
	}
	return lines
}
