package presenter

import (
	"context"
	"image"
	"sync"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/session"
)

// fakeSession is a synchronous session.Controller that applies the
// acquisition and upload rules without a detector.
type fakeSession struct {
	mu        sync.Mutex
	state     session.State
	uploads   int
	resets    int
	acquireEr error
}

func (f *fakeSession) Current() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) set(s session.State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *fakeSession) ImageAcquired(h detection.ImageHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireEr != nil {
		return f.acquireEr
	}
	f.state = session.State{Phase: session.PhaseCaptured, Image: &h}
	return nil
}

func (f *fakeSession) StartUpload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Phase != session.PhaseCaptured {
		return session.ErrUploadRejected
	}
	f.uploads++
	img := *f.state.Image
	f.state = session.State{Phase: session.PhaseUploading, Image: &img}
	return nil
}

func (f *fakeSession) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.state = session.State{}
	return nil
}

func (f *fakeSession) AddListener(session.StateListener) {}

var _ session.Controller = (*fakeSession)(nil)

type fakeAcquirer struct {
	next     detection.ImageHandle
	err      error
	released []string
}

func (a *fakeAcquirer) Capture(context.Context) (detection.ImageHandle, error) {
	return a.next, a.err
}

func (a *fakeAcquirer) PickFromLibrary(context.Context) (detection.ImageHandle, error) {
	return a.next, a.err
}

func (a *fakeAcquirer) Release(h detection.ImageHandle) { a.released = append(a.released, h.ID) }

type note struct{ title, msg string }

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(title, msg string) {
	n.mu.Lock()
	n.notes = append(n.notes, note{title, msg})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.notes...)
}

type statusRecorder struct {
	status  []string
	phases  []session.Phase
	results [][]string
}

func (v *statusRecorder) SetStatus(text string, phase session.Phase) {
	v.status = append(v.status, text)
	v.phases = append(v.phases, phase)
}

func (v *statusRecorder) SetResults(lines []string) { v.results = append(v.results, lines) }

func (v *statusRecorder) lastStatus() string {
	if len(v.status) == 0 {
		return ""
	}
	return v.status[len(v.status)-1]
}

type previewRecorder struct {
	mu      sync.Mutex
	shown   []image.Image
	cleared int
}

func (v *previewRecorder) ShowPreview(img image.Image) {
	v.mu.Lock()
	v.shown = append(v.shown, img)
	v.mu.Unlock()
}

func (v *previewRecorder) ClearPreview() {
	v.mu.Lock()
	v.cleared++
	v.mu.Unlock()
}

func (v *previewRecorder) last() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.shown) == 0 {
		return nil
	}
	return v.shown[len(v.shown)-1]
}

func handle(id string, w, h int) detection.ImageHandle {
	return detection.ImageHandle{ID: id, URI: "mem://" + id, Width: w, Height: h}
}
