package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/soocke/snap-detect-go/domain/detection"
)

// Machine owns the session state. All transitions run on one goroutine that
// drains the event channel; the detection call runs on a worker goroutine and
// posts its outcome back as an event tagged with the uploading image's ID.
type Machine struct {
	logger   *slog.Logger
	detector detection.Detector

	state     State // owned by the loop goroutine
	snapshot  atomic.Pointer[State]
	listeners []StateListener
	cancel    context.CancelFunc // in-flight upload, loop-owned

	events    chan any
	done      chan struct{}
	closeOnce sync.Once
	uploads   atomic.Uint64
	stale     atomic.Uint64
}

// events
type (
	evtImageAcquired struct {
		img   detection.ImageHandle
		reply chan error
	}
	evtStartUpload struct{ reply chan error }
	evtReset       struct{ reply chan error }
	evtFlush       struct{ reply chan error }
	evtAddListener struct{ l StateListener }
	evtSucceeded   struct {
		imageID string
		result  detection.Result
	}
	evtFailed struct {
		imageID string
		err     error
	}
)

// NewMachine constructs a machine in PhaseIdle and starts its event loop.
func NewMachine(detector detection.Detector, logger *slog.Logger) *Machine {
	m := &Machine{
		logger:   logger,
		detector: detector,
		events:   make(chan any, 64),
		done:     make(chan struct{}),
	}
	m.publish()
	go m.loop()
	return m
}

func (m *Machine) loop() {
	for {
		select {
		case <-m.done:
			if m.cancel != nil {
				m.cancel()
			}
			return
		case ev := <-m.events:
			m.handleSafe(ev)
		}
	}
}

// handleSafe runs one event. A panic is logged and, for requests, answered
// with an error so the caller never waits on a reply that will not come.
func (m *Machine) handleSafe(ev any) {
	defer func() {
		if r := recover(); r != nil {
			m.recoverLog("event", r)
			if reply := replyOf(ev); reply != nil {
				select {
				case reply <- fmt.Errorf("session event panic: %v", r):
				default:
				}
			}
		}
	}()
	m.handle(ev)
}

func replyOf(ev any) chan error {
	switch e := ev.(type) {
	case evtImageAcquired:
		return e.reply
	case evtStartUpload:
		return e.reply
	case evtReset:
		return e.reply
	case evtFlush:
		return e.reply
	}
	return nil
}

func (m *Machine) recoverLog(where string, r any) {
	if m.logger != nil {
		m.logger.Error("session panic", "where", where, "error", r, "stack", string(debug.Stack()))
	}
}

func (m *Machine) handle(ev any) {
	switch e := ev.(type) {
	case evtAddListener:
		m.listeners = append(m.listeners, e.l)
	case evtImageAcquired:
		e.reply <- m.onImageAcquired(e.img)
	case evtStartUpload:
		e.reply <- m.onStartUpload()
	case evtReset:
		m.abortUpload()
		m.transition(State{Phase: PhaseIdle})
		e.reply <- nil
	case evtFlush:
		e.reply <- nil
	case evtSucceeded:
		if !m.uploadingFor(e.imageID) {
			m.discard(e.imageID, "success")
			return
		}
		m.cancel = nil
		img := *m.state.Image
		m.transition(State{Phase: PhaseDetected, Image: &img, Detections: e.result.Detections, AnnotatedURL: e.result.AnnotatedURL})
	case evtFailed:
		if !m.uploadingFor(e.imageID) {
			m.discard(e.imageID, "failure")
			return
		}
		m.cancel = nil
		img := *m.state.Image
		m.transition(State{Phase: PhaseFailed, Image: &img, Err: e.err})
	}
}

func (m *Machine) onImageAcquired(img detection.ImageHandle) error {
	if !img.Valid() {
		return fmt.Errorf("%w: image %q %dx%d", detection.ErrInvalidGeometry, img.ID, img.Width, img.Height)
	}
	// A new image supersedes any in-flight upload; its late result is dropped by the guard.
	m.abortUpload()
	m.transition(State{Phase: PhaseCaptured, Image: &img})
	return nil
}

func (m *Machine) onStartUpload() error {
	if m.state.Phase != PhaseCaptured {
		if m.logger != nil {
			m.logger.Info("upload rejected", "phase", m.state.Phase.String())
		}
		return fmt.Errorf("%w: session is %s", ErrUploadRejected, m.state.Phase)
	}
	img := *m.state.Image
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.transition(State{Phase: PhaseUploading, Image: &img})
	m.uploads.Add(1)
	go m.runUpload(ctx, img)
	return nil
}

func (m *Machine) runUpload(ctx context.Context, img detection.ImageHandle) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.Error("upload goroutine panic", "error", r)
			}
			m.post(evtFailed{imageID: img.ID, err: fmt.Errorf("upload panic: %v", r)})
		}
	}()
	if m.detector == nil {
		m.post(evtFailed{imageID: img.ID, err: fmt.Errorf("%w: no detector configured", detection.ErrNetwork)})
		return
	}
	res, err := m.detector.Detect(ctx, img)
	if err != nil {
		m.post(evtFailed{imageID: img.ID, err: err})
		return
	}
	m.post(evtSucceeded{imageID: img.ID, result: res})
}

// uploadingFor is the stale guard: a completion commits only while the
// session is still uploading the very image it was issued for.
func (m *Machine) uploadingFor(imageID string) bool {
	return m.state.Phase == PhaseUploading && m.state.Image != nil && m.state.Image.ID == imageID
}

func (m *Machine) discard(imageID, kind string) {
	m.stale.Add(1)
	if m.logger != nil {
		m.logger.Debug(detection.ErrStaleResponse.Error(), "kind", kind, "image", imageID, "current", m.state.ImageID(), "phase", m.state.Phase.String())
	}
}

func (m *Machine) abortUpload() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Machine) transition(next State) {
	prev := m.state
	m.state = next
	m.publish()
	if m.logger != nil {
		m.logger.Debug("session transition", "from", prev.Phase.String(), "to", next.Phase.String(), "image", next.ImageID())
	}
	for _, l := range m.listeners {
		m.notify(l, prev, next)
	}
}

// notify calls one listener; a panicking listener does not stop the others
// or the loop.
func (m *Machine) notify(l StateListener, prev, next State) {
	defer func() {
		if r := recover(); r != nil {
			m.recoverLog("listener", r)
		}
	}()
	l(prev, next)
}

func (m *Machine) publish() {
	s := m.state
	m.snapshot.Store(&s)
}

// post enqueues a worker completion. Completions after Close are dropped.
func (m *Machine) post(ev any) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// request sends an event carrying a reply channel and waits for the loop.
func (m *Machine) request(ev any, reply chan error) error {
	select {
	case m.events <- ev:
	case <-m.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-m.done:
		return ErrClosed
	}
}

// Current returns the latest committed snapshot. Safe from any goroutine.
func (m *Machine) Current() State { return *m.snapshot.Load() }

// ImageAcquired replaces the session image and drops earlier results.
func (m *Machine) ImageAcquired(img detection.ImageHandle) error {
	reply := make(chan error, 1)
	return m.request(evtImageAcquired{img: img, reply: reply}, reply)
}

// StartUpload dispatches the current image to the detector. It is rejected
// with ErrUploadRejected unless the session is exactly in PhaseCaptured.
func (m *Machine) StartUpload() error {
	reply := make(chan error, 1)
	return m.request(evtStartUpload{reply: reply}, reply)
}

// Reset clears the image and returns to PhaseIdle.
func (m *Machine) Reset() error {
	reply := make(chan error, 1)
	return m.request(evtReset{reply: reply}, reply)
}

// Flush waits until every event posted before the call has been handled.
func (m *Machine) Flush() error {
	reply := make(chan error, 1)
	return m.request(evtFlush{reply: reply}, reply)
}

// AddListener registers l for subsequent transitions.
func (m *Machine) AddListener(l StateListener) {
	select {
	case m.events <- evtAddListener{l: l}:
	case <-m.done:
	}
}

// Uploads returns how many detector calls have been dispatched.
func (m *Machine) Uploads() uint64 { return m.uploads.Load() }

// Discarded returns how many late completions the stale guard dropped.
func (m *Machine) Discarded() uint64 { return m.stale.Load() }

// Close stops the loop and cancels any in-flight upload.
func (m *Machine) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

var _ Controller = (*Machine)(nil)
