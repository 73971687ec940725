package presenter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/session"
)

// Acquirer narrows what the presenter needs from the image source.
type Acquirer interface {
	Capture(ctx context.Context) (detection.ImageHandle, error)
	PickFromLibrary(ctx context.Context) (detection.ImageHandle, error)
	Release(h detection.ImageHandle)
}

// ActionPresenter turns button presses into session events and reports
// failures through the notifier.
type ActionPresenter struct {
	src     Acquirer
	session session.Controller
	notify  Notifier
	logger  *slog.Logger
}

func NewActionPresenter(src Acquirer, sess session.Controller, notify Notifier, logger *slog.Logger) *ActionPresenter {
	return &ActionPresenter{src: src, session: sess, notify: notify, logger: logger}
}

// TakePicture grabs the screen and makes it the session image.
func (p *ActionPresenter) TakePicture() {
	if p == nil || p.src == nil || p.session == nil {
		return
	}
	p.acquire("capture", p.src.Capture)
}

// PickImage asks the user for a file and makes it the session image.
// Dismissing the picker leaves the session unchanged.
func (p *ActionPresenter) PickImage() {
	if p == nil || p.src == nil || p.session == nil {
		return
	}
	p.acquire("pick", p.src.PickFromLibrary)
}

func (p *ActionPresenter) acquire(kind string, fn func(context.Context) (detection.ImageHandle, error)) {
	h, err := fn(context.Background())
	if err != nil {
		p.fail("Image unavailable", err)
		return
	}
	prev := p.session.Current().Image
	if err := p.session.ImageAcquired(h); err != nil {
		p.src.Release(h)
		p.fail("Image unavailable", err)
		return
	}
	if prev != nil && prev.ID != h.ID {
		p.src.Release(*prev)
	}
	if p.logger != nil {
		p.logger.Info("image acquired", "kind", kind, "image", h.String())
	}
}

// Detect uploads the current image.
func (p *ActionPresenter) Detect() {
	if p == nil || p.session == nil {
		return
	}
	err := p.session.StartUpload()
	if err == nil {
		return
	}
	if !errors.Is(err, session.ErrUploadRejected) {
		p.fail("Detection", err)
		return
	}
	cur := p.session.Current()
	switch {
	case !cur.HasImage():
		p.say("No image", "No image selected. Take or pick a photo first.")
	case cur.Phase == session.PhaseUploading:
		p.say("Detection", "Detection is already running for this image.")
	default:
		p.say("Detection", "Take or pick a new photo to run detection again.")
	}
}

// Clear drops the current image and its results.
func (p *ActionPresenter) Clear() {
	if p == nil || p.session == nil {
		return
	}
	prev := p.session.Current().Image
	if err := p.session.Reset(); err != nil {
		p.fail("Clear", err)
		return
	}
	if prev != nil && p.src != nil {
		p.src.Release(*prev)
	}
}

func (p *ActionPresenter) fail(title string, err error) {
	if p.logger != nil && !errors.Is(err, detection.ErrUserCancelled) {
		p.logger.Error("action failed", "title", title, "error", err)
	}
	if msg := detection.UserMessage(err); msg != "" {
		p.say(title, msg)
	}
}

func (p *ActionPresenter) say(title, msg string) {
	if p.notify != nil {
		p.notify.Notify(title, msg)
	}
}
