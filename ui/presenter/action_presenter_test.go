package presenter

import (
	"errors"
	"strings"
	"testing"

	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/session"
)

func TestActionPresenter_TakePictureReplacesImage(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeAcquirer{next: handle("a", 10, 10)}
	n := &recordingNotifier{}
	p := NewActionPresenter(src, sess, n, nil)

	p.TakePicture()
	if cur := sess.Current(); cur.Phase != session.PhaseCaptured || cur.ImageID() != "a" {
		t.Fatalf("expected Captured(a), got %v %s", cur.Phase, cur.ImageID())
	}
	src.next = handle("b", 10, 10)
	p.PickImage()
	if sess.Current().ImageID() != "b" {
		t.Fatalf("expected image b")
	}
	if len(src.released) != 1 || src.released[0] != "a" {
		t.Fatalf("expected a to be released, got %v", src.released)
	}
	if len(n.all()) != 0 {
		t.Fatalf("unexpected notifications %v", n.all())
	}
}

func TestActionPresenter_CancelledPickIsSilent(t *testing.T) {
	sess := &fakeSession{}
	sess.set(session.State{Phase: session.PhaseCaptured, Image: &detection.ImageHandle{ID: "keep", Width: 1, Height: 1}})
	src := &fakeAcquirer{err: detection.ErrUserCancelled}
	n := &recordingNotifier{}
	p := NewActionPresenter(src, sess, n, nil)

	p.PickImage()
	if sess.Current().ImageID() != "keep" {
		t.Fatalf("cancel must leave the session unchanged")
	}
	if len(n.all()) != 0 {
		t.Fatalf("cancel must not notify, got %v", n.all())
	}
}

func TestActionPresenter_PermissionDeniedNotifies(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeAcquirer{err: detection.ErrPermissionDenied}
	n := &recordingNotifier{}
	NewActionPresenter(src, sess, n, nil).TakePicture()
	notes := n.all()
	if len(notes) != 1 || !strings.Contains(notes[0].msg, "Permission denied") {
		t.Fatalf("expected one permission notification, got %v", notes)
	}
	if sess.Current().Phase != session.PhaseIdle {
		t.Fatalf("session should stay idle")
	}
}

func TestActionPresenter_RejectedAcquisitionReleasesSpool(t *testing.T) {
	sess := &fakeSession{acquireEr: errors.New("closed")}
	src := &fakeAcquirer{next: handle("x", 1, 1)}
	n := &recordingNotifier{}
	NewActionPresenter(src, sess, n, nil).TakePicture()
	if len(src.released) != 1 || src.released[0] != "x" {
		t.Fatalf("rejected image should be released, got %v", src.released)
	}
	if len(n.all()) != 1 {
		t.Fatalf("expected a notification")
	}
}

func TestActionPresenter_Detect(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeAcquirer{next: handle("a", 10, 10)}
	n := &recordingNotifier{}
	p := NewActionPresenter(src, sess, n, nil)

	p.Detect()
	notes := n.all()
	if len(notes) != 1 || !strings.Contains(notes[0].msg, "No image selected") {
		t.Fatalf("expected no-image notification, got %v", notes)
	}
	if sess.uploads != 0 {
		t.Fatalf("upload must not start without an image")
	}

	p.TakePicture()
	p.Detect()
	if sess.uploads != 1 || sess.Current().Phase != session.PhaseUploading {
		t.Fatalf("expected one upload in flight")
	}

	p.Detect()
	notes = n.all()
	if sess.uploads != 1 {
		t.Fatalf("second detect while uploading must not upload again")
	}
	if !strings.Contains(notes[len(notes)-1].msg, "already running") {
		t.Fatalf("expected already-running notification, got %v", notes)
	}
}

func TestActionPresenter_Clear(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeAcquirer{next: handle("a", 10, 10)}
	p := NewActionPresenter(src, sess, nil, nil)
	p.TakePicture()
	p.Clear()
	if sess.Current().HasImage() || sess.resets != 1 {
		t.Fatalf("clear should reset the session")
	}
	if len(src.released) != 1 || src.released[0] != "a" {
		t.Fatalf("clear should release the image, got %v", src.released)
	}
}

func TestActionPresenter_NilSafe(t *testing.T) {
	var p *ActionPresenter
	p.TakePicture()
	p.PickImage()
	p.Detect()
	p.Clear()
}
