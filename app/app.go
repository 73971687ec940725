package app

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/snap-detect-go/ui/theme"
	"github.com/soocke/snap-detect-go/ui/view"
)

const (
	tick = 100 * time.Millisecond
)

type app struct {
	c       *AppContainer
	width   int
	height  int
	afterID string
	closed  bool
}

func NewApp(title string, c *AppContainer) *app {
	a := &app{c: c, width: c.Config.WindowWidth, height: c.Config.WindowHeight}

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", a.width, a.height))
	return a
}

// Start builds the window, wires the presenters and blocks in the Tk loop.
func (a *app) Start() {
	theme.InitStyles()

	c := a.c
	c.RootView = view.NewRootView(c.Config, c.ConfigPath, c.Logger, c.ApplyConfig)
	c.Source.SetPicker(view.PickImageFile)
	c.AttachUI(c.RootView, a.scheduleUpdate)

	act := c.ActionPresenter
	c.RootView.Build(view.Actions{
		TakePicture: act.TakePicture,
		PickImage:   act.PickImage,
		Detect:      act.Detect,
		Clear:       act.Clear,
		Exit:        a.exitHandler,
	})

	// Kick off update loop.
	a.scheduleUpdate()

	App.Wait()
}

func (a *app) update() {
	if a.closed {
		return
	}
	// Loop.Tick re-arms the timer through scheduleUpdate.
	a.c.Loop.Tick()
}

func (a *app) exitHandler() {
	if a.closed {
		return
	}
	a.closed = true
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.c.Close()
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}
