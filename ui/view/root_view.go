package view

import (
	"image"
	"log/slog"

	"github.com/soocke/snap-detect-go/config"
	"github.com/soocke/snap-detect-go/domain/session"
	"github.com/soocke/snap-detect-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	onApply func(*config.Config)

	// Subviews
	Preview     Preview
	Results     ResultsList
	ConfigPanel ConfigPanel

	// Widgets
	StatusLabel *TLabelWidget
	detectBtn   *TButtonWidget
	previewMaxH int
}

// Actions are the handlers bound to the toolbar buttons.
type Actions struct {
	TakePicture func()
	PickImage   func()
	Detect      func()
	Clear       func()
	Exit        func()
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	SetStatus(text string, phase session.Phase)
	SetResults(lines []string)
	ShowPreview(img image.Image)
	ClearPreview()
	Notify(title, message string)
	AvailableWidth() int
	PreviewMaxHeight() int
}

const (
	viewColumns  = 5
	chromeHeight = 420 // toolbar, status, results and settings rows
	sidePadding  = 24
)

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(a Actions) {
	if rv == nil {
		return
	}
	// Row 0: toolbar
	buttons := []struct {
		text  string
		style string
		fn    func()
	}{
		{"Take Picture", theme.StylePrimaryButton, a.TakePicture},
		{"Pick Image", theme.StylePrimaryButton, a.PickImage},
		{"Detect", theme.StyleAccentButton, a.Detect},
		{"Clear", "", a.Clear},
		{"Exit", theme.StyleDangerButton, a.Exit},
	}
	for i, b := range buttons {
		opts := []Opt{Txt(b.text), Command(b.fn)}
		if b.style != "" {
			opts = append(opts, Style(b.style))
		}
		btn := TButton(opts...)
		Grid(btn, Row(0), Column(i), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
		if b.text == "Detect" {
			rv.detectBtn = btn
		}
	}

	// Row 1: status
	rv.StatusLabel = TLabel(Txt("No image. Take or pick a photo."), Style(theme.StatusStyle(session.PhaseIdle.String())), Anchor("w"))
	Grid(rv.StatusLabel, Row(1), Column(0), Columnspan(viewColumns), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Row 2: preview, row 3: results
	maxH := 0
	if rv.cfg != nil {
		maxH = rv.cfg.WindowHeight - chromeHeight
		if maxH < 120 {
			maxH = 120
		}
	}
	rv.previewMaxH = maxH
	rv.Preview = NewPreview(2, viewColumns, maxH)
	rv.Results = NewResultsList(3, viewColumns)

	// Row 4: settings
	settings := Frame(Borderwidth(1), Relief("groove"))
	Grid(settings, Row(4), Column(0), Columnspan(viewColumns), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, rv.onApply)
	rv.ConfigPanel.Build(settings, 0)
}

// SetStatus updates the status line and disables Detect while uploading.
func (rv *RootView) SetStatus(text string, phase session.Phase) {
	if rv == nil || rv.StatusLabel == nil {
		return
	}
	rv.StatusLabel.Configure(Txt(text), Style(theme.StatusStyle(phase.String())))
	if rv.detectBtn != nil {
		state := "normal"
		if phase == session.PhaseUploading {
			state = "disabled"
		}
		rv.detectBtn.Configure(State(state))
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(phase != session.PhaseUploading)
	}
}

// SetResults proxies to the results list.
func (rv *RootView) SetResults(lines []string) {
	if rv != nil && rv.Results != nil {
		rv.Results.SetLines(lines)
	}
}

// ShowPreview proxies to the preview.
func (rv *RootView) ShowPreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Show(img)
	}
}

// ClearPreview resets the preview to the placeholder.
func (rv *RootView) ClearPreview() {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Reset()
	}
}

// Notify shows a modal message.
func (rv *RootView) Notify(title, message string) {
	if rv != nil && rv.logger != nil {
		rv.logger.Info("notify", "title", title, "message", message)
	}
	ShowMessage(title, message)
}

// AvailableWidth returns the usable preview width of the main window. Falls
// back to the configured window width before the window is mapped.
func (rv *RootView) AvailableWidth() int {
	w, ok := parseGeometryWidth(WmGeometry(App))
	if !ok || w <= 1 {
		if rv == nil || rv.cfg == nil {
			return 0
		}
		w = rv.cfg.WindowWidth
	}
	if w -= sidePadding; w < 1 {
		w = 1
	}
	return w
}

// PreviewMaxHeight is the height budget of the preview row; 0 before Build.
func (rv *RootView) PreviewMaxHeight() int {
	if rv == nil {
		return 0
	}
	return rv.previewMaxH
}

var _ UI = (*RootView)(nil)
