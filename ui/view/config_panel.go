package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/snap-detect-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the settings form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int) // constructs widgets inside parent starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	onApply  func(*config.Config)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg. onApply runs after a
// successful save.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(28))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("endpoint", "Endpoint (next start)", c.Endpoint)
	makeRow("timeoutSeconds", "Timeout Seconds (next start)", fmt.Sprintf("%d", c.TimeoutSeconds))
	makeRow("displayWidthRatio", "Display Width Ratio", fmt.Sprintf("%.2f", c.DisplayWidthRatio))
	makeRow("minConfidence", "Min Confidence (0-1)", fmt.Sprintf("%.2f", c.MinConfidence))
	makeRow("preferServerAnnotation", "Server Overlay (true/false)", fmt.Sprintf("%t", c.PreferServerAnnotation))
	makeRow("jpegQuality", "JPEG Quality (next start)", fmt.Sprintf("%d", c.JPEGQuality))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.Join(parts, "")
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	fields := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		fields[id] = strings.TrimSpace(v.text(w))
	}
	cfg := applyFields(*v.cfg, fields)
	if verr := cfg.Validate(); verr != nil {
		return
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	if v.onApply != nil {
		v.onApply(v.cfg)
	}
}

// applyFields copies cfg and overwrites every field whose text parses.
func applyFields(cfg config.Config, fields map[string]string) config.Config {
	if s := fields["endpoint"]; s != "" {
		cfg.Endpoint = s
	}
	if i, ok := parseIntField(fields["timeoutSeconds"]); ok {
		cfg.TimeoutSeconds = i
	}
	if f, ok := parseFloatField(fields["displayWidthRatio"]); ok {
		cfg.DisplayWidthRatio = f
	}
	if f, ok := parseFloatField(fields["minConfidence"]); ok {
		cfg.MinConfidence = f
	}
	if b, ok := parseBoolLoose(fields["preferServerAnnotation"]); ok {
		cfg.PreferServerAnnotation = b
	}
	if i, ok := parseIntField(fields["jpegQuality"]); ok {
		cfg.JPEGQuality = i
	}
	return cfg
}

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
