package theme

// Centralized theming and styling initialization for the snap-detect UI.
// Provides palette constants and InitStyles to activate a base theme and
// configure semantic widget styles.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, cards
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb" // buttons, accents
	ColorDanger    = "#dc2626"
	ColorAccent    = "#10b981"
	ColorWarning   = "#d97706"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleAccentButton  = "accent.TButton"
	StyleDangerButton  = "danger.TButton"

	StyleStatusIdle  = "idle.TLabel"
	StyleStatusBusy  = "busy.TLabel"
	StyleStatusOK    = "ok.TLabel"
	StyleStatusError = "error.TLabel"
)

// StatusStyle maps a session phase name to the status label style.
func StatusStyle(phase string) string {
	switch phase {
	case "uploading":
		return StyleStatusBusy
	case "detected":
		return StyleStatusOK
	case "failed":
		return StyleStatusError
	default:
		return StyleStatusIdle
	}
}

// InitStyles activates the base theme and configures the semantic styles.
func InitStyles() {
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(ColorBg))

	button := func(name, bg string) {
		StyleConfigure(name,
			Background(bg),
			Foreground("white"),
			Padding("4p 3p"),
			Borderwidth(1),
			Relief("ridge"),
		)
	}
	button(StylePrimaryButton, ColorPrimary)
	button(StyleAccentButton, ColorAccent)
	button(StyleDangerButton, ColorDanger)

	status := func(name, fg, bg string) {
		StyleConfigure(name,
			Foreground(fg),
			Background(bg),
			Padding("4p 2p"),
			Borderwidth(1),
			Relief("groove"),
		)
	}
	status(StyleStatusIdle, ColorText, ColorSurface)
	status(StyleStatusBusy, "white", ColorWarning)
	status(StyleStatusOK, "white", ColorAccent)
	status(StyleStatusError, "white", ColorDanger)
}
