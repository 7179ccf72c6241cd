// Package theme holds the colour palettes used by the terminal log
// handler, the startup banner, and the per-provider log highlighting in
// internal/logger's styled logger.
package theme

import (
	"github.com/pterm/pterm"
)

// Theme is a named colour palette: one style per log level, a handful of
// component styles for highlighting provider names and muted detail text,
// and the raw pterm.Color values callers compose their own styles from.
type Theme struct {
	Debug *pterm.Style
	Info  *pterm.Style
	Warn  *pterm.Style
	Error *pterm.Style
	Fatal *pterm.Style

	Success   *pterm.Style
	Highlight *pterm.Style
	Muted     *pterm.Style
	Accent    *pterm.Style

	Primary   pterm.Color
	Secondary pterm.Color
	Danger    pterm.Color
	Warning   pterm.Color
	Good      pterm.Color
}

// palette is the shape the three built-in variants share; only the
// foreground colours differ between them.
type palette struct {
	debug, info, warn, err pterm.Color
	success, highlight     pterm.Color
	accent                 pterm.Color
	primary, secondary     pterm.Color
	danger, warning, good  pterm.Color
}

func (p palette) build() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(p.debug),
		Info:  pterm.NewStyle(p.info),
		Warn:  pterm.NewStyle(p.warn, pterm.Bold),
		Error: pterm.NewStyle(p.err, pterm.Bold),
		Fatal: pterm.NewStyle(pterm.FgWhite, pterm.BgRed, pterm.Bold),

		Success:   pterm.NewStyle(p.success, pterm.Bold),
		Highlight: pterm.NewStyle(p.highlight, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(p.accent),

		Primary:   p.primary,
		Secondary: p.secondary,
		Danger:    p.danger,
		Warning:   p.warning,
		Good:      p.good,
	}
}

// Default is the palette used when no theme name is configured, or the
// configured name doesn't match a known variant.
func Default() *Theme {
	return palette{
		debug: pterm.FgLightBlue, info: pterm.FgGreen, warn: pterm.FgYellow, err: pterm.FgRed,
		success: pterm.FgGreen, highlight: pterm.FgCyan, accent: pterm.FgMagenta,
		primary: pterm.FgBlue, secondary: pterm.FgCyan,
		danger: pterm.FgRed, warning: pterm.FgYellow, good: pterm.FgGreen,
	}.build()
}

// Dark leans on pterm's light/bright foreground variants, for terminals
// with a dark background that wash out Default's saturation.
func Dark() *Theme {
	return palette{
		debug: pterm.FgLightBlue, info: pterm.FgLightGreen, warn: pterm.FgLightYellow, err: pterm.FgLightRed,
		success: pterm.FgLightGreen, highlight: pterm.FgLightCyan, accent: pterm.FgLightMagenta,
		primary: pterm.FgLightBlue, secondary: pterm.FgLightCyan,
		danger: pterm.FgLightRed, warning: pterm.FgLightYellow, good: pterm.FgLightGreen,
	}.build()
}

// Light swaps info/highlight to black/blue and reuses red for warnings,
// for terminals with a light background.
func Light() *Theme {
	return palette{
		debug: pterm.FgBlue, info: pterm.FgBlack, warn: pterm.FgRed, err: pterm.FgRed,
		success: pterm.FgGreen, highlight: pterm.FgBlue, accent: pterm.FgMagenta,
		primary: pterm.FgBlue, secondary: pterm.FgCyan,
		danger: pterm.FgRed, warning: pterm.FgRed, good: pterm.FgGreen,
	}.build()
}

// GetTheme resolves a configured theme name to a palette. An empty or
// unrecognised name falls back to Default rather than erroring - a typo
// in the theme config shouldn't keep the gateway from starting.
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	case "light":
		return Light()
	default:
		return Default()
	}
}

// ColourSplash renders the startup banner's border and body text.
func ColourSplash(message ...any) string {
	return pterm.LightGreen(message...)
}

// ColourVersion renders the version string in the startup banner.
func ColourVersion(message ...any) string {
	return pterm.LightYellow(message...)
}

// StyleUrl renders hyperlink display text in the startup banner.
func StyleUrl(message ...any) string {
	return pterm.LightBlue(message...)
}

// Hyperlink wraps text in the OSC 8 terminal hyperlink escape sequence
// pointing at uri. Terminals that don't understand OSC 8 print text plain.
func Hyperlink(uri string, text string) string {
	return "\x1b]8;;" + uri + "\x07" + text + "\x1b]8;;\x07" + "[0m"
}
