package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors for the monitor display.
type ColorScheme struct {
	Title     *color.Color
	Header    *color.Color
	Key       *color.Color
	LatencyOK *color.Color
	LatencyHi *color.Color
	Count     *color.Color
	Footer    *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.FgCyan, color.Bold),
		Header:    color.New(color.FgYellow),
		Key:       color.New(color.FgBlue, color.Bold),
		LatencyOK: color.New(color.FgGreen),
		LatencyHi: color.New(color.FgRed, color.Bold),
		Count:     color.New(color.FgWhite),
		Footer:    color.New(color.FgMagenta),
	}
}

// NoColorScheme returns a scheme with every color disabled, for
// batch output or non-TTY destinations.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.Header.DisableColor()
	scheme.Key.DisableColor()
	scheme.LatencyOK.DisableColor()
	scheme.LatencyHi.DisableColor()
	scheme.Count.DisableColor()
	scheme.Footer.DisableColor()
	return scheme
}

// SchemeFor picks a scheme for stdout: colors on an interactive
// terminal, plain text everywhere else.
func SchemeFor(batchMode bool) *ColorScheme {
	if batchMode || !isatty.IsTerminal(os.Stdout.Fd()) {
		return NoColorScheme()
	}
	return DefaultColorScheme()
}
