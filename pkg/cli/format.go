// Package cli provides shared formatting helpers for the netprof CLI.
package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// colorEnabled is true when stdout is a terminal and NO_COLOR is unset
// (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))

var (
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleBold   = lipgloss.NewStyle().Bold(true)
	styleDim    = lipgloss.NewStyle().Faint(true)
)

// SetColor overrides terminal detection.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// ColorEnabled reports whether the helpers below emit styling.
func ColorEnabled() bool {
	return colorEnabled
}

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// Green renders s in green. Returns s unchanged when color is off.
func Green(s string) string { return render(styleGreen, s) }

// Yellow renders s in yellow. Returns s unchanged when color is off.
func Yellow(s string) string { return render(styleYellow, s) }

// Red renders s in red. Returns s unchanged when color is off.
func Red(s string) string { return render(styleRed, s) }

// Bold renders s in bold. Returns s unchanged when color is off.
func Bold(s string) string { return render(styleBold, s) }

// Dim renders s faint. Returns s unchanged when color is off.
func Dim(s string) string { return render(styleDim, s) }

// Signed formats v with an explicit sign for non-zero values: "+5", "-3", "0".
func Signed(v int64) string {
	if v > 0 {
		return "+" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// DotPad pads name with dots to the given width.
// Example: DotPad("iface 1", 20) → "iface 1 ............"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
