// Copyright © 2024 The nxt authors

package diagnostic

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// palette styles the parts of a rendered diagnostic. A disabled palette
// writes plain text.
type palette struct {
	enabled bool
}

func newPalette(enabled bool) palette {
	return palette{enabled: enabled}
}

func (p palette) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// gutter styles arrows, line numbers and the "|" margin.
func (p palette) gutter() *color.Color {
	return p.style(color.Bold, color.FgBlue)
}

func (p palette) note() *color.Color {
	return p.style(color.Bold, color.FgCyan)
}

func (p palette) bold() *color.Color {
	return p.style(color.Bold)
}

// severity styles the markers and labels of a primary span.
func (p palette) severity(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return p.style(color.Bold, color.FgRed)
	case SeverityWarning:
		return p.style(color.FgYellow)
	case SeverityInfo:
		return p.style(color.FgGreen)
	default:
		return p.style(color.Bold, color.FgCyan)
	}
}

// header styles the "severity[code]" prefix of the first line.
func (p palette) header(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return p.style(color.Bold, color.FgRed)
	case SeverityWarning:
		return p.style(color.Bold, color.FgYellow)
	case SeverityInfo:
		return p.style(color.Bold, color.FgGreen)
	default:
		return p.style(color.Bold, color.FgCyan)
	}
}

// UseColor reports whether output to f should be colored under mode.
func UseColor(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && f != nil && term.IsTerminal(int(f.Fd()))
	}
}
