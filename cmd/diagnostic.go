// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/luthersystems/nxt/diagnostic"
	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/viper"
)

// colorMode returns the configured color mode. An invalid setting falls
// back to auto detection.
func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(viper.GetString(keyColor))
	if err != nil {
		log.Warning(err.Error())
	}
	return mode
}

// newRenderer returns a renderer that reads sources from disk, except for
// the in-memory sources given.
func newRenderer(sources map[string][]byte) *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color: colorMode(),
		SourceReader: func(path string) ([]byte, error) {
			if src, ok := sources[path]; ok {
				return src, nil
			}
			return os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		},
	}
}

// printSummary writes a one line count of diags by severity.
func printSummary(w io.Writer, diags []lint.Diagnostic, mode diagnostic.ColorMode) {
	var errs, warns, infos int
	for _, d := range diags {
		switch d.Severity {
		case lint.SeverityError:
			errs++
		case lint.SeverityWarning:
			warns++
		default:
			infos++
		}
	}
	c := color.New(color.Bold)
	switch {
	case errs > 0:
		c.Add(color.FgRed)
	case warns > 0:
		c.Add(color.FgYellow)
	default:
		c.Add(color.FgCyan)
	}
	if f, ok := w.(*os.File); ok && diagnostic.UseColor(mode, f) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	_, _ = c.Fprintf(w, "%s (%s, %s, %s)\n",
		plural(len(diags), "problem"), plural(errs, "error"), plural(warns, "warning"), plural(infos, "info"))
}

func plural(n int, noun string) string {
	if n == 1 || noun == "info" {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
