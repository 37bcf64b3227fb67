package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/quill-lang/quillc/internal/diag"
)

// printDiagnostics renders ds to w, one line per diagnostic, errors in red
// and warnings in yellow. Colorization is driven entirely by fatih/color's
// own auto-detection (disabled on a non-TTY writer) except when noColor
// forces it off regardless of the destination.
func printDiagnostics(w io.Writer, ds []diag.Diagnostic, noColor bool) {
	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)
	if noColor {
		errColor.DisableColor()
		warnColor.DisableColor()
	}
	for _, d := range ds {
		line := fmt.Sprintf("%s: %s [%s]", d.Span, d.Message, d.Kind)
		if d.Severity == diag.Error {
			errColor.Fprintln(w, "error: "+line)
		} else {
			warnColor.Fprintln(w, "warning: "+line)
		}
	}
}
