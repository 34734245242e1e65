// Package console renders progress, error, and summary lines for report
// runs. Output goes through an injectable writer so command tests can
// capture it; colors degrade to plain text on non-terminal writers.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Console writes human-facing status lines.
type Console struct {
	out io.Writer

	info    *color.Color
	errc    *color.Color
	success *color.Color
}

// New returns a Console writing to w.
func New(w io.Writer) *Console {
	return &Console{
		out:     w,
		info:    color.New(color.FgCyan),
		errc:    color.New(color.FgRed),
		success: color.New(color.FgGreen),
	}
}

// Infof prints a progress line.
func (c *Console) Infof(format string, args ...any) {
	c.info.Fprintf(c.out, format+"\n", args...)
}

// Errorf prints a non-fatal error line. Reports log and continue; nothing
// here terminates the run.
func (c *Console) Errorf(format string, args ...any) {
	c.errc.Fprintf(c.out, format+"\n", args...)
}

// Successf prints the final summary line (output path, row counts).
func (c *Console) Successf(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Plainf prints an uncolored line.
func (c *Console) Plainf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
