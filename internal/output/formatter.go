// Package output provides formatting utilities for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Format represents an output format.
type Format int

const (
	// FormatText is human-readable text output.
	FormatText Format = iota
	// FormatJSON is the JSON envelope.
	FormatJSON
)

// FormatFor returns FormatJSON when jsonFlag is set.
func FormatFor(jsonFlag bool) Format {
	if jsonFlag {
		return FormatJSON
	}
	return FormatText
}

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a new output writer.
func NewWriter(dest io.Writer, format Format) *Writer {
	return &Writer{
		dest:   dest,
		format: format,
	}
}

// JSON reports whether the writer emits the JSON envelope.
func (w *Writer) JSON() bool {
	return w.format == FormatJSON
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// Printf writes formatted text.
func (w *Writer) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(w.dest, format, args...)
	return err
}

// Colorf writes formatted text in the given color. Honors color.NoColor.
func (w *Writer) Colorf(c *color.Color, format string, args ...any) error {
	_, err := c.Fprintf(w.dest, format, args...)
	return err
}

// Table writes rows as aligned columns with an upper-cased header.
func (w *Writer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w.dest, 0, 0, 2, ' ', 0)
	upper := make([]string, len(header))
	for i, h := range header {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
