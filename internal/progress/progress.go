// Package progress renders a batch progress bar on stderr so stdout stays
// clean for results and JSON.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Bar renders an ASCII progress bar.
type Bar struct {
	Total   int
	Current int
	Failed  int
	Label   string
	Width   int
	Enabled bool

	out io.Writer
	mu  sync.Mutex
}

// New creates a progress bar. It is disabled when stderr is not a terminal,
// when jsonOut is set, or when DOCTRACK_NO_PROGRESS=1.
func New(label string, total int, jsonOut bool) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   40,
		Enabled: !jsonOut && shouldEnable(),
		out:     os.Stderr,
	}
}

// Done advances the bar by one finished item and redraws.
func (b *Bar) Done(item string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Current++
	if b.Current > b.Total {
		b.Current = b.Total
	}
	if err != nil {
		b.Failed++
	}
	b.render(item)
}

// Finish prints a final summary line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.writer(), "\r\033[K%s: %d/%d done, %d failed\n", b.Label, b.Current-b.Failed, b.Total, b.Failed)
}

// Pct returns the current percentage (0-100) of the bar.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Total == 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Total) * 100
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	pct := 0.0
	if b.Total > 0 {
		pct = float64(b.Current) / float64(b.Total)
	}
	filled := int(pct * float64(b.Width))
	if filled > b.Width {
		filled = b.Width
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.Width-filled)
	fmt.Fprintf(b.writer(), "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.Current, b.Total, status)
}

func (b *Bar) writer() io.Writer {
	if b.out == nil {
		return os.Stderr
	}
	return b.out
}

func shouldEnable() bool {
	if os.Getenv("DOCTRACK_NO_PROGRESS") == "1" {
		return false
	}
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
