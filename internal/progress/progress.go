// Package progress renders a progress bar and a spinner on stderr.
// Both stay silent unless stderr is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Bar tracks how many subjects of a run have been processed.
type Bar struct {
	Total   int
	Current int
	Label   string
	Width   int
	Enabled bool
	Out     io.Writer

	mu sync.Mutex
}

// New creates a progress bar.
// It is disabled when stderr is not a TTY or BOATKIT_NO_PROGRESS=1.
func New(label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
	}
}

// Start resets the bar for a run of total items.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Total = total
	b.Current = 0
	b.render("")
}

// Increment advances the bar by one and shows status next to it.
func (b *Bar) Increment(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Current < b.Total {
		b.Current++
	}
	b.render(status)
}

// Finish clears the bar and prints a summary line.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.Out, "\r\033[K%s %s\n", color.GreenString("✓"), summary)
}

// Pct returns the completed share of the bar, 0-100.
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

	filled := 0
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.Width-filled)
	fmt.Fprintf(b.Out, "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.Current, b.Total, status)
}

// Spinner is shown while a single request is in flight.
type Spinner struct {
	Label   string
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewSpinner creates a spinner.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
	}
}

// Start begins the animation. It is a no-op when disabled or already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Enabled || s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	go s.spin(s.done)
}

func (s *Spinner) spin(done <-chan struct{}) {
	frames := []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.running {
				fmt.Fprintf(s.Out, "\r\033[K%c %s", frames[i%len(frames)], s.Label)
			}
			s.mu.Unlock()
		}
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	fmt.Fprint(s.Out, "\r\033[K")
}

func shouldEnable() bool {
	if os.Getenv("BOATKIT_NO_PROGRESS") == "1" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
