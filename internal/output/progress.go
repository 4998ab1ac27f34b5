package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

// Progress shows a single status line on stderr while a batch runs.
type Progress struct {
	mu        sync.Mutex
	w         io.Writer
	total     int
	position  int
	current   string
	delivered int
	failed    int
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	enabled   bool
}

// NewProgress creates a progress tracker. It stays silent when quiet is set
// or stderr is not a terminal.
func NewProgress(total int, quiet bool) *Progress {
	return newProgress(os.Stderr, total, !quiet && term.IsTerminal(int(os.Stderr.Fd())))
}

func newProgress(w io.Writer, total int, enabled bool) *Progress {
	return &Progress{
		w:       w,
		total:   total,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		enabled: enabled,
	}
}

// Start begins periodically redrawing the status line.
func (p *Progress) Start() {
	if !p.enabled {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(p.w, "\n")
				return
			}
		}
	}()
}

// Begin records that the entry at position pos (1-based) is being fetched.
func (p *Progress) Begin(pos, total int, e api.Entry) {
	p.mu.Lock()
	p.position = pos
	p.total = total
	p.current = e.Filename
	p.mu.Unlock()
}

// Record counts a finished entry.
func (p *Progress) Record(o fetch.Outcome) {
	p.mu.Lock()
	if o.Delivered() {
		p.delivered++
	} else {
		p.failed++
	}
	p.current = ""
	p.mu.Unlock()
}

// Stop ends the display and waits for the last redraw.
func (p *Progress) Stop() {
	close(p.done)
	<-p.stopped
}

func (p *Progress) print() {
	p.mu.Lock()
	defer p.mu.Unlock()

	finished := p.delivered + p.failed
	pct := float64(0)
	if p.total > 0 {
		pct = float64(finished) / float64(p.total) * 100
	}
	elapsed := time.Since(p.start).Round(time.Second)

	fmt.Fprintf(p.w, "\r\033[K[%3.0f%%] %d/%d | Delivered: %d | Failed: %d | %s | %s",
		pct, p.position, p.total, p.delivered, p.failed, elapsed, p.current)
}
