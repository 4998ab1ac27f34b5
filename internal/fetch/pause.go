package fetch

import (
	"context"
	"sync"
	"time"
)

// Pauser holds a batch at the next entry boundary while paused. An entry
// whose request is already in flight always finishes first.
type Pauser struct {
	mu          sync.Mutex
	resume      chan struct{} // non-nil while paused, closed on resume
	pausedSince time.Time
	totalPaused time.Duration
}

// NewPauser creates a Pauser in the running (unpaused) state.
func NewPauser() *Pauser {
	return &Pauser{}
}

// Wait blocks while paused. It returns ctx.Err() if the context ends
// first, nil otherwise.
func (p *Pauser) Wait(ctx context.Context) error {
	p.mu.Lock()
	ch := p.resume
	p.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Toggle flips between paused and running and returns true when the
// batch is now paused.
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resume != nil {
		p.totalPaused += time.Since(p.pausedSince)
		close(p.resume)
		p.resume = nil
		return false
	}
	p.resume = make(chan struct{})
	p.pausedSince = time.Now()
	return true
}

// IsPaused returns whether the batch is currently paused.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resume != nil
}

// PausedDuration returns the total time spent paused, including any
// ongoing pause.
func (p *Pauser) PausedDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.totalPaused
	if p.resume != nil {
		d += time.Since(p.pausedSince)
	}
	return d
}
