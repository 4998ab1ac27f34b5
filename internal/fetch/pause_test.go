package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauserWaitNotPaused(t *testing.T) {
	p := NewPauser()
	done := make(chan error, 1)
	go func() { done <- p.Wait(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait() blocked when not paused")
	}
}

func TestPauserToggle(t *testing.T) {
	p := NewPauser()
	require.False(t, p.IsPaused())

	assert.True(t, p.Toggle())
	assert.True(t, p.IsPaused())

	assert.False(t, p.Toggle())
	assert.False(t, p.IsPaused())
}

func TestPauserBlocksAndResumes(t *testing.T) {
	p := NewPauser()
	p.Toggle()

	done := make(chan error, 1)
	go func() { done <- p.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait() returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	p.Toggle()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after resume")
	}
}

func TestPauserWaitHonoursContext(t *testing.T) {
	p := NewPauser()
	p.Toggle()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, p.IsPaused())
}

func TestPauserDuration(t *testing.T) {
	p := NewPauser()

	p.Toggle()
	time.Sleep(50 * time.Millisecond)
	p.Toggle()

	p.Toggle()
	time.Sleep(50 * time.Millisecond)
	p.Toggle()

	total := p.PausedDuration()
	if total < 80*time.Millisecond || total > 500*time.Millisecond {
		t.Fatalf("expected ~100ms accumulated pause, got %s", total)
	}
}
