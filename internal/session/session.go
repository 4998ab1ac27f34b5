package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
	"github.com/maxvaer/picknfetch/internal/identity"
	"github.com/maxvaer/picknfetch/internal/logger"
	"github.com/maxvaer/picknfetch/internal/selection"
)

// ErrBusy is returned when an operation is started while another one is
// still running.
var ErrBusy = errors.New("another operation is in progress")

// ValidationError reports a user input problem detected before any
// network call.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// Inspector obtains an archive's entry list.
type Inspector interface {
	Inspect(ctx context.Context, id identity.Identity) ([]api.Entry, error)
}

// Batcher runs one download batch.
type Batcher interface {
	Run(ctx context.Context, entries []api.Entry, indices []int, id identity.Identity) (*fetch.Report, error)
}

// Session owns the inspected entry list, the selection over it and the
// identity used to obtain it. Inspect and Download are mutually exclusive;
// the list and selection only change between operations.
type Session struct {
	inspector Inspector
	batcher   Batcher

	busy     *semaphore.Weighted
	id       identity.Identity
	entries  []api.Entry
	selected *selection.Set
	status   string
	logger   zerolog.Logger
}

// New creates an idle session with an empty entry list.
func New(inspector Inspector, batcher Batcher) *Session {
	return &Session{
		inspector: inspector,
		batcher:   batcher,
		busy:      semaphore.NewWeighted(1),
		selected:  selection.New(0),
		status:    "idle",
		logger:    logger.New("session"),
	}
}

// Inspect replaces the entry list with the one reported for id. The
// selection is cleared whether or not inspection succeeds, so indices
// from an earlier list can never address entries of a new one.
func (s *Session) Inspect(ctx context.Context, id identity.Identity) error {
	if !s.busy.TryAcquire(1) {
		return ErrBusy
	}
	defer s.busy.Release(1)

	s.status = "inspecting"
	s.entries = nil
	s.selected.Reset(0)
	s.id = id

	entries, err := s.inspector.Inspect(ctx, id)
	if err != nil {
		s.status = "error: " + reason(err)
		return err
	}

	s.entries = entries
	s.selected.Reset(len(entries))
	s.status = fmt.Sprintf("inspected (%d entries)", len(entries))
	s.logger.Debug().Str("archive", id.SourceURL).Int("entries", len(entries)).Msg("entry list replaced")
	return nil
}

// Entries returns the current entry list. Callers must not modify it.
func (s *Session) Entries() []api.Entry { return s.entries }

// Toggle adds or removes index i from the selection.
func (s *Session) Toggle(i int, included bool) error {
	if !s.busy.TryAcquire(1) {
		return ErrBusy
	}
	defer s.busy.Release(1)
	return s.selected.Toggle(i, included)
}

// Selection returns the selected indices in ascending order.
func (s *Session) Selection() []int { return s.selected.Indices() }

// Status returns the message describing the latest state.
func (s *Session) Status() string { return s.status }

// Download runs one batch over a snapshot of the current selection. An
// empty selection is rejected with a *ValidationError before any request
// is made.
func (s *Session) Download(ctx context.Context) (*fetch.Report, error) {
	if !s.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer s.busy.Release(1)

	indices := s.selected.Indices()
	if len(indices) == 0 {
		return nil, &ValidationError{Msg: "please select files to download"}
	}

	s.status = fmt.Sprintf("running (%d entries)", len(indices))
	report, err := s.batcher.Run(ctx, s.entries, indices, s.id)
	if err != nil {
		s.status = "failed: " + err.Error()
		return nil, err
	}

	switch failed := len(report.Failed()); {
	case failed == 0:
		s.status = "completed"
	case failed == len(report.Outcomes):
		s.status = fmt.Sprintf("failed: all %d entries failed", failed)
	default:
		s.status = fmt.Sprintf("completed with %d failures", failed)
	}
	return report, nil
}

func reason(err error) string {
	var ie *api.InspectionError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return err.Error()
}
