package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/deliver"
	"github.com/maxvaer/picknfetch/internal/identity"
	"github.com/maxvaer/picknfetch/internal/logger"
)

var (
	// ErrEmptySelection is returned when a batch is started with no entries.
	ErrEmptySelection = errors.New("no entries selected")

	// ErrCancelled marks entries that were never attempted because the
	// batch was cancelled at an earlier entry boundary.
	ErrCancelled = errors.New("batch cancelled before entry was attempted")
)

// Extractor fetches the bytes of one archive entry.
type Extractor interface {
	Extract(ctx context.Context, id identity.Identity, entry api.Entry) ([]byte, error)
}

// Config holds optional batch settings.
type Config struct {
	Rate      int     // extraction requests per second, 0 = unlimited
	Pauser    *Pauser // nil = no pause support
	OnStart   func(pos, total int, entry api.Entry)
	OnOutcome func(o Outcome)
}

// Orchestrator fetches selected entries one at a time and hands each to a
// Deliverer as soon as it arrives.
type Orchestrator struct {
	extractor Extractor
	deliverer deliver.Deliverer
	limiter   ratelimit.Limiter
	pauser    *Pauser
	onStart   func(pos, total int, entry api.Entry)
	onOutcome func(o Outcome)
	logger    zerolog.Logger
}

// New creates an Orchestrator.
func New(ex Extractor, d deliver.Deliverer, cfg Config) *Orchestrator {
	limiter := ratelimit.NewUnlimited()
	if cfg.Rate > 0 {
		limiter = ratelimit.New(cfg.Rate, ratelimit.WithoutSlack)
	}
	return &Orchestrator{
		extractor: ex,
		deliverer: d,
		limiter:   limiter,
		pauser:    cfg.Pauser,
		onStart:   cfg.OnStart,
		onOutcome: cfg.OnOutcome,
		logger:    logger.New("fetch"),
	}
}

// Run fetches entries[i] for every i in indices, in ascending index order,
// and returns exactly one Outcome per distinct index. A failed entry never
// stops the batch. The only errors returned are precondition failures,
// detected before any request is made.
//
// Cancelling ctx takes effect at entry boundaries: the request in flight
// completes (bounded by the client timeout) and the remaining entries are
// recorded as ErrCancelled.
func (o *Orchestrator) Run(ctx context.Context, entries []api.Entry, indices []int, id identity.Identity) (*Report, error) {
	order, err := normalize(indices, len(entries))
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:        uuid.NewString(),
		SourceURL: id.SourceURL,
		Started:   time.Now(),
		Outcomes:  make([]Outcome, 0, len(order)),
	}
	log := o.logger.With().Str("batch", report.ID).Logger()
	log.Debug().Int("entries", len(order)).Str("archive", id.SourceURL).Msg("batch started")

	for pos, idx := range order {
		entry := entries[idx]

		if err := o.boundary(ctx); err != nil {
			o.record(report, Outcome{Index: idx, Entry: entry, Err: fmt.Errorf("%w: %v", ErrCancelled, err)})
			continue
		}

		if o.onStart != nil {
			o.onStart(pos+1, len(order), entry)
		}
		o.record(report, o.fetchOne(ctx, log, id, idx, entry))
	}

	report.Duration = time.Since(report.Started)
	log.Debug().
		Str("status", report.Status().String()).
		Int("delivered", report.DeliveredCount()).
		Int("failed", len(report.Outcomes)-report.DeliveredCount()).
		Dur("elapsed", report.Duration).
		Msg("batch finished")
	return report, nil
}

// boundary is checked before each entry: cancellation, pause, pacing.
func (o *Orchestrator) boundary(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.pauser != nil {
		if err := o.pauser.Wait(ctx); err != nil {
			return err
		}
	}
	o.limiter.Take()
	return ctx.Err()
}

func (o *Orchestrator) fetchOne(ctx context.Context, log zerolog.Logger, id identity.Identity, idx int, entry api.Entry) Outcome {
	start := time.Now()
	out := Outcome{Index: idx, Entry: entry}

	// The request itself is not cancelled mid-flight.
	data, err := o.extractor.Extract(context.WithoutCancel(ctx), id, entry)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(start)
		log.Warn().Err(err).Int("index", idx).Str("file", entry.Filename).Msg("extraction failed")
		return out
	}
	out.Bytes = int64(len(data))

	path, err := o.deliverer.Deliver(entry.Filename, data)
	out.Duration = time.Since(start)
	if err != nil {
		var de *deliver.Error
		if !errors.As(err, &de) {
			err = &deliver.Error{Filename: entry.Filename, Err: err}
		}
		out.Err = err
		log.Warn().Err(err).Int("index", idx).Str("file", entry.Filename).Msg("delivery failed")
		return out
	}
	out.Path = path
	log.Debug().Int("index", idx).Str("file", entry.Filename).Int64("bytes", out.Bytes).Str("path", path).Msg("delivered")
	return out
}

func (o *Orchestrator) record(r *Report, out Outcome) {
	r.Outcomes = append(r.Outcomes, out)
	if o.onOutcome != nil {
		o.onOutcome(out)
	}
}

// normalize returns the distinct indices in ascending order after checking
// they address entries of a list of length n.
func normalize(indices []int, n int) ([]int, error) {
	if len(indices) == 0 {
		return nil, ErrEmptySelection
	}
	seen := make(map[int]struct{}, len(indices))
	order := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("selected index %d is outside the entry list (%d entries)", i, n)
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		order = append(order, i)
	}
	sort.Ints(order)
	return order, nil
}
