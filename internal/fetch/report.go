package fetch

import (
	"errors"
	"time"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/deliver"
)

// Status is the terminal state of a batch.
type Status int

const (
	Completed Status = iota
	PartiallyCompleted
	AllFailed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case PartiallyCompleted:
		return "partially completed"
	case AllFailed:
		return "all failed"
	default:
		return "unknown"
	}
}

// Outcome is the result for one selected entry. Err is nil when the entry
// was delivered.
type Outcome struct {
	Index    int
	Entry    api.Entry
	Bytes    int64  // bytes received from the service
	Path     string // where the entry was saved
	Duration time.Duration
	Err      error
}

// Delivered reports whether the entry is usable on disk.
func (o Outcome) Delivered() bool { return o.Err == nil }

// Reason is the user-facing failure message, empty when delivered.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	var ee *api.ExtractionError
	if errors.As(o.Err, &ee) {
		return ee.Reason
	}
	var de *deliver.Error
	if errors.As(o.Err, &de) {
		return de.Error()
	}
	return o.Err.Error()
}

// Report holds one outcome per selected entry in ascending index order.
type Report struct {
	ID        string
	SourceURL string
	Started   time.Time
	Duration  time.Duration
	Outcomes  []Outcome
}

// Status derives the aggregate state from the outcomes.
func (r *Report) Status() Status {
	ok := r.DeliveredCount()
	switch {
	case ok == len(r.Outcomes):
		return Completed
	case ok == 0:
		return AllFailed
	default:
		return PartiallyCompleted
	}
}

// DeliveredCount returns how many entries were delivered.
func (r *Report) DeliveredCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Delivered() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that did not deliver.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Delivered() {
			out = append(out, o)
		}
	}
	return out
}

// BytesDelivered sums the bytes of delivered entries.
func (r *Report) BytesDelivered() int64 {
	var n int64
	for _, o := range r.Outcomes {
		if o.Delivered() {
			n += o.Bytes
		}
	}
	return n
}
