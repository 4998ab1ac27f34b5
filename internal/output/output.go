package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

// Stats holds aggregate batch statistics.
type Stats struct {
	Selected  int
	Delivered int
	Failed    int
	Bytes     int64
	Duration  time.Duration
	Status    string
}

// StatsFromReport summarises a finished batch.
func StatsFromReport(r *fetch.Report) Stats {
	return Stats{
		Selected:  len(r.Outcomes),
		Delivered: r.DeliveredCount(),
		Failed:    len(r.Outcomes) - r.DeliveredCount(),
		Bytes:     r.BytesDelivered(),
		Duration:  r.Duration,
		Status:    r.Status().String(),
	}
}

// Writer is implemented by each outcome format.
type Writer interface {
	WriteHeader() error
	WriteOutcome(o fetch.Outcome) error
	WriteFooter(stats Stats) error
	Close() error
}

// ListWriter is implemented by each entry listing format.
type ListWriter interface {
	WriteHeader() error
	WriteEntry(e api.Entry) error
	WriteFooter(total int) error
	Close() error
}

// NewWriter returns the outcome writer for format. An empty outputFile
// writes to stdout.
func NewWriter(format, outputFile string, noColor, quiet bool) (Writer, error) {
	w, closer, err := open(outputFile)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return &JSONWriter{w: w, closer: closer}, nil
	case "csv":
		return newCSVWriter(w, closer), nil
	case "text", "":
		return newTextWriter(w, closer, noColor || outputFile != "", quiet), nil
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// NewListWriter returns the listing writer for format.
func NewListWriter(format, outputFile string, noColor bool) (ListWriter, error) {
	w, closer, err := open(outputFile)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return &JSONListWriter{w: w, closer: closer}, nil
	case "csv":
		return newCSVListWriter(w, closer), nil
	case "text", "":
		return newTextListWriter(w, closer, noColor || outputFile != ""), nil
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func open(outputFile string) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
