package output

import (
	"encoding/json"
	"io"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

type jsonOutcome struct {
	Index      int    `json:"index"`
	Filename   string `json:"filename"`
	Delivered  bool   `json:"delivered"`
	Path       string `json:"path,omitempty"`
	Bytes      int64  `json:"bytes,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type jsonBatch struct {
	Status    string        `json:"status"`
	Selected  int           `json:"selected"`
	Delivered int           `json:"delivered"`
	Failed    int           `json:"failed"`
	Bytes     int64         `json:"bytes"`
	Outcomes  []jsonOutcome `json:"outcomes"`
}

// JSONWriter writes the batch as a single JSON document on WriteFooter.
type JSONWriter struct {
	w        io.Writer
	closer   io.Closer
	outcomes []jsonOutcome
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteOutcome(o fetch.Outcome) error {
	j.outcomes = append(j.outcomes, jsonOutcome{
		Index:      o.Index,
		Filename:   o.Entry.Filename,
		Delivered:  o.Delivered(),
		Path:       o.Path,
		Bytes:      o.Bytes,
		Error:      o.Reason(),
		DurationMS: o.Duration.Milliseconds(),
	})
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	outcomes := j.outcomes
	if outcomes == nil {
		outcomes = []jsonOutcome{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonBatch{
		Status:    stats.Status,
		Selected:  stats.Selected,
		Delivered: stats.Delivered,
		Failed:    stats.Failed,
		Bytes:     stats.Bytes,
		Outcomes:  outcomes,
	})
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// JSONListWriter writes the listing as a JSON array of entries.
type JSONListWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []api.Entry
}

func (j *JSONListWriter) WriteHeader() error { return nil }

func (j *JSONListWriter) WriteEntry(e api.Entry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *JSONListWriter) WriteFooter(_ int) error {
	entries := j.entries
	if entries == nil {
		entries = []api.Entry{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func (j *JSONListWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
