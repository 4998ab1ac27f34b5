package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

// FailedEntry is a failed outcome as stored in a report file.
type FailedEntry struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// State is the persisted record of one batch. A later run can re-select
// the entries that failed in it.
type State struct {
	URL       string        `json:"url"`
	BatchID   string        `json:"batch_id"`
	Status    string        `json:"status"`
	Finished  time.Time     `json:"finished"`
	Delivered []string      `json:"delivered"`
	Failed    []FailedEntry `json:"failed"`
}

// FromReport builds the persisted form of a batch report.
func FromReport(r *fetch.Report) *State {
	s := &State{
		URL:       r.SourceURL,
		BatchID:   r.ID,
		Status:    r.Status().String(),
		Finished:  r.Started.Add(r.Duration),
		Delivered: []string{},
		Failed:    []FailedEntry{},
	}
	for _, o := range r.Outcomes {
		if o.Delivered() {
			s.Delivered = append(s.Delivered, o.Entry.Filename)
			continue
		}
		s.Failed = append(s.Failed, FailedEntry{
			Index:    o.Index,
			Filename: o.Entry.Filename,
			Reason:   o.Reason(),
		})
	}
	return s
}

// Load reads a report file written by Save.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing report file: %w", err)
	}
	return &s, nil
}

// Save writes the state to path as indented JSON.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ErrURLMismatch is returned when a report belongs to a different archive.
var ErrURLMismatch = errors.New("report was written for a different archive URL")

// FailedNames returns the names of the failed entries, checking that the
// report belongs to url. Entries are matched by name rather than index so
// a re-inspected list that reorders entries still resolves correctly.
func (s *State) FailedNames(url string) ([]string, error) {
	if s.URL != url {
		return nil, fmt.Errorf("%w: %s", ErrURLMismatch, s.URL)
	}
	names := make([]string, len(s.Failed))
	for i, f := range s.Failed {
		names[i] = f.Filename
	}
	return names, nil
}

// Missing returns failed names that are absent from entries.
func (s *State) Missing(entries []api.Entry) []string {
	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		present[e.Filename] = struct{}{}
	}
	var missing []string
	for _, f := range s.Failed {
		if _, ok := present[f.Filename]; !ok {
			missing = append(missing, f.Filename)
		}
	}
	return missing
}
