package output

import (
	"sort"

	"github.com/maxvaer/picknfetch/internal/api"
)

// SortedWriter buffers listing entries and replays them sorted by a field
// when WriteFooter is called. Entry indices are left untouched so they stay
// valid for selection.
type SortedWriter struct {
	inner   ListWriter
	sortBy  string
	entries []api.Entry
}

// NewSortedWriter wraps inner and buffers entries for sorted replay.
func NewSortedWriter(inner ListWriter, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteEntry(e api.Entry) error {
	w.entries = append(w.entries, e)
	return nil
}

func (w *SortedWriter) WriteFooter(total int) error {
	sort.SliceStable(w.entries, func(i, j int) bool {
		a, b := w.entries[i], w.entries[j]
		switch w.sortBy {
		case "name":
			return a.Filename < b.Filename
		case "size":
			return a.DisplaySize() < b.DisplaySize()
		case "offset":
			return a.LocalHeaderOffset < b.LocalHeaderOffset
		default:
			return a.Index < b.Index
		}
	})
	for _, e := range w.entries {
		if err := w.inner.WriteEntry(e); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(total)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
