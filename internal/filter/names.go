package filter

import "github.com/maxvaer/picknfetch/internal/api"

// NameFilter keeps only entries whose exact name is in the set.
type NameFilter struct {
	names map[string]struct{}
}

// NewNameFilter creates a filter from a list of entry names.
func NewNameFilter(names []string) *NameFilter {
	f := &NameFilter{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.names[n] = struct{}{}
	}
	return f
}

func (f *NameFilter) Name() string { return "names" }

func (f *NameFilter) ShouldFilter(entry *api.Entry) bool {
	_, ok := f.names[entry.Filename]
	return !ok
}
