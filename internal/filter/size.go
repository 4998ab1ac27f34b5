package filter

import "github.com/maxvaer/picknfetch/internal/api"

// SizeFilter leaves out entries larger than a limit. The uncompressed size
// is used when known, the compressed size otherwise.
type SizeFilter struct {
	max int64
}

// NewSizeFilter creates a filter that drops entries above max bytes.
func NewSizeFilter(max int64) *SizeFilter {
	return &SizeFilter{max: max}
}

func (f *SizeFilter) Name() string { return "size" }

func (f *SizeFilter) ShouldFilter(entry *api.Entry) bool {
	return entry.DisplaySize() > f.max
}
