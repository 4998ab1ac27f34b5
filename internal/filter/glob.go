package filter

import (
	"path"
	"strings"

	"github.com/maxvaer/picknfetch/internal/api"
)

// GlobFilter matches entry names against shell patterns. A pattern without
// a slash is also tried against the last path element, so "*.txt" matches
// "docs/readme.txt".
type GlobFilter struct {
	patterns []string
	include  bool
}

// NewMatchFilter keeps only entries matching at least one pattern.
func NewMatchFilter(patterns []string) *GlobFilter {
	return &GlobFilter{patterns: patterns, include: true}
}

// NewExcludeFilter drops entries matching any pattern.
func NewExcludeFilter(patterns []string) *GlobFilter {
	return &GlobFilter{patterns: patterns}
}

func (f *GlobFilter) Name() string {
	if f.include {
		return "match"
	}
	return "exclude"
}

func (f *GlobFilter) ShouldFilter(entry *api.Entry) bool {
	matched := f.matches(strings.TrimSuffix(entry.Filename, "/"))
	if f.include {
		return !matched
	}
	return matched
}

func (f *GlobFilter) matches(name string) bool {
	base := path.Base(name)
	for _, p := range f.patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
