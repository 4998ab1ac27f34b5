package filter

import "github.com/maxvaer/picknfetch/internal/api"

// DirFilter leaves out directory entries, which carry no content.
type DirFilter struct{}

func (DirFilter) Name() string { return "directory" }

func (DirFilter) ShouldFilter(entry *api.Entry) bool { return entry.IsDir() }
