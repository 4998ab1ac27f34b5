package filter

import "github.com/maxvaer/picknfetch/internal/api"

// Filter decides whether an entry should be left out of a selection.
type Filter interface {
	Name() string
	ShouldFilter(entry *api.Entry) bool
}

// Chain applies multiple filters in order, short-circuiting on the first match.
type Chain struct {
	filters []Filter
}

// NewChain returns an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int { return len(c.filters) }

// Apply runs every filter against the entry. Returns true and the filter
// name if the entry should be left out.
func (c *Chain) Apply(entry *api.Entry) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(entry) {
			return true, f.Name()
		}
	}
	return false, ""
}

// Select returns the indices of entries that pass every filter, in list
// order.
func (c *Chain) Select(entries []api.Entry) []int {
	var out []int
	for i := range entries {
		if filtered, _ := c.Apply(&entries[i]); !filtered {
			out = append(out, entries[i].Index)
		}
	}
	return out
}
