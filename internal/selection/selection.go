package selection

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange is returned when an index is not a position in the
// current entry list.
var ErrOutOfRange = errors.New("index out of range")

// Set is the set of selected entry indices, bounded by the length of the
// entry list it was created (or last reset) for.
type Set struct {
	n       int
	members map[int]struct{}
}

// New returns an empty selection for a list of n entries.
func New(n int) *Set {
	return &Set{n: n, members: make(map[int]struct{})}
}

// Reset clears the selection and rebinds it to a list of n entries.
// Call it whenever the entry list is replaced.
func (s *Set) Reset(n int) {
	s.n = n
	s.members = make(map[int]struct{})
}

// Bound returns the length of the list the selection refers to.
func (s *Set) Bound() int { return s.n }

// Toggle adds (included=true) or removes index i. Repeating the same call
// is a no-op.
func (s *Set) Toggle(i int, included bool) error {
	if i < 0 || i >= s.n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, s.n)
	}
	if included {
		s.members[i] = struct{}{}
	} else {
		delete(s.members, i)
	}
	return nil
}

// Contains reports whether i is selected.
func (s *Set) Contains(i int) bool {
	_, ok := s.members[i]
	return ok
}

// Len returns the number of selected indices.
func (s *Set) Len() int { return len(s.members) }

// Indices returns the selected indices in ascending order. The slice is a
// copy.
func (s *Set) Indices() []int {
	out := make([]int, 0, len(s.members))
	for i := range s.members {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
