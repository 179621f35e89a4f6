// Package transit implements BoxInTransit records and the TransitSet
// ordered multiset that holds them while they move through the
// redistribution protocol.
package transit

import (
	"sort"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
)

// BoxInTransit is a box in motion. Box is the current geometry (which may
// differ from Origin once the box has been cut); Origin is the immutable
// box that existed on its original owner when the balance call began;
// Load is the scalar work contained in Box.
type BoxInTransit struct {
	Box    box.Box
	Origin box.Box
	Load   float64
}

// less implements the TransitSet ordering: larger load first, equal loads
// broken by ascending box id.
func less(a, b BoxInTransit) bool {
	if a.Load != b.Load {
		return a.Load > b.Load
	}
	return lessID(a.Box.ID, b.Box.ID)
}

func lessID(a, b box.ID) bool {
	if a.OwnerRank != b.OwnerRank {
		return a.OwnerRank < b.OwnerRank
	}
	if a.LocalID != b.LocalID {
		return a.LocalID < b.LocalID
	}
	return a.BlockID < b.BlockID
}

// TransitSet is an ordered multiset of BoxInTransit records under the
// (−load, box-id) comparator, with an O(1) running sum of loads. No
// duplicate box ids are allowed.
type TransitSet struct {
	items []BoxInTransit
	ids   map[box.ID]struct{}
	sum   float64
}

// New returns an empty TransitSet.
func New() *TransitSet {
	return &TransitSet{ids: make(map[box.ID]struct{})}
}

// Size returns the number of entries.
func (s *TransitSet) Size() int { return len(s.items) }

// Empty reports whether the set has no entries.
func (s *TransitSet) Empty() bool { return len(s.items) == 0 }

// SumLoad returns the cached sum of all entries' loads, O(1).
func (s *TransitSet) SumLoad() float64 { return s.sum }

// Clear empties the set.
func (s *TransitSet) Clear() {
	s.items = nil
	s.ids = make(map[box.ID]struct{})
	s.sum = 0
}

// Swap exchanges the contents of s and other in O(1).
func (s *TransitSet) Swap(other *TransitSet) {
	s.items, other.items = other.items, s.items
	s.ids, other.ids = other.ids, s.ids
	s.sum, other.sum = other.sum, s.sum
}

// Insert adds e, maintaining sort order and the cached sum. Returns a
// LogicBug error (and leaves the set unchanged) if e's box id already
// exists in the set.
func (s *TransitSet) Insert(e BoxInTransit) error {
	if _, dup := s.ids[e.Box.ID]; dup {
		return balerr.LogicBug("transit: duplicate box id %s on insert", e.Box.ID)
	}
	idx := sort.Search(len(s.items), func(i int) bool { return less(e, s.items[i]) })
	s.items = append(s.items, BoxInTransit{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = e
	s.ids[e.Box.ID] = struct{}{}
	s.sum += e.Load
	return nil
}

// InsertRange inserts every entry in es. If any entry collides with an
// existing or already-inserted id, InsertRange stops, leaves the
// already-inserted prefix in place (as a programming error is expected to
// be fatal to the whole call, per spec §4.C), and returns the error.
func (s *TransitSet) InsertRange(es []BoxInTransit) error {
	for _, e := range es {
		if err := s.Insert(e); err != nil {
			return err
		}
	}
	return nil
}

// EraseAt removes and returns the entry at position i (0 is the
// highest-load entry).
func (s *TransitSet) EraseAt(i int) BoxInTransit {
	e := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.ids, e.Box.ID)
	s.sum -= e.Load
	return e
}

// Erase removes e from the set (matched by box id), reporting whether it
// was present.
func (s *TransitSet) Erase(e BoxInTransit) bool {
	_, ok := s.EraseID(e.Box.ID)
	return ok
}

// EraseID removes the entry with the given box id, if present.
func (s *TransitSet) EraseID(id box.ID) (BoxInTransit, bool) {
	for i, it := range s.items {
		if it.Box.ID == id {
			return s.EraseAt(i), true
		}
	}
	return BoxInTransit{}, false
}

// Contains reports whether id is present.
func (s *TransitSet) Contains(id box.ID) bool {
	_, ok := s.ids[id]
	return ok
}

// At returns the entry at position i without removing it.
func (s *TransitSet) At(i int) BoxInTransit { return s.items[i] }

// Front returns the highest-load entry without removing it.
func (s *TransitSet) Front() (BoxInTransit, bool) {
	if len(s.items) == 0 {
		return BoxInTransit{}, false
	}
	return s.items[0], true
}

// PopFront removes and returns the highest-load entry.
func (s *TransitSet) PopFront() (BoxInTransit, bool) {
	if len(s.items) == 0 {
		return BoxInTransit{}, false
	}
	return s.EraseAt(0), true
}

// Items returns a read-only snapshot of the set's entries in order
// (highest load first). Callers must not mutate the returned slice in
// place to change load values — always Erase then Insert (spec §9: the
// comparator key includes load, so load mutation of an in-set element is
// forbidden).
func (s *TransitSet) Items() []BoxInTransit {
	out := make([]BoxInTransit, len(s.items))
	copy(out, s.items)
	return out
}

// LowerBound returns the index of the first entry whose load is not
// greater than load (i.e. the first position where a new entry of this
// load, with the smallest possible id, would be inserted).
func (s *TransitSet) LowerBound(load float64) int {
	probe := BoxInTransit{Load: load, Box: box.Box{ID: box.ID{OwnerRank: -1 << 31}}}
	return sort.Search(len(s.items), func(i int) bool { return less(probe, s.items[i]) })
}
