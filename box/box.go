// Package box implements the axis-aligned integer box arithmetic that the
// balancer treats as an external collaborator in the original design
// (spec's "Box library"): construction, intersection, size, owner rank,
// local id, and block id. Boxes are immutable once constructed; cutting a
// box produces new boxes rather than mutating the original.
package box

import (
	"fmt"
)

// ID is a globally unique box identifier: the rank that owned the box at
// the moment it was created, plus a per-rank monotonic local id. BlockID
// distinguishes boxes belonging to different blocks of a multi-block mesh.
type ID struct {
	OwnerRank int32
	LocalID   int64
	BlockID   int32
}

func (id ID) String() string {
	return fmt.Sprintf("(%d,%d,%d)", id.OwnerRank, id.LocalID, id.BlockID)
}

// Box is an axis-aligned rectangle of cells in d-dimensional integer index
// space. Lower and Upper are inclusive bounds, one entry per dimension.
type Box struct {
	ID    ID
	Lower []int32
	Upper []int32
}

// New constructs a Box, copying lower/upper so the caller's slices can be
// reused or mutated afterward.
func New(id ID, lower, upper []int32) Box {
	if len(lower) != len(upper) {
		panic("box: lower and upper dimension mismatch")
	}
	l := append([]int32(nil), lower...)
	u := append([]int32(nil), upper...)
	return Box{ID: id, Lower: l, Upper: u}
}

// Dim returns the number of dimensions of b.
func (b Box) Dim() int { return len(b.Lower) }

// Empty reports whether b contains no cells along any axis.
func (b Box) Empty() bool {
	for d := range b.Lower {
		if b.Upper[d] < b.Lower[d] {
			return true
		}
	}
	return false
}

// NumCells returns the number of unit cells covered by b.
func (b Box) NumCells() int64 {
	if b.Empty() {
		return 0
	}
	n := int64(1)
	for d := range b.Lower {
		n *= int64(b.Upper[d]-b.Lower[d]) + 1
	}
	return n
}

// Side returns the extent (number of cells) of b along axis d.
func (b Box) Side(d int) int32 {
	if b.Upper[d] < b.Lower[d] {
		return 0
	}
	return b.Upper[d] - b.Lower[d] + 1
}

// Equals reports whether a and b cover the same region (ignoring ID, which
// identifies provenance, not geometry).
func (b Box) Equals(o Box) bool {
	if b.Dim() != o.Dim() {
		return false
	}
	for d := range b.Lower {
		if b.Lower[d] != o.Lower[d] || b.Upper[d] != o.Upper[d] {
			return false
		}
	}
	return true
}

// SameID reports whether a and b carry the same identity.
func (b Box) SameID(o Box) bool { return b.ID == o.ID }

// Intersect returns the geometric intersection of a and b, and whether it
// is non-empty. The returned box carries a's ID and BlockID does not
// participate in the geometric test; callers intersecting across blocks
// should check BlockID first.
func (b Box) Intersect(o Box) (Box, bool) {
	if b.Dim() != o.Dim() {
		panic("box: dimension mismatch in Intersect")
	}
	dim := b.Dim()
	lower := make([]int32, dim)
	upper := make([]int32, dim)
	for d := 0; d < dim; d++ {
		lower[d] = max32(b.Lower[d], o.Lower[d])
		upper[d] = min32(b.Upper[d], o.Upper[d])
		if upper[d] < lower[d] {
			return Box{}, false
		}
	}
	return Box{ID: b.ID, Lower: lower, Upper: upper}, true
}

// Contains reports whether o is entirely inside b.
func (b Box) Contains(o Box) bool {
	for d := range b.Lower {
		if o.Lower[d] < b.Lower[d] || o.Upper[d] > b.Upper[d] {
			return false
		}
	}
	return true
}

// WithID returns a copy of b carrying a new ID, same geometry.
func (b Box) WithID(id ID) Box {
	return Box{ID: id, Lower: append([]int32(nil), b.Lower...), Upper: append([]int32(nil), b.Upper...)}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
