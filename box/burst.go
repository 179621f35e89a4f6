package box

// Burst expresses the set difference bursty \ solid (solid must be
// contained in bursty) as the minimal rectilinear cover of up to 2*Dim
// axis-aligned boxes, obtained by slicing along each face of solid in a
// fixed canonical order (ascending axis, low slab before high slab). The
// pieces are pairwise disjoint and, together with solid, exactly tile
// bursty.
//
// newID is called once per produced piece to mint its identity; pieces do
// not inherit solid's or bursty's ID since they are new geometric objects.
func Burst(bursty, solid Box, newID func() ID) []Box {
	if !bursty.Contains(solid) {
		panic("box: Burst requires solid to be contained in bursty")
	}
	dim := bursty.Dim()
	remaining := bursty
	var pieces []Box

	for axis := 0; axis < dim; axis++ {
		if remaining.Lower[axis] < solid.Lower[axis] {
			piece := remaining
			piece.Upper = append([]int32(nil), remaining.Upper...)
			piece.Upper[axis] = solid.Lower[axis] - 1
			piece.Lower = append([]int32(nil), remaining.Lower...)
			piece.ID = newID()
			pieces = append(pieces, piece)

			nextLower := append([]int32(nil), remaining.Lower...)
			nextLower[axis] = solid.Lower[axis]
			remaining = Box{ID: remaining.ID, Lower: nextLower, Upper: append([]int32(nil), remaining.Upper...)}
		}
		if remaining.Upper[axis] > solid.Upper[axis] {
			piece := remaining
			piece.Lower = append([]int32(nil), remaining.Lower...)
			piece.Lower[axis] = solid.Upper[axis] + 1
			piece.Upper = append([]int32(nil), remaining.Upper...)
			piece.ID = newID()
			pieces = append(pieces, piece)

			nextUpper := append([]int32(nil), remaining.Upper...)
			nextUpper[axis] = solid.Upper[axis]
			remaining = Box{ID: remaining.ID, Lower: append([]int32(nil), remaining.Lower...), Upper: nextUpper}
		}
	}
	return pieces
}

// Split cuts b into two pieces along axis at cutLower: the lower piece
// spans [b.Lower[axis], cutLower-1] and the upper piece spans
// [cutLower, b.Upper[axis]]. cutLower must lie strictly inside
// (b.Lower[axis], b.Upper[axis]]; both pieces are non-empty.
func Split(b Box, axis int, cutLower int32, newLowerID, newUpperID ID) (lower, upper Box, ok bool) {
	if cutLower <= b.Lower[axis] || cutLower > b.Upper[axis] {
		return Box{}, Box{}, false
	}
	lo := New(newLowerID, b.Lower, b.Upper)
	lo.Upper[axis] = cutLower - 1

	hi := New(newUpperID, b.Lower, b.Upper)
	hi.Lower[axis] = cutLower

	return lo, hi, true
}

// CornerChop carves an axis-aligned sub-box of the given side lengths out
// of b, anchored at the corner selected by corner (a bitmask: bit d set
// means anchor at the high side along axis d, clear means anchor at the
// low side). It returns the carved piece (breakoff) and the leftover
// pieces produced by bursting b against the breakoff.
func CornerChop(b Box, corner uint, sides []int32, breakoffID ID, leftoverIDs func() ID) (breakoff Box, leftover []Box, ok bool) {
	dim := b.Dim()
	lower := make([]int32, dim)
	upper := make([]int32, dim)
	for d := 0; d < dim; d++ {
		extent := b.Side(d)
		s := sides[d]
		if s <= 0 || s > extent {
			return Box{}, nil, false
		}
		if corner&(1<<uint(d)) == 0 {
			lower[d] = b.Lower[d]
			upper[d] = b.Lower[d] + s - 1
		} else {
			upper[d] = b.Upper[d]
			lower[d] = b.Upper[d] - s + 1
		}
	}
	breakoff = New(breakoffID, lower, upper)
	leftover = Burst(b, breakoff, leftoverIDs)
	return breakoff, leftover, true
}
