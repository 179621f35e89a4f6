package breaker

import "github.com/notargets/treeload/box"

// Interval is a forbidden cut-plane position along one axis: a plane at
// any coordinate inside [Lower, Upper] must not be used, because it would
// cut through a geometric feature (e.g. an embedded boundary) that the
// anchor box is not allowed to split.
type Interval struct {
	Lower, Upper int32
}

func (iv Interval) contains(plane int32) bool { return plane >= iv.Lower && plane <= iv.Upper }

// Params mirrors SAMRAI's PartitioningParams: the constraints a box must
// respect after any cut, threaded explicitly through the breaker instead
// of living as object fields (spec §9's "per-call context" note).
type Params struct {
	Dim int

	// MinSize[d]/MaxSize[d] are the minimum/maximum permissible side
	// length along axis d for any piece produced by a cut.
	MinSize []int32
	MaxSize []int32

	// CutFactor[d]: every piece's side length along axis d must be a
	// multiple of CutFactor[d] (0 or 1 means unconstrained).
	CutFactor []int32

	// BadIntervals[d] lists forbidden cut-plane positions along axis d.
	BadIntervals map[int][]Interval

	// BlockDomain, if set, is the full index-space extent of the block
	// the box belongs to; pieces must stay within it.
	BlockDomain *box.Box

	// SlenderThreshold is the aspect ratio above which a piece is
	// penalized as "slender".
	SlenderThreshold float64

	// MinLoadFractionPerBox is an advisory floor only (spec Open
	// Question (a)): the breaker never rejects a candidate solely for
	// falling below it.
	MinLoadFractionPerBox float64

	// Penalty weights, see computePenalty.
	WeightBalance float64
	WeightSurface float64
	WeightSlender float64

	// PrecutWeight (>= 1) multiplies the penalty of every candidate
	// alike. BreakOff has no uncut alternative to weigh against, so the
	// weight does not change which candidate is chosen.
	PrecutWeight float64
}

// DefaultParams returns sane defaults for dimension dim: no size bounds,
// no cut factor, no bad intervals, standard penalty weights.
func DefaultParams(dim int) Params {
	minSize := make([]int32, dim)
	maxSize := make([]int32, dim)
	cutFactor := make([]int32, dim)
	for d := 0; d < dim; d++ {
		minSize[d] = 1
		maxSize[d] = 1 << 30
		cutFactor[d] = 1
	}
	return Params{
		Dim:              dim,
		MinSize:          minSize,
		MaxSize:          maxSize,
		CutFactor:        cutFactor,
		BadIntervals:     map[int][]Interval{},
		SlenderThreshold: 4.0,
		WeightBalance:    1.0,
		WeightSurface:    1.0,
		WeightSlender:    1.0,
		PrecutWeight:     1.0,
	}
}

func (p Params) isBadPlane(axis int, plane int32) bool {
	for _, iv := range p.BadIntervals[axis] {
		if iv.contains(plane) {
			return true
		}
	}
	return false
}

func (p Params) withinBlockDomain(b box.Box) bool {
	if p.BlockDomain == nil {
		return true
	}
	return p.BlockDomain.Contains(b)
}

func (p Params) respectsMaxSize(b box.Box) bool {
	for d := 0; d < b.Dim(); d++ {
		if int32(b.Side(d)) > p.MaxSize[d] {
			return false
		}
	}
	return true
}

func (p Params) respectsMinSize(b box.Box) bool {
	for d := 0; d < b.Dim(); d++ {
		if int32(b.Side(d)) < p.MinSize[d] {
			return false
		}
	}
	return true
}

func (p Params) respectsCutFactor(b box.Box) bool {
	for d := 0; d < b.Dim(); d++ {
		cf := p.CutFactor[d]
		if cf > 1 && int32(b.Side(d))%cf != 0 {
			return false
		}
	}
	return true
}
