// Package breaker implements BalanceBoxBreaker: cutting a box into a
// piece of load approximately equal to a requested amount plus a
// remainder, honoring minimum/maximum size, cut-factor, block-domain, and
// bad-interval constraints, ranked by a composite penalty.
package breaker

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/load"
)

// Breaker cuts boxes to shed a requested load, reusing one Params across
// many BreakOff calls within a single balance call.
type Breaker struct {
	params Params
}

// New constructs a Breaker from the given constraints.
func New(p Params) *Breaker {
	return &Breaker{params: p}
}

// candidate is one proposed way to split box into (breakoff, leftover...).
type candidate struct {
	breakoff box.Box
	leftover []box.Box
	brkLoad  float64
	penalty  float64
	isPlanar bool
	axis     int
	distCtr  float64 // distance of the cut from the box's geometric center, for tie-breaking
}

// BreakOff attempts to cut ideal load (or at least something in
// [low,high]) off b. On success, low <= brkLoad <= high and breakoff plus
// leftover tile b exactly. ids mints identities for the new pieces.
func (br *Breaker) BreakOff(b box.Box, ideal, low, high float64, ids *box.IDAllocator) (breakoff []box.Box, leftover []box.Box, brkLoad float64, ok bool) {
	if ideal <= 0 {
		return nil, nil, 0, false
	}
	var best *candidate

	for axis := 0; axis < b.Dim(); axis++ {
		for _, c := range br.planarCandidates(b, axis, ideal, ids) {
			c := c
			if c.brkLoad < low || c.brkLoad > high {
				continue
			}
			if best == nil || betterCandidate(c, *best) {
				best = &c
			}
		}
	}
	for corner := uint(0); corner < uint(1)<<uint(b.Dim()); corner++ {
		c, ok := br.cubicCandidate(b, corner, ideal, ids)
		if !ok || c.brkLoad < low || c.brkLoad > high {
			continue
		}
		if best == nil || betterCandidate(c, *best) {
			best = &c
		}
	}

	if best == nil {
		return nil, nil, 0, false
	}
	return []box.Box{best.breakoff}, best.leftover, best.brkLoad, true
}

// betterCandidate reports whether a should be preferred over b: lower
// penalty wins; ties prefer planar over cubic, then lower axis index,
// then the cut nearer the box's geometric center.
func betterCandidate(a, b candidate) bool {
	if a.penalty != b.penalty {
		return a.penalty < b.penalty
	}
	if a.isPlanar != b.isPlanar {
		return a.isPlanar
	}
	if a.axis != b.axis {
		return a.axis < b.axis
	}
	return a.distCtr < b.distCtr
}

func (br *Breaker) planarCandidates(b box.Box, axis int, ideal float64, ids *box.IDAllocator) []candidate {
	p := br.params
	minSize := int32(1)
	if axis < len(p.MinSize) {
		minSize = maxI32(1, p.MinSize[axis])
	}
	var out []candidate
	center := float64(b.Lower[axis]+b.Upper[axis]) / 2.0

	for plane := b.Lower[axis] + minSize; plane <= b.Upper[axis]-minSize+1; plane++ {
		if p.isBadPlane(axis, plane) {
			continue
		}
		lowerID := ids.Next(b.ID.BlockID)
		upperID := ids.Next(b.ID.BlockID)
		lowerPiece, upperPiece, ok := box.Split(b, axis, plane, lowerID, upperID)
		if !ok {
			continue
		}
		if !br.piecesRespectConstraints(lowerPiece, upperPiece) {
			continue
		}
		lowerLoad := load.CellCount(lowerPiece)
		upperLoad := load.CellCount(upperPiece)

		// The breakoff is whichever slab lands nearer ideal.
		var breakoff, rest box.Box
		var brkLoad float64
		if math.Abs(lowerLoad-ideal) <= math.Abs(upperLoad-ideal) {
			breakoff, rest, brkLoad = lowerPiece, upperPiece, lowerLoad
		} else {
			breakoff, rest, brkLoad = upperPiece, lowerPiece, upperLoad
		}
		penalty := br.computePenalty(b, brkLoad, ideal, []box.Box{breakoff, rest})
		out = append(out, candidate{
			breakoff: breakoff,
			leftover: []box.Box{rest},
			brkLoad:  brkLoad,
			penalty:  penalty,
			isPlanar: true,
			axis:     axis,
			distCtr:  math.Abs(float64(plane) - center),
		})
	}
	return out
}

func (br *Breaker) cubicCandidate(b box.Box, corner uint, ideal float64, ids *box.IDAllocator) (candidate, bool) {
	dim := b.Dim()
	sides := make([]int32, dim)
	// Choose an isotropic cube side s so that s^dim approximates ideal,
	// then clamp to the box's own extent and the configured min size.
	s := math.Pow(ideal, 1.0/float64(dim))
	for d := 0; d < dim; d++ {
		side := int32(math.Round(s))
		if side < 1 {
			side = 1
		}
		extent := int32(b.Side(d))
		if side > extent {
			side = extent
		}
		if side < br.params.minSizeOr1(d) {
			side = br.params.minSizeOr1(d)
		}
		if side > extent {
			return candidate{}, false
		}
		sides[d] = side

		var plane int32
		if corner&(1<<uint(d)) == 0 {
			plane = b.Lower[d] + side
		} else {
			plane = b.Upper[d] - side + 1
		}
		if br.params.isBadPlane(d, plane) {
			return candidate{}, false
		}
	}

	breakoffID := ids.Next(b.ID.BlockID)
	breakoff, leftover, ok := box.CornerChop(b, corner, sides, breakoffID, func() box.ID { return ids.Next(b.ID.BlockID) })
	if !ok {
		return candidate{}, false
	}
	if !br.params.respectsMinSize(breakoff) || !br.params.respectsMaxSize(breakoff) || !br.params.respectsCutFactor(breakoff) || !br.params.withinBlockDomain(breakoff) {
		return candidate{}, false
	}
	for _, lo := range leftover {
		if !br.params.respectsMinSize(lo) || !br.params.respectsMaxSize(lo) {
			return candidate{}, false
		}
	}

	brkLoad := load.CellCount(breakoff)
	all := append([]box.Box{breakoff}, leftover...)
	penalty := br.computePenalty(b, brkLoad, ideal, all)

	center := make([]float64, dim)
	for d := 0; d < dim; d++ {
		center[d] = float64(b.Lower[d]+b.Upper[d]) / 2.0
	}
	bc := make([]float64, dim)
	for d := 0; d < dim; d++ {
		bc[d] = float64(breakoff.Lower[d]+breakoff.Upper[d]) / 2.0
	}
	dist := 0.0
	for d := 0; d < dim; d++ {
		diff := bc[d] - center[d]
		dist += diff * diff
	}

	return candidate{
		breakoff: breakoff,
		leftover: leftover,
		brkLoad:  brkLoad,
		penalty:  penalty,
		isPlanar: false,
		axis:     -1,
		distCtr:  math.Sqrt(dist),
	}, true
}

func (p Params) minSizeOr1(axis int) int32 {
	if axis < len(p.MinSize) && p.MinSize[axis] > 0 {
		return p.MinSize[axis]
	}
	return 1
}

func (br *Breaker) piecesRespectConstraints(pieces ...box.Box) bool {
	for _, pc := range pieces {
		if !br.params.respectsMinSize(pc) || !br.params.respectsMaxSize(pc) || !br.params.respectsCutFactor(pc) || !br.params.withinBlockDomain(pc) {
			return false
		}
	}
	return true
}

// computePenalty computes P = w_b*balance^2 + w_s*surface^2 + w_l*slender^2,
// biased by PrecutWeight, per spec §4.D.
func (br *Breaker) computePenalty(original box.Box, brkLoad, ideal float64, pieces []box.Box) float64 {
	p := br.params
	balance := brkLoad - ideal

	origSurface := surfaceArea(original)
	newSurface := 0.0
	for _, pc := range pieces {
		newSurface += surfaceArea(pc)
	}
	surfaceIncrease := newSurface - origSurface
	normSurface := 0.0
	if origSurface > 0 {
		normSurface = surfaceIncrease / origSurface
	}

	slenderVals := make([]float64, len(pieces))
	for i, pc := range pieces {
		a := aspect(pc)
		slenderVals[i] = math.Max(0, a-p.SlenderThreshold)
	}
	slender := floats.Sum(slenderVals)

	combined := p.WeightBalance*balance*balance +
		p.WeightSurface*normSurface*normSurface +
		p.WeightSlender*slender*slender

	if p.PrecutWeight > 1 {
		combined *= p.PrecutWeight
	}
	return combined
}

func surfaceArea(b box.Box) float64 {
	dim := b.Dim()
	sides := make([]float64, dim)
	for d := 0; d < dim; d++ {
		sides[d] = float64(b.Side(d))
	}
	total := 0.0
	for skip := 0; skip < dim; skip++ {
		face := 1.0
		for d := 0; d < dim; d++ {
			if d == skip {
				continue
			}
			face *= sides[d]
		}
		total += 2 * face
	}
	return total
}

func aspect(b box.Box) float64 {
	dim := b.Dim()
	minS, maxS := math.Inf(1), 0.0
	for d := 0; d < dim; d++ {
		s := float64(b.Side(d))
		if s < minS {
			minS = s
		}
		if s > maxS {
			maxS = s
		}
	}
	if minS <= 0 {
		return maxS
	}
	return maxS / minS
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Burst exposes the bursting primitive used elsewhere (e.g.
// constrain_max_box_sizes) so callers don't need to import box directly
// just to re-tile a cut box.
func Burst(bursty, solid box.Box, newID func() box.ID) []box.Box {
	return box.Burst(bursty, solid, newID)
}
