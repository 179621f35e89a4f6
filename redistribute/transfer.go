package redistribute

import (
	"math"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/breaker"
	"github.com/notargets/treeload/load"
	"github.com/notargets/treeload/transit"
)

// Adjust moves load between main and hold so that main's sum of loads
// lands in [low, high], trying to land as close to ideal as possible.
// Three strategies are attempted in order, per spec §4.E: move whole
// boxes, swap pairs, break a donor box. Adjust returns a FlagInfeasible
// balerr.Error if no strategy succeeds; whole-box moves already made by
// the first strategy are not undone in that case.
func Adjust(main, hold *transit.TransitSet, ideal, low, high float64, br *breaker.Breaker, ids *box.IDAllocator) error {
	if inBand(main.SumLoad(), low, high) {
		return nil
	}

	moveWholeBoxes(main, hold, ideal, low, high)
	if inBand(main.SumLoad(), low, high) {
		return nil
	}

	swapPairs(main, hold, ideal, low, high)
	if inBand(main.SumLoad(), low, high) {
		return nil
	}

	if err := breakDonor(main, hold, ideal, low, high, br, ids); err != nil {
		return err
	}
	if !inBand(main.SumLoad(), low, high) {
		return balerr.Infeasible("redistribute: no strategy brought main (sum=%v) into [%v,%v]", main.SumLoad(), low, high)
	}
	return nil
}

func inBand(v, low, high float64) bool { return v >= low && v <= high }

// moveWholeBoxes greedily relocates single boxes between main and hold,
// each time picking the move that lands main's sum nearest ideal without
// crossing past the opposite band edge, until the band is reached or no
// further qualifying move exists.
func moveWholeBoxes(main, hold *transit.TransitSet, ideal, low, high float64) {
	for {
		cur := main.SumLoad()
		if inBand(cur, low, high) {
			return
		}
		removing := cur > high
		var src, dst *transit.TransitSet
		if removing {
			src, dst = main, hold
		} else {
			src, dst = hold, main
		}

		items := src.Items()
		bestIdx := -1
		bestDist := math.Inf(1)
		for i, it := range items {
			var resulting float64
			if removing {
				resulting = cur - it.Load
			} else {
				resulting = cur + it.Load
			}
			if removing && resulting < low {
				continue
			}
			if !removing && resulting > high {
				continue
			}
			if dist := math.Abs(resulting - ideal); dist < bestDist {
				bestDist = dist
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			return
		}
		chosen := items[bestIdx]
		src.Erase(chosen)
		dst.Insert(chosen)
	}
}

// swapPairs looks for one box in main and one in hold whose exchange
// lands main's sum inside the band, nearest to ideal.
func swapPairs(main, hold *transit.TransitSet, ideal, low, high float64) bool {
	cur := main.SumLoad()
	if inBand(cur, low, high) {
		return true
	}
	mainItems := main.Items()
	holdItems := hold.Items()

	bestDist := math.Inf(1)
	var bestOut, bestIn transit.BoxInTransit
	found := false
	for _, out := range mainItems {
		for _, in := range holdItems {
			resulting := cur - out.Load + in.Load
			if !inBand(resulting, low, high) {
				continue
			}
			if dist := math.Abs(resulting - ideal); dist < bestDist {
				bestDist = dist
				bestOut, bestIn = out, in
				found = true
			}
		}
	}
	if !found {
		return false
	}
	main.Erase(bestOut)
	hold.Insert(bestOut)
	hold.Erase(bestIn)
	main.Insert(bestIn)
	return true
}

// breakDonor selects the highest-load candidate box on the side that must
// shed or gain load and asks br to cut a fragment of approximately the
// needed size, moving the fragment and returning the remainder to the
// donor's original set.
func breakDonor(main, hold *transit.TransitSet, ideal, low, high float64, br *breaker.Breaker, ids *box.IDAllocator) error {
	cur := main.SumLoad()
	if inBand(cur, low, high) {
		return nil
	}
	removing := cur > high
	var src, dst *transit.TransitSet
	if removing {
		src, dst = main, hold
	} else {
		src, dst = hold, main
	}

	donor, ok := src.Front()
	if !ok {
		return balerr.Infeasible("redistribute: no donor box available to break")
	}

	var fragLow, fragHigh, fragIdeal float64
	if removing {
		fragLow = math.Max(0, cur-high)
		fragHigh = cur - low
		fragIdeal = cur - ideal
	} else {
		fragLow = low - cur
		fragHigh = high - cur
		fragIdeal = ideal - cur
	}
	fragIdeal = clamp(fragIdeal, fragLow, fragHigh)
	if fragHigh <= 0 {
		return balerr.Infeasible("redistribute: no feasible fragment band for donor %s", donor.Box.ID)
	}

	breakoff, leftover, _, ok := br.BreakOff(donor.Box, fragIdeal, fragLow, fragHigh, ids)
	if !ok {
		return balerr.Infeasible("redistribute: breaker could not satisfy band [%v,%v] on donor %s", fragLow, fragHigh, donor.Box.ID)
	}

	src.Erase(donor)
	for _, piece := range breakoff {
		frag := transit.BoxInTransit{Box: piece, Origin: donor.Origin, Load: load.Restricted(piece, donor.Origin)}
		if err := dst.Insert(frag); err != nil {
			return err
		}
	}
	for _, piece := range leftover {
		rem := transit.BoxInTransit{Box: piece, Origin: donor.Origin, Load: load.Restricted(piece, donor.Origin)}
		if err := src.Insert(rem); err != nil {
			return err
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
