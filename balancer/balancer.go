// Package balancer implements the cycle controller (spec §4.G): the
// top-level Balance entry point that decides how many redistribution
// cycles to run, drives the tree redistributor across every rank,
// reconstructs the unbalanced-to-balanced mapping, enforces max-box-size
// constraints, and reports statistics.
package balancer

import (
	"fmt"
	"sync"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/breaker"
	"github.com/notargets/treeload/comm"
	"github.com/notargets/treeload/config"
	"github.com/notargets/treeload/graphpart"
	"github.com/notargets/treeload/load"
	"github.com/notargets/treeload/mapping"
	"github.com/notargets/treeload/ranktree"
	"github.com/notargets/treeload/redistribute"
	"github.com/notargets/treeload/stats"
	"github.com/notargets/treeload/transit"
)

// RankInput is one rank's local boxes at the start of a balance call.
type RankInput struct {
	Rank  int32
	Boxes []box.Box
}

// Result is everything a balance call produces: the final boxes held by
// each communication position, the reconstructed mapping connector, and
// (if requested) diagnostic text.
type Result struct {
	// Boxes is keyed by tree/communication position, not necessarily the
	// original input rank — see PositionToRank.
	Boxes map[int32][]box.Box

	// PositionToRank records which original rank's boxes seeded each
	// position, for strategies (e.g. GraphStrategy) that reorder ranks
	// before assigning tree positions.
	PositionToRank []int32

	Connector  *mapping.Connector
	Report     stats.Report
	MapSummary string
}

// Balance runs a full balance call over inputs: cycle-count decision,
// one or more tree-redistribution cycles, post-balance max-size
// constraint enforcement, and mapping reconstruction. params supplies the
// breaker's size/cut-factor/bad-interval constraints; strategy controls
// how ranks are assigned tree positions (nil selects ContiguousStrategy).
func Balance(opts config.Options, inputs []RankInput, params breaker.Params, dim int, strategy RankGroupStrategy) (*Result, error) {
	numRanks := int32(len(inputs))
	if numRanks == 0 {
		return nil, balerr.Fatal("balancer: Balance called with no ranks")
	}
	if err := opts.Validate(); err != nil {
		return nil, balerr.Fatal("balancer: %v", err)
	}
	if strategy == nil {
		if opts.RankGroupStrategy == config.RankGroupGraph {
			strategy = GraphStrategy{}
		} else {
			strategy = ContiguousStrategy{}
		}
	}

	byRank := make(map[int32]RankInput, numRanks)
	var totalLoad, maxInitial float64
	for _, in := range inputs {
		byRank[in.Rank] = in
		w := 0.0
		for _, b := range in.Boxes {
			w += load.CellCount(b)
		}
		totalLoad += w
		if w > maxInitial {
			maxInitial = w
		}
	}
	avg := totalLoad / float64(numRanks)
	upper := avg * (1 + opts.FlexibleLoadTolerance)

	nodes := buildGraphNodes(inputs)
	positionToRank := strategy.Order(nodes, bisectGroupSize(numRanks))
	if len(positionToRank) != int(numRanks) {
		return nil, balerr.Fatal("balancer: rank group strategy returned %d positions for %d ranks", len(positionToRank), numRanks)
	}

	mainBins := make([]*transit.TransitSet, numRanks)
	locals := make([]*redistribute.SubtreeData, numRanks)
	ids := make([]*box.IDAllocator, numRanks)
	for pos, rank := range positionToRank {
		in := byRank[rank]
		tset := transit.New()
		for _, b := range in.Boxes {
			if err := tset.Insert(transit.BoxInTransit{Box: b, Origin: b, Load: load.CellCount(b)}); err != nil {
				return nil, err
			}
		}
		mainBins[pos] = tset
		locals[pos] = redistribute.NewSubtreeData(rank, avg, upper)
		locals[pos].LoadCurrent = tset.SumLoad()
		ids[pos] = box.NewIDAllocator(rank, maxLocalID(in.Boxes))
	}

	cycles := decideCycles(numRanks, maxInitial, avg, opts)
	net := comm.NewNetwork(64)
	br := breaker.New(params)
	var tree ranktree.Strategy = ranktree.BinaryTree{}

	for cy := 0; cy < cycles; cy++ {
		for pos, rank := range positionToRank {
			locals[pos] = redistribute.NewSubtreeData(rank, avg, upper)
			locals[pos].LoadCurrent = mainBins[pos].SumLoad()
		}
		if err := runOneCycle(net, tree, numRanks, dim, br, ids, locals, mainBins, opts.MaxCycleSpreadRatio); err != nil {
			return nil, err
		}
	}

	for pos := int32(0); pos < numRanks; pos++ {
		constrained := transit.New()
		for _, item := range mainBins[pos].Items() {
			for _, piece := range constrainMaxBoxSize(item.Box, params, ids[pos]) {
				if err := constrained.Insert(transit.BoxInTransit{Box: piece, Origin: item.Origin, Load: load.Restricted(piece, item.Origin)}); err != nil {
					return nil, err
				}
			}
		}
		mainBins[pos] = constrained
		locals[pos].LoadCurrent = constrained.SumLoad()
	}

	connectors := make([]*mapping.Connector, numRanks)
	mapErrs := make([]error, numRanks)
	var wg sync.WaitGroup
	wg.Add(int(numRanks))
	for pos := int32(0); pos < numRanks; pos++ {
		pos := pos
		go func() {
			defer wg.Done()
			connectors[pos], mapErrs[pos] = mapping.Reconstruct(net.Stage(pos), pos, numRanks, dim, mainBins[pos].Items())
		}()
	}
	wg.Wait()
	for _, err := range mapErrs {
		if err != nil {
			return nil, err
		}
	}
	merged := mergeConnectors(connectors)

	perRankLoad := make(map[int32]float64, numRanks)
	outBoxes := make(map[int32][]box.Box, numRanks)
	for pos := int32(0); pos < numRanks; pos++ {
		perRankLoad[pos] = mainBins[pos].SumLoad()
		items := mainBins[pos].Items()
		bs := make([]box.Box, len(items))
		for i, it := range items {
			bs[i] = it.Box
		}
		outBoxes[pos] = bs
	}
	report := stats.Summarize(perRankLoad)

	result := &Result{
		Boxes:          outBoxes,
		PositionToRank: positionToRank,
		Connector:      merged,
		Report:         report,
	}
	if opts.SummarizeMap {
		result.MapSummary = stats.SummarizeMap(merged)
	}
	return result, nil
}

func runOneCycle(net *comm.Network, tree ranktree.Strategy, numRanks int32, dim int, br *breaker.Breaker, ids []*box.IDAllocator, locals []*redistribute.SubtreeData, mainBins []*transit.TransitSet, maxSpreadRatio int) error {
	var wg sync.WaitGroup
	errs := make([]error, numRanks)
	wg.Add(int(numRanks))
	for pos := int32(0); pos < numRanks; pos++ {
		pos := pos
		go func() {
			defer wg.Done()
			c := redistribute.NewCycle(tree, dim, br, ids[pos])
			c.MaxSpreadRatio = maxSpreadRatio
			errs[pos] = c.Run(net.Stage(pos), 0, numRanks, pos, locals[pos], mainBins[pos])
		}()
	}
	wg.Wait()
	for pos, err := range errs {
		if err != nil {
			return fmt.Errorf("balancer: cycle failed at position %d: %w", pos, err)
		}
	}
	return nil
}

// decideCycles implements spec §4.G: multiple cycles if the rank count
// meets MinNProcForMulticycle, or if the initial load spread exceeds
// max_cycle_spread_ratio; otherwise one. This module approximates the
// geometrically-growing rank-group schedule as that many repeated passes
// over the full rank range (see DESIGN.md) rather than literally doubling
// sub-group sizes each pass.
func decideCycles(numRanks int32, maxInitial, avg float64, opts config.Options) int {
	multi := numRanks >= config.MinNProcForMulticycle
	if !multi && avg > 0 && maxInitial/avg > float64(opts.MaxCycleSpreadRatio) {
		multi = true
	}
	if !multi {
		return 1
	}
	n, size := 1, int32(2)
	for size < numRanks {
		size *= 2
		n++
	}
	return n
}

// constrainMaxBoxSize recursively bursts b against the largest box
// respecting params.MaxSize (and, where configured, params.CutFactor)
// anchored at b's lower corner, until every produced piece fits.
func constrainMaxBoxSize(b box.Box, params breaker.Params, ids *box.IDAllocator) []box.Box {
	fits := true
	for d := 0; d < b.Dim(); d++ {
		if d < len(params.MaxSize) && int32(b.Side(d)) > params.MaxSize[d] {
			fits = false
			break
		}
	}
	if fits {
		return []box.Box{b}
	}

	solidUpper := make([]int32, b.Dim())
	for d := 0; d < b.Dim(); d++ {
		side := int32(1 << 30)
		if d < len(params.MaxSize) && params.MaxSize[d] > 0 {
			side = params.MaxSize[d]
		}
		if d < len(params.CutFactor) && params.CutFactor[d] > 1 {
			side -= side % params.CutFactor[d]
		}
		if side < 1 {
			side = 1
		}
		if int32(b.Side(d)) < side {
			side = int32(b.Side(d))
		}
		solidUpper[d] = b.Lower[d] + side - 1
	}
	solid := box.New(b.ID, b.Lower, solidUpper)
	leftover := box.Burst(b, solid, func() box.ID { return ids.Next(b.ID.BlockID) })

	out := []box.Box{solid}
	for _, piece := range leftover {
		out = append(out, constrainMaxBoxSize(piece, params, ids)...)
	}
	return out
}

func buildGraphNodes(inputs []RankInput) []graphpart.Node {
	weight := make(map[int32]float64, len(inputs))
	byBlock := make(map[int32][]int32)
	for _, in := range inputs {
		w := 0.0
		seen := make(map[int32]bool)
		for _, b := range in.Boxes {
			w += load.CellCount(b)
			if !seen[b.ID.BlockID] {
				seen[b.ID.BlockID] = true
				byBlock[b.ID.BlockID] = append(byBlock[b.ID.BlockID], in.Rank)
			}
		}
		weight[in.Rank] = w
	}
	neighborSet := make(map[int32]map[int32]bool)
	for _, ranks := range byBlock {
		for _, a := range ranks {
			for _, b := range ranks {
				if a == b {
					continue
				}
				if neighborSet[a] == nil {
					neighborSet[a] = make(map[int32]bool)
				}
				neighborSet[a][b] = true
			}
		}
	}
	nodes := make([]graphpart.Node, len(inputs))
	for i, in := range inputs {
		var nb []int32
		for r := range neighborSet[in.Rank] {
			nb = append(nb, r)
		}
		nodes[i] = graphpart.Node{Rank: in.Rank, Weight: weight[in.Rank], Neighbors: nb}
	}
	return nodes
}

// bisectGroupSize picks graphpart.Bisect's max group size so
// GraphStrategy actually regroups ranks instead of degenerating to a
// single pass-through group: roughly sqrt(numRanks), floored at 1.
func bisectGroupSize(numRanks int32) int {
	size := 1
	for int32(size*size) < numRanks {
		size++
	}
	if size < 1 {
		size = 1
	}
	return size
}

func maxLocalID(boxes []box.Box) int64 {
	max := int64(-1)
	for _, b := range boxes {
		if b.ID.LocalID > max {
			max = b.ID.LocalID
		}
	}
	return max
}

func mergeConnectors(conns []*mapping.Connector) *mapping.Connector {
	merged := mapping.NewConnector()
	for _, c := range conns {
		if c == nil {
			continue
		}
		for _, id := range c.OriginIDs() {
			for _, p := range c.Lookup(id) {
				merged.AddPlacement(id, p.Rank, p.Current)
			}
		}
	}
	return merged
}
