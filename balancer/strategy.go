package balancer

import (
	"sort"

	"github.com/notargets/treeload/graphpart"
)

// RankGroupStrategy decides, for a set of ranks carrying known initial
// loads, the order in which they are assigned positions in the
// conceptual balancing tree (spec §4.G's "rank group" concept). The
// default keeps ranks in their natural contiguous order; GraphStrategy
// reorders them via graphpart.Bisect so that block-adjacent ranks tend to
// land in the same branch of the tree.
type RankGroupStrategy interface {
	// Order returns a permutation of the ranks present in nodes: position
	// i in the returned slice is the rank that should occupy tree
	// position i.
	Order(nodes []graphpart.Node, maxGroupSize int) []int32
}

// ContiguousStrategy is the default: ranks keep their natural ascending
// order, exactly as spec.md §4.G describes contiguous rank ranges.
type ContiguousStrategy struct{}

func (ContiguousStrategy) Order(nodes []graphpart.Node, maxGroupSize int) []int32 {
	ranks := make([]int32, len(nodes))
	for i, n := range nodes {
		ranks[i] = n.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}

// GraphStrategy assigns tree positions by flattening the groups
// graphpart.Bisect produces over a locality-aware BFS order, so the tree
// built over these positions keeps adjacent ranks close together.
type GraphStrategy struct{}

func (GraphStrategy) Order(nodes []graphpart.Node, maxGroupSize int) []int32 {
	order := graphpart.BuildOrder(nodes)
	weight := make(map[int32]float64, len(nodes))
	for _, n := range nodes {
		weight[n.Rank] = n.Weight
	}
	groups := graphpart.Bisect(order, weight, maxGroupSize)
	flat := make([]int32, 0, len(order))
	for _, g := range groups {
		flat = append(flat, g...)
	}
	return flat
}
