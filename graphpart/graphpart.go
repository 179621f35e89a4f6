// Package graphpart implements an alternative to contiguous rank ranges
// for forming per-cycle rank groups (SPEC_FULL.md component K): given an
// adjacency graph over ranks (weighted by each rank's initial load,
// linked by block-id locality) it recursively bisects the graph into
// balanced groups, queue-driven in the same shape as a recursive
// inertial-flow graph bisector.
package graphpart

import (
	"container/list"
	"sort"
)

// Node is one rank in the adjacency graph: its balancing weight (its
// current load, typically) and the ranks it is considered "close to" for
// locality purposes (e.g. sharing a block id).
type Node struct {
	Rank      int32
	Weight    float64
	Neighbors []int32
}

// BuildOrder returns a traversal order over nodes such that
// block-adjacent ranks tend to land near each other in the sequence: a
// breadth-first walk over the neighbor graph, restarted at the
// lowest-numbered unvisited rank whenever the current component is
// exhausted (so disconnected components are still fully covered).
func BuildOrder(nodes []Node) []int32 {
	byRank := make(map[int32]Node, len(nodes))
	for _, n := range nodes {
		byRank[n.Rank] = n
	}
	starts := make([]Node, len(nodes))
	copy(starts, nodes)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Rank < starts[j].Rank })

	visited := make(map[int32]bool, len(nodes))
	order := make([]int32, 0, len(nodes))

	for _, start := range starts {
		if visited[start.Rank] {
			continue
		}
		queue := list.New()
		queue.PushBack(start.Rank)
		visited[start.Rank] = true
		for queue.Len() > 0 {
			r := queue.Remove(queue.Front()).(int32)
			order = append(order, r)
			neighbors := append([]int32(nil), byRank[r].Neighbors...)
			sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
			for _, nb := range neighbors {
				if !visited[nb] {
					visited[nb] = true
					queue.PushBack(nb)
				}
			}
		}
	}
	return order
}

// Bisect recursively halves order by cumulative weight until every group
// holds at most maxGroupSize ranks. It mirrors the queue-of-subgraphs
// control flow of a recursive graph bisector: pop the front slice from
// the queue, assign it as a finished group if it is already small enough,
// otherwise split it at its weight midpoint and push both halves back.
func Bisect(order []int32, weight map[int32]float64, maxGroupSize int) [][]int32 {
	if maxGroupSize < 1 {
		maxGroupSize = 1
	}
	queue := list.New()
	queue.PushBack(append([]int32(nil), order...))

	var groups [][]int32
	for queue.Len() > 0 {
		ids := queue.Remove(queue.Front()).([]int32)
		if len(ids) <= maxGroupSize || len(ids) <= 1 {
			groups = append(groups, ids)
			continue
		}
		left, right := splitByWeight(ids, weight)
		if len(left) == 0 || len(right) == 0 {
			groups = append(groups, ids)
			continue
		}
		queue.PushBack(left)
		queue.PushBack(right)
	}
	return groups
}

// splitByWeight divides ids at the earliest prefix whose cumulative
// weight reaches half the slice's total, keeping both halves non-empty.
func splitByWeight(ids []int32, weight map[int32]float64) (left, right []int32) {
	total := 0.0
	for _, id := range ids {
		total += weight[id]
	}
	half := total / 2
	acc := 0.0
	cut := len(ids)
	for i, id := range ids {
		acc += weight[id]
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut == 0 {
		cut = 1
	}
	if cut >= len(ids) {
		cut = len(ids) - 1
	}
	return ids[:cut], ids[cut:]
}
