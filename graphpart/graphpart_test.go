package graphpart

import "testing"

func TestBuildOrderVisitsEveryRankOnce(t *testing.T) {
	nodes := []Node{
		{Rank: 0, Neighbors: []int32{1}},
		{Rank: 1, Neighbors: []int32{0, 2}},
		{Rank: 2, Neighbors: []int32{1}},
		{Rank: 5, Neighbors: nil}, // disconnected
	}
	order := BuildOrder(nodes)
	if len(order) != 4 {
		t.Fatalf("len(order) = %d, want 4", len(order))
	}
	seen := map[int32]bool{}
	for _, r := range order {
		if seen[r] {
			t.Fatalf("rank %d visited twice in %v", r, order)
		}
		seen[r] = true
	}
	for _, want := range []int32{0, 1, 2, 5} {
		if !seen[want] {
			t.Fatalf("rank %d missing from order %v", want, order)
		}
	}
}

func TestBuildOrderKeepsNeighborsAdjacent(t *testing.T) {
	nodes := []Node{
		{Rank: 0, Neighbors: []int32{1}},
		{Rank: 1, Neighbors: []int32{0}},
		{Rank: 10, Neighbors: []int32{11}},
		{Rank: 11, Neighbors: []int32{10}},
	}
	order := BuildOrder(nodes)
	// 0 and 1 are one BFS component and must appear consecutively, before
	// the unrelated 10/11 component starts (lowest unvisited rank first).
	if !(order[0] == 0 && order[1] == 1) {
		t.Fatalf("order = %v, want [0 1 10 11]", order)
	}
}

func TestBisectRespectsMaxGroupSize(t *testing.T) {
	order := []int32{0, 1, 2, 3, 4, 5, 6, 7}
	weight := map[int32]float64{0: 1, 1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 1}
	groups := Bisect(order, weight, 2)
	total := 0
	for _, g := range groups {
		if len(g) > 2 {
			t.Fatalf("group %v exceeds max size 2", g)
		}
		total += len(g)
	}
	if total != 8 {
		t.Fatalf("groups cover %d ranks, want 8", total)
	}
}

func TestBisectSingleGroupWhenAlreadySmall(t *testing.T) {
	order := []int32{0, 1, 2}
	weight := map[int32]float64{0: 1, 1: 1, 2: 1}
	groups := Bisect(order, weight, 10)
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Fatalf("groups = %v, want one group of 3", groups)
	}
}

func TestBisectBalancesByWeight(t *testing.T) {
	// One heavy rank and three light ones: the split should keep the
	// heavy rank alone rather than grouping it with others by count.
	order := []int32{0, 1, 2, 3}
	weight := map[int32]float64{0: 100, 1: 1, 2: 1, 3: 1}
	groups := Bisect(order, weight, 3)
	for _, g := range groups {
		if len(g) == 1 && g[0] == 0 {
			return
		}
	}
	t.Fatalf("groups = %v, want rank 0 isolated by weight", groups)
}
