package balancer

import (
	"testing"

	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/breaker"
	"github.com/notargets/treeload/config"
)

func mkBox(rank int32, local int64, lower, upper []int32) box.Box {
	return box.New(box.ID{OwnerRank: rank, LocalID: local, BlockID: 0}, lower, upper)
}

// Scenario 1: single rank, one 16x16 box, avg=256. Output is the
// identical box; there is nothing to redistribute.
func TestBalanceSingleRankPassthrough(t *testing.T) {
	inputs := []RankInput{
		{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{15, 15})}},
	}
	res, err := Balance(config.Default(), inputs, breaker.DefaultParams(2), 2, nil)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	got := res.Boxes[0]
	if len(got) != 1 || !got[0].Equals(inputs[0].Boxes[0]) {
		t.Fatalf("Boxes[0] = %v, want the original box unchanged", got)
	}
	if len(res.Boxes[0]) == 0 || res.Report.PerRank[0] != 256 {
		t.Fatalf("PerRank[0] = %v, want 256", res.Report.PerRank[0])
	}
}

// Scenario 2: two ranks, rank 0 has a 32x16 box (512 cells), rank 1
// empty, tol=0.05. Both final boxes tile the original and rank 0 lands
// within [243, 269].
func TestBalanceTwoRanksSplitsEvenly(t *testing.T) {
	opts := config.Default()
	opts.FlexibleLoadTolerance = 0.05
	inputs := []RankInput{
		{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{31, 15})}},
		{Rank: 1, Boxes: nil},
	}
	res, err := Balance(opts, inputs, breaker.DefaultParams(2), 2, nil)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	l0, l1 := res.Report.PerRank[0], res.Report.PerRank[1]
	if l0 < 243 || l0 > 269 {
		t.Fatalf("rank 0 load = %v, want in [243,269]", l0)
	}
	if l0+l1 != 512 {
		t.Fatalf("total load = %v, want 512 conserved", l0+l1)
	}
	if len(res.Boxes[1]) == 0 {
		t.Fatalf("rank 1 received no boxes")
	}
}

// Scenario 3: four ranks in a balanced binary tree, rank 0 has 1000,
// others 0, one cycle. Every rank should land in [237, 263].
func TestBalanceFourRanksBinaryTree(t *testing.T) {
	inputs := []RankInput{
		{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{999, 0})}},
		{Rank: 1, Boxes: nil},
		{Rank: 2, Boxes: nil},
		{Rank: 3, Boxes: nil},
	}
	res, err := Balance(config.Default(), inputs, breaker.DefaultParams(2), 2, nil)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	var total float64
	for pos := int32(0); pos < 4; pos++ {
		l := res.Report.PerRank[pos]
		total += l
		if l < 237 || l > 263 {
			t.Errorf("rank %d load = %v, want in [237,263]", pos, l)
		}
	}
	if total != 1000 {
		t.Fatalf("total load = %v, want 1000 conserved", total)
	}
	if res.Connector.Len() == 0 {
		t.Fatalf("connector recorded no fragments for rank 0's original box")
	}
}

// Scenario 4: an indivisible single-cell box can't be cut smaller than
// min-size=1, so it stays put; the rest of the tree stays at zero with no
// crash, and the residual imbalance shows up in the report.
func TestBalanceIndivisibleBoxStaysPut(t *testing.T) {
	params := breaker.DefaultParams(2)
	inputs := []RankInput{
		{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{0, 0})}},
		{Rank: 1, Boxes: nil},
		{Rank: 2, Boxes: nil},
		{Rank: 3, Boxes: nil},
	}
	res, err := Balance(config.Default(), inputs, params, 2, nil)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if res.Report.PerRank[0] != 1 {
		t.Fatalf("rank 0 load = %v, want 1 (the box could not be split)", res.Report.PerRank[0])
	}
	for pos := int32(1); pos < 4; pos++ {
		if res.Report.PerRank[pos] != 0 {
			t.Fatalf("rank %d load = %v, want 0", pos, res.Report.PerRank[pos])
		}
	}
	if res.Report.Imbalance <= 1.0 {
		t.Fatalf("Imbalance = %v, want > 1.0 to reflect the indivisible residual", res.Report.Imbalance)
	}
}

// Scenario 6 (approximated): a rank count above MinNProcForMulticycle
// forces more than one cycle, and the final spread across ranks is much
// tighter than the all-on-one-rank start.
func TestBalanceManyRanksMultiCycleNarrowsSpread(t *testing.T) {
	const n = 128
	opts := config.Default()
	opts.MaxCycleSpreadRatio = 8
	inputs := make([]RankInput, n)
	inputs[0] = RankInput{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{n*n - 1, 0})}}
	for r := 1; r < n; r++ {
		inputs[r] = RankInput{Rank: int32(r)}
	}
	res, err := Balance(opts, inputs, breaker.DefaultParams(2), 2, nil)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if res.Report.Imbalance > 1.2 {
		t.Fatalf("Imbalance = %v, want close to 1.0 after multiple cycles", res.Report.Imbalance)
	}
	if res.Report.Min == 0 {
		t.Fatalf("Min load = 0, want every rank to have received some work after multi-cycle balancing")
	}
}

func TestBalanceRejectsEmptyInput(t *testing.T) {
	if _, err := Balance(config.Default(), nil, breaker.DefaultParams(2), 2, nil); err == nil {
		t.Fatalf("expected an error for zero ranks")
	}
}

func TestBalanceGraphStrategyProducesAPermutation(t *testing.T) {
	inputs := []RankInput{
		{Rank: 0, Boxes: []box.Box{mkBox(0, 0, []int32{0, 0}, []int32{63, 63})}},
		{Rank: 1, Boxes: []box.Box{mkBox(1, 0, []int32{64, 0}, []int32{127, 63})}},
		{Rank: 2, Boxes: nil},
		{Rank: 3, Boxes: nil},
	}
	res, err := Balance(config.Default(), inputs, breaker.DefaultParams(2), 2, GraphStrategy{})
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	seen := make(map[int32]bool)
	for _, r := range res.PositionToRank {
		seen[r] = true
	}
	if len(seen) != 4 {
		t.Fatalf("PositionToRank = %v, want a permutation of all 4 ranks", res.PositionToRank)
	}
}
