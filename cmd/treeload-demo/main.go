// Command treeload-demo runs a single simulated balance call over a
// small set of in-memory boxes and prints the resulting load report, the
// shape spec.md §8's scenario table describes by hand.
package main

import (
	"fmt"
	"log"

	"github.com/notargets/treeload/balancer"
	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/breaker"
	"github.com/notargets/treeload/config"
)

// Simulation parameters
const (
	NumRanks          = 4
	Dim               = 2
	FlexibleTolerance = 0.05
)

func main() {
	fmt.Printf("=== treeload demo: %d-rank tree balance ===\n", NumRanks)

	inputs := buildSkewedInput()
	fmt.Printf("Initial load: rank 0 holds one %dx%d box, ranks 1-%d empty\n",
		inputs[0].Boxes[0].Side(0), inputs[0].Boxes[0].Side(1), NumRanks-1)

	opts := config.Default()
	opts.FlexibleLoadTolerance = FlexibleTolerance
	opts.ReportLoadBalance = true
	opts.SummarizeMap = true

	result, err := balancer.Balance(opts, inputs, breaker.DefaultParams(Dim), Dim, nil)
	if err != nil {
		log.Fatalf("balance failed: %v", err)
	}

	fmt.Print(result.Report.String())
	fmt.Println()
	fmt.Print(result.MapSummary)
}

func buildSkewedInput() []balancer.RankInput {
	inputs := make([]balancer.RankInput, NumRanks)
	id := box.ID{OwnerRank: 0, LocalID: 0, BlockID: 0}
	inputs[0] = balancer.RankInput{
		Rank:  0,
		Boxes: []box.Box{box.New(id, []int32{0, 0}, []int32{63, 15})},
	}
	for r := 1; r < NumRanks; r++ {
		inputs[r] = balancer.RankInput{Rank: int32(r)}
	}
	return inputs
}
