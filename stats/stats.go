// Package stats implements the balancer's diagnostic output: the
// report_load_balance and summarize_map options from spec §6.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/notargets/treeload/mapping"
)

// Report summarizes per-rank load after a balance call.
type Report struct {
	PerRank  map[int32]float64
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Imbalance float64 // Max / Mean; 1.0 is perfectly balanced
}

// Summarize computes a Report from a map of final per-rank load.
func Summarize(perRank map[int32]float64) Report {
	if len(perRank) == 0 {
		return Report{PerRank: perRank}
	}
	loads := make([]float64, 0, len(perRank))
	for _, l := range perRank {
		loads = append(loads, l)
	}
	mean, std := stat.MeanStdDev(loads, nil)
	min, max := loads[0], loads[0]
	for _, l := range loads {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	imbalance := 1.0
	if mean > 0 {
		imbalance = max / mean
	}
	return Report{
		PerRank:   perRank,
		Mean:      mean,
		StdDev:    std,
		Min:       min,
		Max:       max,
		Imbalance: imbalance,
	}
}

// String renders the report one rank per line, sorted by rank, the shape
// report_load_balance is expected to emit.
func (r Report) String() string {
	ranks := make([]int32, 0, len(r.PerRank))
	for rk := range r.PerRank {
		ranks = append(ranks, rk)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "load balance report: mean=%.3f stddev=%.3f min=%.3f max=%.3f imbalance=%.3f\n",
		r.Mean, r.StdDev, r.Min, r.Max, r.Imbalance)
	for _, rk := range ranks {
		fmt.Fprintf(&b, "  rank %d: load=%.3f\n", rk, r.PerRank[rk])
	}
	return b.String()
}

// SummarizeMap renders the unbalanced->balanced connector as text: a
// header line per original box followed by one line per fragment giving
// its current rank and geometry, the summarize_map diagnostic from spec §6.
func SummarizeMap(conn *mapping.Connector) string {
	ids := conn.OriginIDs()
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.OwnerRank != b.OwnerRank {
			return a.OwnerRank < b.OwnerRank
		}
		return a.LocalID < b.LocalID
	})

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "origin %s:\n", id)
		for _, p := range conn.Lookup(id) {
			fmt.Fprintf(&b, "  -> rank %d: lower=%v upper=%v\n", p.Rank, p.Current.Lower, p.Current.Upper)
		}
	}
	return b.String()
}
