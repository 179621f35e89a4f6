package stats

import (
	"strings"
	"testing"

	"github.com/notargets/treeload/mapping"
)

func TestSummarizeComputesMeanAndImbalance(t *testing.T) {
	r := Summarize(map[int32]float64{0: 100, 1: 100, 2: 100})
	if r.Mean != 100 {
		t.Fatalf("Mean = %v, want 100", r.Mean)
	}
	if r.Imbalance != 1.0 {
		t.Fatalf("Imbalance = %v, want 1.0 for a perfectly balanced report", r.Imbalance)
	}
	if r.StdDev != 0 {
		t.Fatalf("StdDev = %v, want 0", r.StdDev)
	}
}

func TestSummarizeDetectsImbalance(t *testing.T) {
	r := Summarize(map[int32]float64{0: 150, 1: 50})
	if r.Max != 150 || r.Min != 50 {
		t.Fatalf("Min/Max = %v/%v, want 50/150", r.Min, r.Max)
	}
	if r.Imbalance <= 1.0 {
		t.Fatalf("Imbalance = %v, want > 1.0", r.Imbalance)
	}
}

func TestReportStringListsEveryRank(t *testing.T) {
	r := Summarize(map[int32]float64{0: 10, 1: 20})
	s := r.String()
	if !strings.Contains(s, "rank 0:") || !strings.Contains(s, "rank 1:") {
		t.Fatalf("String() missing a rank line: %q", s)
	}
}

func TestSummarizeMapEmptyConnectorRendersEmpty(t *testing.T) {
	conn := mapping.NewConnector()
	out := SummarizeMap(conn)
	if out != "" {
		t.Fatalf("SummarizeMap(empty) = %q, want empty string", out)
	}
}
