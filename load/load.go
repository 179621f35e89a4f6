// Package load implements the load model: the mapping from a box (or a
// box restricted to another box) to a scalar amount of work. The only
// wired model is cell count; a WorkloadEstimator hook is declared for
// non-uniform per-cell weighting but intentionally left unwired (spec
// Open Question (b): workload_data_id is accepted conceptually but
// ignored by this design).
package load

import "github.com/notargets/treeload/box"

// WorkloadEstimator computes a per-cell weight sum over a box, for
// non-uniform load models driven by external patch data. No
// implementation is wired into the balancer; the interface exists so a
// future weighted model can be substituted without touching callers of
// Model.
type WorkloadEstimator interface {
	Weight(b box.Box) float64
}

// Model computes load for boxes. The default, and only implementation
// this module wires in, is uniform cell count.
type Model struct {
	// Weighted, if non-nil, overrides cell counting. Declared for the
	// non-uniform load extension point; never set by balancer.Balance.
	Weighted WorkloadEstimator
}

// CellCount is the uniform load model: load(box) = cells(box).
func CellCount(b box.Box) float64 {
	return float64(b.NumCells())
}

// Restricted is the uniform load model restricted to another box:
// load(box, restriction) = cells(box ∩ restriction).
func Restricted(b, restriction box.Box) float64 {
	inter, ok := b.Intersect(restriction)
	if !ok {
		return 0
	}
	return float64(inter.NumCells())
}

// Load computes m's load for b, falling back to cell count when no
// weighted estimator is configured.
func (m Model) Load(b box.Box) float64 {
	if m.Weighted != nil {
		return m.Weighted.Weight(b)
	}
	return CellCount(b)
}

// LoadRestricted computes m's load for b restricted to restriction.
func (m Model) LoadRestricted(b, restriction box.Box) float64 {
	inter, ok := b.Intersect(restriction)
	if !ok {
		return 0
	}
	return m.Load(inter)
}
