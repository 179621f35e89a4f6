// Package redistribute implements the tree redistributor (spec §4.E):
// per-cycle up-pass surplus aggregation and down-pass deficit delivery
// over asynchronous point-to-point messages to parent and children.
package redistribute

import "github.com/notargets/treeload/transit"

// SubtreeData is the per-subtree accounting a rank holds locally while
// one cycle runs. It is destroyed at the end of the cycle.
type SubtreeData struct {
	SubtreeRank int32
	NumProcs    int32

	LoadCurrent    float64
	LoadIdeal      float64
	LoadUpperLimit float64

	// Effective variants, computed after pruning subtrees that are
	// already satisfied (current >= ideal) (spec §3). They are carried in
	// up-messages; Cycle.Run's down-pass does not read them and sizes each
	// child's share by the plain deficit (LoadIdeal - LoadCurrent).
	EffNumProcs       int32
	EffLoadCurrent    float64
	EffLoadIdeal      float64
	EffLoadUpperLimit float64

	// WorkTraded holds the boxes actually transferred between this
	// subtree and its parent in this cycle.
	WorkTraded *transit.TransitSet

	WantsWorkFromParent bool
}

// NewSubtreeData returns a SubtreeData for a single leaf rank with the
// given budgets and no accumulated children yet.
func NewSubtreeData(rank int32, ideal, upperLimit float64) *SubtreeData {
	return &SubtreeData{
		SubtreeRank:    rank,
		NumProcs:       1,
		LoadIdeal:      ideal,
		LoadUpperLimit: upperLimit,
		WorkTraded:     transit.New(),
	}
}

// Surplus returns current load minus ideal load (positive means the
// subtree has more than its share).
func (s *SubtreeData) Surplus() float64 { return s.LoadCurrent - s.LoadIdeal }

// Deficit returns ideal load minus current load (positive means the
// subtree needs more).
func (s *SubtreeData) Deficit() float64 { return s.LoadIdeal - s.LoadCurrent }

// Excess returns current load minus the upper limit (positive means the
// subtree is over its tolerance band).
func (s *SubtreeData) Excess() float64 { return s.LoadCurrent - s.LoadUpperLimit }

// Margin returns the upper limit minus current load (room left before
// the subtree would exceed its tolerance band).
func (s *SubtreeData) Margin() float64 { return s.LoadUpperLimit - s.LoadCurrent }

// EffDeficit is the effective (post-pruning) deficit. Cycle.Run does not
// call it; the down-pass uses the plain deficit.
func (s *SubtreeData) EffDeficit() float64 { return s.EffLoadIdeal - s.EffLoadCurrent }

// AddChild rolls a child subtree's totals into s, the up-pass
// accumulation step. It must be called once per child after that child's
// up-message has arrived and been integrated.
func (s *SubtreeData) AddChild(child *SubtreeData) {
	s.NumProcs += child.NumProcs
	s.LoadCurrent += child.LoadCurrent
	s.LoadIdeal += child.LoadIdeal
	s.LoadUpperLimit += child.LoadUpperLimit
}

// ComputeEffective derives the Eff* fields from the current totals,
// pruning this subtree from the "wants work" accounting if it is already
// at or above its ideal load.
func (s *SubtreeData) ComputeEffective() {
	if s.LoadCurrent >= s.LoadIdeal {
		s.EffNumProcs = 0
		s.EffLoadCurrent = 0
		s.EffLoadIdeal = 0
		s.EffLoadUpperLimit = 0
		return
	}
	s.EffNumProcs = s.NumProcs
	s.EffLoadCurrent = s.LoadCurrent
	s.EffLoadIdeal = s.LoadIdeal
	s.EffLoadUpperLimit = s.LoadUpperLimit
}
