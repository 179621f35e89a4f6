package redistribute

import (
	"math"
	"runtime"
	"sort"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/breaker"
	"github.com/notargets/treeload/comm"
	"github.com/notargets/treeload/ranktree"
	"github.com/notargets/treeload/transit"
)

// Cycle drives one rank through one up-pass/down-pass round of the tree
// redistribution protocol over a contiguous rank range [lo, hi), per spec
// §4.E and §5. Multiple rounds (e.g. the repeated full-range passes
// balancer.Balance runs) each construct a fresh Cycle with the round's
// own tree, range, and stage.
type Cycle struct {
	Tree    ranktree.Strategy
	Dim     int
	Breaker *breaker.Breaker
	IDs     *box.IDAllocator

	// MaxSpreadRatio caps how many children one sender feeds directly in
	// a single cycle's down-pass (spec §4.E, max_cycle_spread_ratio).
	// Children beyond the cap still get an (empty) down-message so they
	// keep reporting WantsWorkFromParent; 0 or negative means unbounded.
	MaxSpreadRatio int
}

// NewCycle returns a Cycle ready to drive one round, with no spread cap
// (set the returned Cycle's MaxSpreadRatio field to bound fan-out).
func NewCycle(tree ranktree.Strategy, dim int, br *breaker.Breaker, ids *box.IDAllocator) *Cycle {
	return &Cycle{Tree: tree, Dim: dim, Breaker: br, IDs: ids}
}

// Run executes the full up-pass/down-pass state machine for rank within
// [lo, hi): INITIAL -> AWAIT_CHILDREN_UP -> COMPUTE_UP -> SEND_UP ->
// AWAIT_PARENT_DOWN -> COMPUTE_DOWN -> SEND_DOWN -> FINALIZE. local
// carries rank's own ideal/upper-limit budget in on entry (LoadCurrent and
// mainBin reflect the boxes rank owns before balancing); on return, local
// and mainBin reflect rank's post-cycle state.
func (c *Cycle) Run(stage comm.Stage, lo, hi, rank int32, local *SubtreeData, mainBin *transit.TransitSet) error {
	children := c.Tree.Children(lo, hi, rank)
	parent, hasParent := c.Tree.Parent(lo, hi, rank)

	// AWAIT_CHILDREN_UP / COMPUTE_UP: gather each child's report and fold
	// its surplus boxes into this subtree's holding pen.
	childData := make(map[int32]*SubtreeData, len(children))
	if len(children) > 0 {
		recvs := make(map[int32]*comm.RecvHandle, len(children))
		for _, ch := range children {
			recvs[ch] = stage.PostRecv(ch, comm.TagUp)
		}
		pumpUntilAll(stage, recvs)
		for _, ch := range children {
			msg, err := Decode(c.Dim, recvs[ch].Bytes())
			if err != nil {
				return balerr.Fatal("redistribute: decoding up-message from rank %d: %v", ch, err)
			}
			cd := &SubtreeData{
				SubtreeRank:    msg.SubtreeRank,
				NumProcs:       msg.NumProcs,
				LoadCurrent:    msg.LoadCurrent,
				LoadIdeal:      msg.LoadIdeal,
				LoadUpperLimit: msg.LoadUpperLimit,
				WorkTraded:     transit.New(),
			}
			childData[ch] = cd
			local.AddChild(cd)
			if err := mainBin.InsertRange(msg.Work); err != nil {
				return err
			}
		}
	}
	local.ComputeEffective()

	// SEND_UP / AWAIT_PARENT_DOWN: report this subtree's aggregated totals
	// upward, shedding whatever exceeds its tolerance band first, then
	// wait for the parent's verdict (a possibly revised budget plus work
	// to fill a deficit).
	if hasParent {
		upBin := transit.New()
		if err := Adjust(mainBin, upBin, local.LoadIdeal, local.LoadIdeal, local.LoadUpperLimit, c.Breaker, c.IDs); err != nil && !balerr.IsInfeasible(err) {
			return err
		}
		local.LoadCurrent = mainBin.SumLoad()

		up := Message{
			SubtreeRank:         rank,
			NumProcs:            local.NumProcs,
			LoadCurrent:         local.LoadCurrent,
			LoadIdeal:           local.LoadIdeal,
			LoadUpperLimit:      local.LoadUpperLimit,
			EffNumProcs:         local.EffNumProcs,
			EffLoadCurrent:      local.EffLoadCurrent,
			EffLoadIdeal:        local.EffLoadIdeal,
			EffLoadUpperLimit:   local.EffLoadUpperLimit,
			WantsWorkFromParent: local.LoadCurrent < local.LoadIdeal,
			Work:                upBin.Items(),
		}
		stage.PostSend(parent, comm.TagUp, Encode(c.Dim, up))
		stage.DrainSends()

		downRecv := stage.PostRecv(parent, comm.TagDown)
		pumpUntilOne(stage, downRecv)
		down, err := Decode(c.Dim, downRecv.Bytes())
		if err != nil {
			return balerr.Fatal("redistribute: decoding down-message from rank %d: %v", parent, err)
		}
		local.LoadIdeal = down.LoadIdeal
		local.LoadUpperLimit = down.LoadUpperLimit
		if err := mainBin.InsertRange(down.Work); err != nil {
			return err
		}
		local.LoadCurrent = mainBin.SumLoad()
	}

	// COMPUTE_DOWN / SEND_DOWN: distribute whatever this subtree now holds
	// beyond its own need to children that reported wanting work,
	// proportioned by each child's reported deficit.
	if len(children) > 0 {
		fed := childrenEligibleForWork(children, childData, c.MaxSpreadRatio)
		for _, ch := range children {
			cd := childData[ch]
			needed := cd.LoadIdeal - cd.LoadCurrent
			downBin := transit.New()
			if needed > 0 && fed[ch] {
				target := mainBin.SumLoad() - needed
				if target < 0 {
					target = 0
				}
				slack := math.Max(1, needed*0.1)
				low, high := math.Max(0, target-slack), target+slack
				if err := Adjust(mainBin, downBin, target, low, high, c.Breaker, c.IDs); err != nil && !balerr.IsInfeasible(err) {
					return err
				}
			}
			down := Message{
				SubtreeRank:         ch,
				NumProcs:            cd.NumProcs,
				LoadCurrent:         cd.LoadCurrent + downBin.SumLoad(),
				LoadIdeal:           cd.LoadIdeal,
				LoadUpperLimit:      cd.LoadUpperLimit,
				WantsWorkFromParent: downBin.SumLoad() < needed,
				Work:                downBin.Items(),
			}
			stage.PostSend(ch, comm.TagDown, Encode(c.Dim, down))
		}
		stage.DrainSends()
	}

	local.LoadCurrent = mainBin.SumLoad()
	return nil
}

// childrenEligibleForWork selects which children may actually receive a
// share of this sender's load this cycle, capped at maxSpread (spec
// §4.E's max_cycle_spread_ratio). Children are ranked by reported deficit,
// highest first, ties broken by rank; maxSpread <= 0 means every
// requesting child is eligible.
func childrenEligibleForWork(children []int32, childData map[int32]*SubtreeData, maxSpread int) map[int32]bool {
	eligible := make(map[int32]bool, len(children))
	if maxSpread <= 0 || len(children) <= maxSpread {
		for _, ch := range children {
			eligible[ch] = true
		}
		return eligible
	}
	ranked := append([]int32(nil), children...)
	sort.Slice(ranked, func(i, j int) bool {
		di := childData[ranked[i]].LoadIdeal - childData[ranked[i]].LoadCurrent
		dj := childData[ranked[j]].LoadIdeal - childData[ranked[j]].LoadCurrent
		if di != dj {
			return di > dj
		}
		return ranked[i] < ranked[j]
	})
	for _, ch := range ranked[:maxSpread] {
		eligible[ch] = true
	}
	return eligible
}

func pumpUntilAll(stage comm.Stage, recvs map[int32]*comm.RecvHandle) {
	for {
		allDone := true
		for _, h := range recvs {
			if !h.Done() {
				allDone = false
				break
			}
		}
		if allDone {
			return
		}
		stage.Pump()
		runtime.Gosched()
	}
}

func pumpUntilOne(stage comm.Stage, h *comm.RecvHandle) {
	for !h.Done() {
		stage.Pump()
		runtime.Gosched()
	}
}
