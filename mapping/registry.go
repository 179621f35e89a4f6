package mapping

import (
	"runtime"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/comm"
	"github.com/notargets/treeload/transit"
)

// ExportRecord is an audit-trail entry: a fragment that left this rank's
// holding pen during redistribution, bound for peer. It is not consulted
// by Reconstruct — the reconstruction algorithm (spec §4.F steps 1-3)
// needs only each rank's final holdings — and the stats package does not
// read it either.
type ExportRecord struct {
	Peer     int32
	Origin   box.Box
	Fragment box.Box
}

// Registry holds ExportRecords appended through RecordExport.
// balancer.Balance does not create or fill one.
type Registry struct {
	Exported []ExportRecord
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// RecordExport appends one audit entry.
func (r *Registry) RecordExport(peer int32, origin, fragment box.Box) {
	r.Exported = append(r.Exported, ExportRecord{Peer: peer, Origin: origin, Fragment: fragment})
}

// Reconstruct runs the semilocal unbalanced->balanced connector build
// described in spec §4.F: held is the full set of boxes rank currently
// owns once every redistribution cycle has finished. Boxes whose origin
// this rank itself owns are recorded locally (step 3); everything else is
// reported to its origin's owner over a two-phase manifest-then-payload
// exchange addressing every other rank in [0, numRanks).
func Reconstruct(stage comm.Stage, rank, numRanks int32, dim int, held []transit.BoxInTransit) (*Connector, error) {
	conn := NewConnector()
	byPeer := make(map[int32][]edgeRecord)

	for _, b := range held {
		owner := b.Origin.ID.OwnerRank
		if owner == rank {
			conn.add(b.Origin.ID, rank, b.Box)
			continue
		}
		byPeer[owner] = append(byPeer[owner], edgeRecord{Origin: b.Origin, Current: b.Box})
	}

	// Phase 1: manifest. Every ordered pair of distinct ranks exchanges a
	// record count so phase 2 can post exactly the receives it needs.
	manifestRecv := make(map[int32]*comm.RecvHandle, numRanks-1)
	for p := int32(0); p < numRanks; p++ {
		if p == rank {
			continue
		}
		manifestRecv[p] = stage.PostRecv(p, comm.TagEdgeUp)
	}
	for p := int32(0); p < numRanks; p++ {
		if p == rank {
			continue
		}
		stage.PostSend(p, comm.TagEdgeUp, encodeCount(int32(len(byPeer[p]))))
	}
	stage.DrainSends()
	pumpUntilAll(stage, manifestRecv)

	counts := make(map[int32]int32, len(manifestRecv))
	for p, h := range manifestRecv {
		n, err := decodeCount(h.Bytes())
		if err != nil {
			return nil, balerr.Fatal("mapping: decoding manifest from rank %d: %v", p, err)
		}
		counts[p] = n
	}

	// Phase 2: payload. Only ranks that announced a non-zero count get a
	// receive posted against them.
	payloadRecv := make(map[int32]*comm.RecvHandle)
	for p, n := range counts {
		if n > 0 {
			payloadRecv[p] = stage.PostRecv(p, comm.TagEdgeDown)
		}
	}
	for p, recs := range byPeer {
		if len(recs) > 0 {
			stage.PostSend(p, comm.TagEdgeDown, encodeRecords(dim, recs))
		}
	}
	stage.DrainSends()
	pumpUntilAll(stage, payloadRecv)

	for p, h := range payloadRecv {
		recs, err := decodeRecords(dim, h.Bytes())
		if err != nil {
			return nil, balerr.Fatal("mapping: decoding payload from rank %d: %v", p, err)
		}
		for _, rec := range recs {
			conn.add(rec.Origin.ID, p, rec.Current)
		}
	}

	return conn, nil
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
