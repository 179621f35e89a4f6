// Package comm implements the "Async communication stage & peer" consumed
// interface from spec §6: non-blocking post, completion polling, and
// message-stream pack/unpack, realized in-process over Go channels so the
// tree redistributor and mapping reconstructor can be driven and tested
// without a real MPI runtime. A production deployment would swap this
// package for an MPI-backed implementation behind the same Stage
// interface; nothing above this package depends on the transport.
package comm

import (
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// SendHandle tracks one posted, non-blocking send.
type SendHandle struct {
	done atomic.Bool
	id   uuid.UUID
}

// Done reports whether the send has completed.
func (h *SendHandle) Done() bool { return h.done.Load() }

// RecvHandle tracks one posted, non-blocking receive.
type RecvHandle struct {
	done    atomic.Bool
	payload []byte
}

// Done reports whether a matching message has arrived.
func (h *RecvHandle) Done() bool { return h.done.Load() }

// Bytes returns the received payload. Valid only once Done() is true.
func (h *RecvHandle) Bytes() []byte { return h.payload }

// Stage is one rank's view of the network for one phase: it can post
// sends and receives against tagged peer ranks, and must be pumped
// cooperatively to make progress. No method blocks.
type Stage interface {
	// Rank returns the rank this stage belongs to.
	Rank() int32

	// PostSend posts payload to (to, tag) without blocking.
	PostSend(to int32, tag Tag, payload []byte) *SendHandle

	// PostRecv registers interest in a message from (from, tag) without
	// blocking; the handle completes once Pump observes it arrive.
	PostRecv(from int32, tag Tag) *RecvHandle

	// Pump advances outstanding receives, returning true if any progress
	// was made. Backlogged sends complete on their own background
	// goroutines, not through Pump. The redistributor calls Pump in a
	// cooperative loop; Pump itself never blocks.
	Pump() bool

	// DrainSends blocks (by cooperatively yielding, never by waiting on
	// a channel) until every send this stage has posted has completed.
	// This is the "barrier-free drain" spec §5 requires before a rank
	// finishes a phase.
	DrainSends()
}

type stage struct {
	net     *Network
	rank    int32
	sends   []*SendHandle
	recvs   []*pendingRecv
}

type pendingRecv struct {
	ch <-chan []byte
	h  *RecvHandle
}

func (s *stage) Rank() int32 { return s.rank }

func (s *stage) PostSend(to int32, tag Tag, payload []byte) *SendHandle {
	h := &SendHandle{id: uuid.New()}
	ch := s.net.channel(s.rank, to, tag)
	select {
	case ch <- payload:
		h.done.Store(true)
	default:
		go func() {
			ch <- payload
			h.done.Store(true)
		}()
	}
	s.sends = append(s.sends, h)
	return h
}

func (s *stage) PostRecv(from int32, tag Tag) *RecvHandle {
	h := &RecvHandle{}
	ch := s.net.channel(from, s.rank, tag)
	s.recvs = append(s.recvs, &pendingRecv{ch: ch, h: h})
	return h
}

func (s *stage) Pump() bool {
	progressed := false
	remaining := s.recvs[:0]
	for _, pr := range s.recvs {
		select {
		case payload := <-pr.ch:
			pr.h.payload = payload
			pr.h.done.Store(true)
			progressed = true
		default:
			remaining = append(remaining, pr)
		}
	}
	s.recvs = remaining
	return progressed
}

func (s *stage) DrainSends() {
	for {
		allDone := true
		for _, h := range s.sends {
			if !h.Done() {
				allDone = false
				break
			}
		}
		if allDone {
			return
		}
		runtime.Gosched()
	}
}
