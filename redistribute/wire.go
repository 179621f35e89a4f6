package redistribute

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/notargets/treeload/box"
	"github.com/notargets/treeload/transit"
)

// Message is the payload carried by one up- or down-message: a
// SubtreeData summary plus the serialized boxes moving along that edge.
// The field order is bit-exact with spec §6.
type Message struct {
	SubtreeRank         int32
	NumProcs            int32
	LoadCurrent         float64
	LoadIdeal           float64
	LoadUpperLimit      float64
	EffNumProcs         int32
	EffLoadCurrent      float64
	EffLoadIdeal        float64
	EffLoadUpperLimit   float64
	WantsWorkFromParent bool
	Work                []transit.BoxInTransit
}

// ToMessage snapshots s, including its WorkTraded boxes, into a wire
// Message.
func ToMessage(s *SubtreeData) Message {
	return Message{
		SubtreeRank:         s.SubtreeRank,
		NumProcs:            s.NumProcs,
		LoadCurrent:         s.LoadCurrent,
		LoadIdeal:           s.LoadIdeal,
		LoadUpperLimit:      s.LoadUpperLimit,
		EffNumProcs:         s.EffNumProcs,
		EffLoadCurrent:      s.EffLoadCurrent,
		EffLoadIdeal:        s.EffLoadIdeal,
		EffLoadUpperLimit:   s.EffLoadUpperLimit,
		WantsWorkFromParent: s.WantsWorkFromParent,
		Work:                s.WorkTraded.Items(),
	}
}

// Encode serializes m using dim-dimensional boxes, in the exact field
// order spec §6 specifies.
func Encode(dim int, m Message) []byte {
	buf := new(bytes.Buffer)
	writeI32(buf, m.SubtreeRank)
	writeI32(buf, m.NumProcs)
	writeF64(buf, m.LoadCurrent)
	writeF64(buf, m.LoadIdeal)
	writeF64(buf, m.LoadUpperLimit)
	writeI32(buf, m.EffNumProcs)
	writeF64(buf, m.EffLoadCurrent)
	writeF64(buf, m.EffLoadIdeal)
	writeF64(buf, m.EffLoadUpperLimit)
	if m.WantsWorkFromParent {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeU32(buf, uint32(len(m.Work)))
	for _, w := range m.Work {
		encodeBoxInTransit(buf, dim, w)
	}
	return buf.Bytes()
}

// Decode parses bytes produced by Encode for dim-dimensional boxes.
func Decode(dim int, data []byte) (Message, error) {
	r := bytes.NewReader(data)
	var m Message
	var err error
	if m.SubtreeRank, err = readI32(r); err != nil {
		return m, err
	}
	if m.NumProcs, err = readI32(r); err != nil {
		return m, err
	}
	if m.LoadCurrent, err = readF64(r); err != nil {
		return m, err
	}
	if m.LoadIdeal, err = readF64(r); err != nil {
		return m, err
	}
	if m.LoadUpperLimit, err = readF64(r); err != nil {
		return m, err
	}
	if m.EffNumProcs, err = readI32(r); err != nil {
		return m, err
	}
	if m.EffLoadCurrent, err = readF64(r); err != nil {
		return m, err
	}
	if m.EffLoadIdeal, err = readF64(r); err != nil {
		return m, err
	}
	if m.EffLoadUpperLimit, err = readF64(r); err != nil {
		return m, err
	}
	wantsByte, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.WantsWorkFromParent = wantsByte != 0

	count, err := readU32(r)
	if err != nil {
		return m, err
	}
	m.Work = make([]transit.BoxInTransit, count)
	for i := uint32(0); i < count; i++ {
		w, err := decodeBoxInTransit(r, dim)
		if err != nil {
			return m, fmt.Errorf("redistribute: decoding work entry %d: %w", i, err)
		}
		m.Work[i] = w
	}
	return m, nil
}

func encodeBoxInTransit(buf *bytes.Buffer, dim int, w transit.BoxInTransit) {
	encodeBox(buf, dim, w.Box)
	encodeBox(buf, dim, w.Origin)
	writeF64(buf, w.Load)
}

func decodeBoxInTransit(r *bytes.Reader, dim int) (transit.BoxInTransit, error) {
	b, err := decodeBox(r, dim)
	if err != nil {
		return transit.BoxInTransit{}, err
	}
	origin, err := decodeBox(r, dim)
	if err != nil {
		return transit.BoxInTransit{}, err
	}
	ld, err := readF64(r)
	if err != nil {
		return transit.BoxInTransit{}, err
	}
	return transit.BoxInTransit{Box: b, Origin: origin, Load: ld}, nil
}

// encodeBox writes owner_rank:i32, local_id:i64, block_id:i32,
// lower[dim]:i32xdim, upper[dim]:i32xdim.
func encodeBox(buf *bytes.Buffer, dim int, b box.Box) {
	writeI32(buf, b.ID.OwnerRank)
	writeI64(buf, b.ID.LocalID)
	writeI32(buf, b.ID.BlockID)
	for d := 0; d < dim; d++ {
		writeI32(buf, b.Lower[d])
	}
	for d := 0; d < dim; d++ {
		writeI32(buf, b.Upper[d])
	}
}

func decodeBox(r *bytes.Reader, dim int) (box.Box, error) {
	owner, err := readI32(r)
	if err != nil {
		return box.Box{}, err
	}
	local, err := readI64(r)
	if err != nil {
		return box.Box{}, err
	}
	block, err := readI32(r)
	if err != nil {
		return box.Box{}, err
	}
	lower := make([]int32, dim)
	for d := 0; d < dim; d++ {
		if lower[d], err = readI32(r); err != nil {
			return box.Box{}, err
		}
	}
	upper := make([]int32, dim)
	for d := 0; d < dim; d++ {
		if upper[d], err = readI32(r); err != nil {
			return box.Box{}, err
		}
	}
	return box.New(box.ID{OwnerRank: owner, LocalID: local, BlockID: block}, lower, upper), nil
}

func writeI32(buf *bytes.Buffer, v int32) { binary.Write(buf, binary.BigEndian, v) }
func writeI64(buf *bytes.Buffer, v int64) { binary.Write(buf, binary.BigEndian, v) }
func writeU32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.BigEndian, v) }
func writeF64(buf *bytes.Buffer, v float64) { binary.Write(buf, binary.BigEndian, v) }

func readI32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readI64(r *bytes.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readF64(r *bytes.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
