package mapping

import (
	"bytes"
	"encoding/binary"

	"github.com/notargets/treeload/box"
)

// edgeRecord is one (origin, current) pair reported to an origin box's
// owner during semilocal reconstruction.
type edgeRecord struct {
	Origin  box.Box
	Current box.Box
}

func encodeCount(n int32) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, n)
	return buf.Bytes()
}

func decodeCount(data []byte) (int32, error) {
	var n int32
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &n)
	return n, err
}

func encodeRecords(dim int, recs []edgeRecord) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint32(len(recs)))
	for _, r := range recs {
		encodeBox(buf, dim, r.Origin)
		encodeBox(buf, dim, r.Current)
	}
	return buf.Bytes()
}

func decodeRecords(dim int, data []byte) ([]edgeRecord, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	out := make([]edgeRecord, count)
	for i := uint32(0); i < count; i++ {
		origin, err := decodeBox(r, dim)
		if err != nil {
			return nil, err
		}
		current, err := decodeBox(r, dim)
		if err != nil {
			return nil, err
		}
		out[i] = edgeRecord{Origin: origin, Current: current}
	}
	return out, nil
}

func encodeBox(buf *bytes.Buffer, dim int, b box.Box) {
	binary.Write(buf, binary.BigEndian, b.ID.OwnerRank)
	binary.Write(buf, binary.BigEndian, b.ID.LocalID)
	binary.Write(buf, binary.BigEndian, b.ID.BlockID)
	for d := 0; d < dim; d++ {
		binary.Write(buf, binary.BigEndian, b.Lower[d])
	}
	for d := 0; d < dim; d++ {
		binary.Write(buf, binary.BigEndian, b.Upper[d])
	}
}

func decodeBox(r *bytes.Reader, dim int) (box.Box, error) {
	var owner int32
	var local int64
	var block int32
	if err := binary.Read(r, binary.BigEndian, &owner); err != nil {
		return box.Box{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &local); err != nil {
		return box.Box{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &block); err != nil {
		return box.Box{}, err
	}
	lower := make([]int32, dim)
	for d := 0; d < dim; d++ {
		if err := binary.Read(r, binary.BigEndian, &lower[d]); err != nil {
			return box.Box{}, err
		}
	}
	upper := make([]int32, dim)
	for d := 0; d < dim; d++ {
		if err := binary.Read(r, binary.BigEndian, &upper[d]); err != nil {
			return box.Box{}, err
		}
	}
	return box.New(box.ID{OwnerRank: owner, LocalID: local, BlockID: block}, lower, upper), nil
}
