package box

import "testing"

func idSeq(rank int32, start int64) func() ID {
	n := start
	return func() ID {
		id := ID{OwnerRank: rank, LocalID: n}
		n++
		return id
	}
}

func sumCells(bs []Box) int64 {
	var s int64
	for _, b := range bs {
		s += b.NumCells()
	}
	return s
}

func TestBurstCompleteness2D(t *testing.T) {
	bursty := mkBox(0, 0, []int32{0, 0}, []int32{7, 7})
	solid := mkBox(0, 1, []int32{2, 3}, []int32{4, 5})

	pieces := Burst(bursty, solid, idSeq(0, 100))

	if len(pieces) > 2*bursty.Dim() {
		t.Fatalf("got %d pieces, want at most %d", len(pieces), 2*bursty.Dim())
	}

	total := sumCells(pieces) + solid.NumCells()
	if total != bursty.NumCells() {
		t.Fatalf("coverage mismatch: pieces+solid=%d, bursty=%d", total, bursty.NumCells())
	}

	// pairwise disjoint, and disjoint from solid
	all := append(append([]Box(nil), pieces...), solid)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if _, ok := all[i].Intersect(all[j]); ok {
				t.Fatalf("pieces %d and %d overlap", i, j)
			}
		}
	}
}

func TestBurstSolidEqualsBursty(t *testing.T) {
	b := mkBox(0, 0, []int32{0, 0}, []int32{3, 3})
	pieces := Burst(b, b, idSeq(0, 0))
	if len(pieces) != 0 {
		t.Fatalf("expected no pieces when solid == bursty, got %d", len(pieces))
	}
}

func TestSplit(t *testing.T) {
	b := mkBox(0, 0, []int32{0}, []int32{7})
	lo, hi, ok := Split(b, 0, 4, ID{OwnerRank: 0, LocalID: 1}, ID{OwnerRank: 0, LocalID: 2})
	if !ok {
		t.Fatalf("expected successful split")
	}
	if lo.NumCells()+hi.NumCells() != b.NumCells() {
		t.Fatalf("split does not conserve cells: %d + %d != %d", lo.NumCells(), hi.NumCells(), b.NumCells())
	}
	if _, ok := lo.Intersect(hi); ok {
		t.Fatalf("split pieces overlap")
	}
}

func TestCornerChop(t *testing.T) {
	b := mkBox(0, 0, []int32{0, 0}, []int32{7, 7})
	breakoff, leftover, ok := CornerChop(b, 0, []int32{3, 3}, ID{OwnerRank: 0, LocalID: 9}, idSeq(0, 10))
	if !ok {
		t.Fatalf("expected successful corner chop")
	}
	total := breakoff.NumCells() + sumCells(leftover)
	if total != b.NumCells() {
		t.Fatalf("corner chop does not conserve cells: %d != %d", total, b.NumCells())
	}
}
