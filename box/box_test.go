package box

import "testing"

func mkBox(rank int32, local int64, lower, upper []int32) Box {
	return New(ID{OwnerRank: rank, LocalID: local}, lower, upper)
}

func TestNumCells(t *testing.T) {
	b := mkBox(0, 0, []int32{0, 0}, []int32{15, 15})
	if got := b.NumCells(); got != 256 {
		t.Fatalf("NumCells() = %d, want 256", got)
	}
}

func TestNumCells1D(t *testing.T) {
	b := mkBox(0, 0, []int32{0}, []int32{31})
	if got := b.NumCells(); got != 32 {
		t.Fatalf("NumCells() = %d, want 32", got)
	}
}

func TestIntersect(t *testing.T) {
	a := mkBox(0, 0, []int32{0, 0}, []int32{9, 9})
	b := mkBox(1, 0, []int32{5, 5}, []int32{14, 14})
	got, ok := a.Intersect(b)
	if !ok {
		t.Fatalf("expected intersection")
	}
	want := mkBox(0, 0, []int32{5, 5}, []int32{9, 9})
	if !got.Equals(want) {
		t.Fatalf("Intersect() = %+v, want %+v", got, want)
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := mkBox(0, 0, []int32{0}, []int32{3})
	b := mkBox(0, 1, []int32{10}, []int32{13})
	if _, ok := a.Intersect(b); ok {
		t.Fatalf("expected no intersection")
	}
}

func TestContains(t *testing.T) {
	outer := mkBox(0, 0, []int32{0, 0}, []int32{9, 9})
	inner := mkBox(0, 1, []int32{2, 2}, []int32{4, 4})
	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	if outer.Contains(mkBox(0, 2, []int32{-1, 0}, []int32{4, 4})) {
		t.Fatalf("expected outer not to contain out-of-range box")
	}
}

func TestIDAllocatorNoCollision(t *testing.T) {
	alloc := NewIDAllocator(3, 7)
	id := alloc.Next(0)
	if id.LocalID != 8 {
		t.Fatalf("LocalID = %d, want 8", id.LocalID)
	}
	alloc.Observe(20)
	id2 := alloc.Next(0)
	if id2.LocalID != 21 {
		t.Fatalf("LocalID = %d, want 21 after Observe", id2.LocalID)
	}
}
