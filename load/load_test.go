package load

import (
	"testing"

	"github.com/notargets/treeload/box"
)

func TestCellCount(t *testing.T) {
	b := box.New(box.ID{}, []int32{0, 0}, []int32{15, 15})
	if got := CellCount(b); got != 256 {
		t.Fatalf("CellCount() = %v, want 256", got)
	}
}

func TestRestricted(t *testing.T) {
	b := box.New(box.ID{}, []int32{0, 0}, []int32{9, 9})
	restriction := box.New(box.ID{}, []int32{5, 5}, []int32{14, 14})
	if got := Restricted(b, restriction); got != 25 {
		t.Fatalf("Restricted() = %v, want 25", got)
	}
}

func TestModelDefaultsToCellCount(t *testing.T) {
	m := Model{}
	b := box.New(box.ID{}, []int32{0}, []int32{31})
	if got := m.Load(b); got != 32 {
		t.Fatalf("Load() = %v, want 32", got)
	}
}

type fixedWeight struct{ w float64 }

func (f fixedWeight) Weight(box.Box) float64 { return f.w }

func TestModelWeightedOverride(t *testing.T) {
	m := Model{Weighted: fixedWeight{w: 42}}
	b := box.New(box.ID{}, []int32{0}, []int32{31})
	if got := m.Load(b); got != 42 {
		t.Fatalf("Load() = %v, want 42", got)
	}
}
