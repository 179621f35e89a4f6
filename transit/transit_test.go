package transit

import (
	"testing"

	"github.com/notargets/treeload/balerr"
	"github.com/notargets/treeload/box"
)

func entry(rank int32, local int64, load float64) BoxInTransit {
	b := box.New(box.ID{OwnerRank: rank, LocalID: local}, []int32{0}, []int32{0})
	return BoxInTransit{Box: b, Origin: b, Load: load}
}

func TestInsertOrdersByDescendingLoadThenID(t *testing.T) {
	s := New()
	must(t, s.Insert(entry(0, 1, 10)))
	must(t, s.Insert(entry(0, 2, 30)))
	must(t, s.Insert(entry(0, 3, 20)))
	must(t, s.Insert(entry(0, 0, 30)))

	items := s.Items()
	wantLoads := []float64{30, 30, 20, 10}
	for i, it := range items {
		if it.Load != wantLoads[i] {
			t.Fatalf("items[%d].Load = %v, want %v", i, it.Load, wantLoads[i])
		}
	}
	// The two entries with load 30 must be ordered by ascending id.
	if items[0].Box.ID.LocalID != 0 || items[1].Box.ID.LocalID != 2 {
		t.Fatalf("tie-break by id failed: got %v then %v", items[0].Box.ID, items[1].Box.ID)
	}
}

func TestSumLoadInvariant(t *testing.T) {
	s := New()
	naive := 0.0
	for i := 0; i < 50; i++ {
		e := entry(0, int64(i), float64(i)*3.5)
		must(t, s.Insert(e))
		naive += e.Load
	}
	if s.SumLoad() != naive {
		t.Fatalf("SumLoad() = %v, want %v", s.SumLoad(), naive)
	}
	// Erase half of them and recheck.
	for i := 0; i < 50; i += 2 {
		e, ok := s.EraseID(box.ID{OwnerRank: 0, LocalID: int64(i)})
		if !ok {
			t.Fatalf("expected to find id %d", i)
		}
		naive -= e.Load
	}
	if s.SumLoad() != naive {
		t.Fatalf("SumLoad() after erase = %v, want %v", s.SumLoad(), naive)
	}
}

func TestInsertDuplicateIsLogicBug(t *testing.T) {
	s := New()
	must(t, s.Insert(entry(0, 1, 5)))
	err := s.Insert(entry(0, 1, 99))
	if err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}
	var be *balerr.Error
	if e, ok := err.(*balerr.Error); ok {
		be = e
	}
	if be == nil || !be.Is(balerr.FlagLogic) {
		t.Fatalf("expected a FlagLogic error, got %v", err)
	}
	// The set must be unchanged.
	if s.Size() != 1 || s.SumLoad() != 5 {
		t.Fatalf("set was mutated by failed insert: size=%d sum=%v", s.Size(), s.SumLoad())
	}
}

func TestInsertRangeStopsOnDuplicate(t *testing.T) {
	s := New()
	es := []BoxInTransit{entry(0, 1, 5), entry(0, 2, 6), entry(0, 1, 7)}
	if err := s.InsertRange(es); err == nil {
		t.Fatalf("expected InsertRange to fail on duplicate")
	}
}

func TestPopFrontIsHighestLoad(t *testing.T) {
	s := New()
	must(t, s.Insert(entry(0, 1, 5)))
	must(t, s.Insert(entry(0, 2, 50)))
	must(t, s.Insert(entry(0, 3, 25)))

	e, ok := s.PopFront()
	if !ok || e.Load != 50 {
		t.Fatalf("PopFront() = %+v, want load 50", e)
	}
	if s.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", s.Size())
	}
}

func TestSwap(t *testing.T) {
	a, b := New(), New()
	must(t, a.Insert(entry(0, 1, 1)))
	must(t, b.Insert(entry(0, 2, 2)))
	must(t, b.Insert(entry(0, 3, 3)))

	a.Swap(b)
	if a.Size() != 2 || b.Size() != 1 {
		t.Fatalf("Swap did not exchange contents: a=%d b=%d", a.Size(), b.Size())
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
