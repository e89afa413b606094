package handle

import (
	"errors"
	"testing"
)

type swapchainKind struct{}

func (swapchainKind) kind() {}

func TestTable_InsertGet(t *testing.T) {
	tbl := NewTable[string, swapchainKind]()

	h := tbl.Insert("left-eye")
	got, err := tbl.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "left-eye" {
		t.Errorf("Get() = %q, want %q", got, "left-eye")
	}
}

func TestTable_ZeroHandleInvalid(t *testing.T) {
	tbl := NewTable[string, swapchainKind]()
	var zero Handle[swapchainKind]

	if _, err := tbl.Get(zero); !errors.Is(err, ErrInvalid) {
		t.Errorf("Get(zero) error = %v, want ErrInvalid", err)
	}
}

func TestTable_StaleAfterRemove(t *testing.T) {
	tbl := NewTable[string, swapchainKind]()

	h := tbl.Insert("a")
	if _, err := tbl.Remove(h); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// Recycle the slot with a new item; the old handle must not resolve
	// to it (this is the whole point of epoch tracking).
	h2 := tbl.Insert("b")
	if h2.Index() != h.Index() {
		t.Fatalf("expected slot reuse: got index %d, want %d", h2.Index(), h.Index())
	}

	if _, err := tbl.Get(h); !errors.Is(err, ErrStale) {
		t.Errorf("Get(stale handle) error = %v, want ErrStale", err)
	}
	got, err := tbl.Get(h2)
	if err != nil || got != "b" {
		t.Errorf("Get(h2) = (%q, %v), want (\"b\", nil)", got, err)
	}
}

func TestTable_NotFound(t *testing.T) {
	tbl := NewTable[string, swapchainKind]()
	fake := New[swapchainKind](7, 1)
	if _, err := tbl.Get(fake); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(never-inserted) error = %v, want ErrNotFound", err)
	}
}

func TestTable_MutateAndForEach(t *testing.T) {
	tbl := NewTable[int, swapchainKind]()
	h1 := tbl.Insert(1)
	h2 := tbl.Insert(2)

	if err := tbl.Mutate(h1, func(v *int) { *v += 100 }); err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	sum := 0
	tbl.ForEach(func(_ Handle[swapchainKind], v int) bool {
		sum += v
		return true
	})
	if sum != 101+2 {
		t.Errorf("sum after mutate = %d, want %d", sum, 103)
	}

	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
	_ = h2
}

func TestTable_ForEachStopsEarly(t *testing.T) {
	tbl := NewTable[int, swapchainKind]()
	for i := 0; i < 5; i++ {
		tbl.Insert(i)
	}

	seen := 0
	tbl.ForEach(func(_ Handle[swapchainKind], _ int) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Errorf("ForEach visited %d entries, want 2 (early stop)", seen)
	}
}
