package pool

import (
	"testing"

	"github.com/symvm/symvm/internal/pointer"
)

func TestMakeReadWrite(t *testing.T) {
	p := New(0)
	ptr, err := p.Make(16, pointer.Heap)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Write(ptr, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	got, err := p.Read(ptr, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Read = %v, want %v", got, want)
		}
	}
}

func TestPointerBitmapCoherence(t *testing.T) {
	p := New(0)
	a, _ := p.Make(16, pointer.Heap)
	b, _ := p.Make(8, pointer.Heap)

	if err := p.WritePointer(a, b); err != nil {
		t.Fatal(err)
	}
	isPtr, err := p.IsPointerSlot(a)
	if err != nil || !isPtr {
		t.Fatalf("IsPointerSlot after WritePointer = %v, %v", isPtr, err)
	}

	// Overwriting with a plain Write must clear the bit (invariant I1).
	if err := p.Write(a, 8, make([]byte, 8)); err != nil {
		t.Fatal(err)
	}
	isPtr, err = p.IsPointerSlot(a)
	if err != nil || isPtr {
		t.Fatalf("IsPointerSlot after overwrite = %v, %v, want false", isPtr, err)
	}
}

func TestFreeFaults(t *testing.T) {
	p := New(0)
	ptr, _ := p.Make(8, pointer.Heap)
	if err := p.Free(ptr); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Read(ptr, 1); err != ErrUseAfterFree {
		t.Fatalf("Read after Free = %v, want ErrUseAfterFree", err)
	}
}

func TestOutOfBounds(t *testing.T) {
	p := New(0)
	ptr, _ := p.Make(4, pointer.Heap)
	if _, err := p.Read(ptr.WithOffset(1), 4); err != ErrOutOfBounds {
		t.Fatalf("Read OOB = %v, want ErrOutOfBounds", err)
	}
}

func TestMakeZeroSizeFaults(t *testing.T) {
	// B2: obj_make(0) returns a pointer whose dereference faults with Memory.
	p := New(0)
	ptr, err := p.Make(0, pointer.Heap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Read(ptr, 1); err != ErrOutOfBounds {
		t.Fatalf("Read of zero-size object = %v, want ErrOutOfBounds", err)
	}
}

func TestOOMLimit(t *testing.T) {
	p := New(1)
	if _, err := p.Make(1, pointer.Heap); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Make(1, pointer.Heap); err != ErrOOM {
		t.Fatalf("Make beyond cap = %v, want ErrOOM", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := New(0)
	ptr, _ := p.Make(4, pointer.Heap)
	c := p.Clone()
	if err := c.Write(ptr, 4, []byte{9, 9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	orig, _ := p.Read(ptr, 4)
	for _, b := range orig {
		if b != 0 {
			t.Fatalf("original pool mutated after clone write: %v", orig)
		}
	}
}

func TestRenumber(t *testing.T) {
	p := New(0)
	a, _ := p.Make(4, pointer.Heap)
	b, _ := p.Make(4, pointer.Heap)
	mapping := map[uint64]uint64{a.ID(): 5, b.ID(): 6}
	if err := p.Renumber(mapping); err != nil {
		t.Fatal(err)
	}
	if !p.Valid(pointer.New(5, 0, pointer.Heap)) {
		t.Fatalf("object not found at renumbered id 5")
	}
	if !p.Valid(pointer.New(6, 0, pointer.Heap)) {
		t.Fatalf("object not found at renumbered id 6")
	}
}
