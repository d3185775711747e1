package pointer

import "testing"

func TestPackUnpack(t *testing.T) {
	cases := []struct {
		id     uint64
		offset int64
		tag    Tag
	}{
		{0, 0, Heap},
		{1, 16, Global},
		{1<<30 + 7, 4096, Weak},
	}
	for _, c := range cases {
		p := New(c.id, c.offset, c.tag)
		if got := p.ID(); got != c.id {
			t.Errorf("New(%d,%d,%v).ID() = %d, want %d", c.id, c.offset, c.tag, got, c.id)
		}
		if got := p.Offset(); got != c.offset {
			t.Errorf("New(%d,%d,%v).Offset() = %d, want %d", c.id, c.offset, c.tag, got, c.offset)
		}
		if got := p.Tag(); got != c.tag {
			t.Errorf("New(%d,%d,%v).Tag() = %v, want %v", c.id, c.offset, c.tag, got, c.tag)
		}
	}
}

func TestNullIsZero(t *testing.T) {
	if Null != 0 {
		t.Fatalf("Null = %d, want 0", Null)
	}
	if !Null.IsNull() {
		t.Fatalf("Null.IsNull() = false")
	}
	if New(1, 0, Heap).IsNull() {
		t.Fatalf("non-null pointer reported as null")
	}
}

func TestWithOffsetAndTag(t *testing.T) {
	p := New(5, 8, Heap)
	p2 := p.WithOffset(4)
	if p2.ID() != 5 || p2.Offset() != 12 || p2.Tag() != Heap {
		t.Fatalf("WithOffset: got %v", p2)
	}
	p3 := p.WithTag(Weak)
	if p3.ID() != 5 || p3.Offset() != 8 || p3.Tag() != Weak {
		t.Fatalf("WithTag: got %v", p3)
	}
}
