package core

import "testing"

func TestGrowableBuffer_NoGrowWithinCapacity(t *testing.T) {
	buf := NewGrowableBuffer[string](4)
	for i := 0; i < 4; i++ {
		buf.Append("x")
	}
	if got := buf.Grows(); got != 0 {
		t.Errorf("Grows = %d, want 0", got)
	}
	if got := len(buf.Finalize()); got != 4 {
		t.Errorf("Finalize length = %d, want 4", got)
	}
}

func TestGrowableBuffer_GrowsByFixedStep(t *testing.T) {
	buf := NewGrowableBuffer[int](2)
	for i := 0; i < 3; i++ {
		buf.Append(i)
	}
	if got := buf.Grows(); got != 1 {
		t.Errorf("Grows = %d, want 1", got)
	}
	if got := buf.Cap(); got != 2+GrowBy {
		t.Errorf("Cap = %d, want %d", got, 2+GrowBy)
	}

	got := buf.Finalize()
	for i, v := range got {
		if v != i {
			t.Errorf("item %d = %d, want %d", i, v, i)
		}
	}
}

func TestGrowableBuffer_FinalizeResets(t *testing.T) {
	buf := NewGrowableBuffer[string](0)
	if got := buf.Cap(); got != GrowBy {
		t.Fatalf("default Cap = %d, want %d", got, GrowBy)
	}

	buf.Append("a")
	buf.Append("b")
	first := buf.Finalize()
	if len(first) != 2 {
		t.Fatalf("first Finalize length = %d, want 2", len(first))
	}
	if buf.Len() != 0 {
		t.Errorf("Len after Finalize = %d, want 0", buf.Len())
	}

	buf.Append("c")
	second := buf.Finalize()
	if len(second) != 1 || second[0] != "c" {
		t.Errorf("second Finalize = %v, want [c]", second)
	}

	// Appending to a finalized slice must not write into the buffer.
	grown := append(second, "d")
	buf.Append("e")
	if grown[0] != "c" || grown[1] != "d" {
		t.Errorf("grown = %v, want [c d]", grown)
	}
	if got := buf.Finalize(); got[0] != "e" {
		t.Errorf("buffer item = %q, want e", got[0])
	}
}

func TestGrowableBuffer_Reset(t *testing.T) {
	buf := NewGrowableBuffer[int](3)
	buf.Append(1)
	buf.Append(2)
	buf.Reset()
	if buf.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", buf.Len())
	}
	if got := buf.Finalize(); len(got) != 0 {
		t.Errorf("Finalize after Reset = %v, want empty", got)
	}
}

func BenchmarkGrowableBuffer_StableWidth(b *testing.B) {
	buf := NewGrowableBuffer[string](GrowBy)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 25; j++ {
			buf.Append("field")
		}
		_ = buf.Finalize()
	}
}
