package buffer

import "testing"

func TestLRUReplacerVictimOrder(t *testing.T) {
	r := NewLRUReplacer(7)
	for _, id := range []FrameID{1, 2, 3, 4, 5} {
		r.Unpin(id)
	}
	r.Pin(3)
	r.Pin(4)
	r.Unpin(4)

	if got := r.Size(); got != 4 {
		t.Fatalf("Size: got %d want 4", got)
	}

	wantOrder := []FrameID{1, 2, 5, 4}
	for _, want := range wantOrder {
		got := r.Victim()
		if got == nil || *got != want {
			t.Fatalf("Victim: got %v want %d", got, want)
		}
	}
	if got := r.Victim(); got != nil {
		t.Fatalf("Victim on empty replacer: got %v want nil", got)
	}
}

func TestLRUReplacerUnpinIsIdempotent(t *testing.T) {
	r := NewLRUReplacer(3)
	r.Unpin(1)
	r.Unpin(1)
	if got := r.Size(); got != 1 {
		t.Fatalf("Size after double Unpin: got %d want 1", got)
	}
}
