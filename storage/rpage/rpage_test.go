package rpage_test

import (
	"testing"

	"github.com/ryogrid-labs/storagecore/storage/rpage"
)

func TestBitmapFirstAndNextBit(t *testing.T) {
	bm := make(rpage.Bitmap, 2)
	rpage.Init(bm)
	rpage.Set(bm, 3)
	rpage.Set(bm, 9)

	if got := rpage.FirstBit(true, bm, 16); got != 3 {
		t.Fatalf("FirstBit(true): got %d want 3", got)
	}
	if got := rpage.NextBit(true, bm, 16, 3); got != 9 {
		t.Fatalf("NextBit(true, from=3): got %d want 9", got)
	}
	if got := rpage.NextBit(true, bm, 16, 9); got != 16 {
		t.Fatalf("NextBit(true, from=9): got %d want 16 (none left)", got)
	}
	if got := rpage.FirstBit(false, bm, 16); got != 0 {
		t.Fatalf("FirstBit(false): got %d want 0", got)
	}

	rpage.Reset(bm, 3)
	if rpage.IsSet(bm, 3) {
		t.Fatalf("bit 3 should be clear after Reset")
	}
	if got := rpage.Popcount(bm, 16); got != 1 {
		t.Fatalf("Popcount: got %d want 1", got)
	}
}

func TestComputeLayoutFitsPageSize(t *testing.T) {
	n, bitmapSize := rpage.ComputeLayout(8, 4096)
	if n <= 0 {
		t.Fatalf("ComputeLayout: got n=%d, want > 0", n)
	}
	used := 8 /* PageHdr */ + bitmapSize + n*8
	if used > 4096 {
		t.Fatalf("layout overflows page: used=%d", used)
	}
	// one more slot must not fit, or ComputeLayout under-allocated
	nextBitmap := (n + 1 + 7) / 8
	if 8+nextBitmap+(n+1)*8 <= 4096 {
		t.Fatalf("ComputeLayout left room for one more slot (n=%d)", n)
	}
}

func TestFileHdrRoundTrip(t *testing.T) {
	h := rpage.FileHdr{RecordSize: 8, NumRecordsPerPage: 100, BitmapSize: 13, FirstFreePageNo: -1, NumPages: 1}
	buf := make([]byte, 64)
	rpage.EncodeFileHdr(h, buf)
	got := rpage.DecodeFileHdr(buf)
	if got != h {
		t.Fatalf("FileHdr round trip: got %+v want %+v", got, h)
	}
}
