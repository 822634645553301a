package buffer_test

import (
	"testing"

	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

func newPool(t *testing.T, poolSize uint32) (*buffer.PoolManager, disk.Manager, int32) {
	t.Helper()
	dm := disk.NewMemManager()
	if err := dm.CreateFile("t.rf"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	fd, err := dm.OpenFile("t.rf")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return buffer.NewPoolManager(poolSize, dm), dm, fd
}

func TestNewPageAndFetchRoundTrip(t *testing.T) {
	bpm, _, fd := newPool(t, 3)

	fr, id, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	fr.Data()[0] = 42
	if err := bpm.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	got, err := bpm.FetchPage(id)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got.Data()[0] != 42 {
		t.Fatalf("FetchPage: got byte %d want 42", got.Data()[0])
	}
	if err := bpm.UnpinPage(id, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
}

// TestEvictionPicksLeastRecentlyUnpinned exercises the pool at
// capacity: with every frame occupied and unpinned, the next NewPage
// must evict the least recently unpinned page, not an arbitrary one.
func TestEvictionPicksLeastRecentlyUnpinned(t *testing.T) {
	bpm, _, fd := newPool(t, 2)

	_, id1, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage 1: %v", err)
	}
	if err := bpm.UnpinPage(id1, false); err != nil {
		t.Fatalf("UnpinPage 1: %v", err)
	}

	_, id2, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage 2: %v", err)
	}
	if err := bpm.UnpinPage(id2, false); err != nil {
		t.Fatalf("UnpinPage 2: %v", err)
	}

	// Pool is full and both pages unpinned; id1 is LRU. A third
	// NewPage must evict id1 and leave id2 resident. id2 was never
	// written to disk, so FetchPage(id2) only succeeds if it is still
	// in the pool.
	_, id3, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage 3 should evict id1: %v", err)
	}
	defer bpm.UnpinPage(id3, false)

	if _, err := bpm.FetchPage(id2); err != nil {
		t.Fatalf("id2 should still be resident: %v", err)
	}
	bpm.UnpinPage(id2, false)
}

func TestDeletePageFailsWhilePinned(t *testing.T) {
	bpm, _, fd := newPool(t, 2)

	_, id, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := bpm.DeletePage(id); err == nil {
		t.Fatalf("expected DeletePage to fail while pinned")
	}
	if err := bpm.UnpinPage(id, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := bpm.DeletePage(id); err != nil {
		t.Fatalf("DeletePage after unpin: %v", err)
	}
}

func TestFlushWritesDirtyDataToDisk(t *testing.T) {
	bpm, dm, fd := newPool(t, 2)

	fr, id, err := bpm.NewPage(fd)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	fr.Data()[10] = 7
	if err := bpm.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := bpm.FlushPage(id); err != nil {
		t.Fatalf("FlushPage: %v", err)
	}

	raw := make([]byte, 4096)
	if err := dm.ReadPage(fd, id.PageNo, raw); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if raw[10] != 7 {
		t.Fatalf("byte 10: got %d want 7", raw[10])
	}
}

func TestFlushAllPagesOnlyTouchesGivenFd(t *testing.T) {
	bpm, dm, fd := newPool(t, 4)
	if err := dm.CreateFile("other.rf"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	otherFd, err := dm.OpenFile("other.rf")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	_, id1, _ := bpm.NewPage(fd)
	bpm.UnpinPage(id1, true)
	_, id2, _ := bpm.NewPage(otherFd)
	bpm.UnpinPage(id2, true)

	if err := bpm.FlushAllPages(fd); err != nil {
		t.Fatalf("FlushAllPages: %v", err)
	}

	fr2, err := bpm.FetchPage(id2)
	if err != nil {
		t.Fatalf("FetchPage id2: %v", err)
	}
	if !fr2.IsDirty() {
		t.Fatalf("id2 should still be dirty; FlushAllPages(fd) touched the wrong file")
	}
}
