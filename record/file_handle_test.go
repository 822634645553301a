package record_test

import (
	"testing"

	"github.com/ryogrid-labs/storagecore/record"
	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

func openTestFile(t *testing.T, recordSize int32, poolSize uint32) (*record.FileHandle, disk.Manager) {
	t.Helper()
	dm := disk.NewMemManager()
	if err := record.CreateFile(dm, "t.rf", recordSize); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	bpm := buffer.NewPoolManager(poolSize, dm)
	fh, err := record.OpenFile(dm, bpm, "t.rf")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return fh, dm
}

func pattern(i int) []byte {
	return []byte{byte(i >> 8), byte(i)}
}

// TestSlottedInsertAndScan inserts 500 ascending 8-byte-pattern
// records and scans them back in order, then checks that deleting a
// few makes a fresh scan skip them.
func TestSlottedInsertAndScan(t *testing.T) {
	fh, _ := openTestFile(t, 8, 16)

	rids := make([]record.Rid, 0, 500)
	for i := 0; i < 500; i++ {
		buf := make([]byte, 8)
		copy(buf, pattern(i))
		rid, err := fh.InsertRecord(buf)
		if err != nil {
			t.Fatalf("InsertRecord %d: %v", i, err)
		}
		rids = append(rids, rid)
	}

	scan := record.NewScan(fh)
	count := 0
	for !scan.IsEnd() {
		rid := scan.Rid()
		buf, err := fh.GetRecord(rid)
		if err != nil {
			t.Fatalf("GetRecord at rid %v: %v", rid, err)
		}
		want := pattern(count)
		if buf[0] != want[0] || buf[1] != want[1] {
			t.Fatalf("record %d: got %v want prefix %v", count, buf, want)
		}
		count++
		scan.Next()
	}
	if count != 500 {
		t.Fatalf("scan visited %d records, want 500", count)
	}

	// Delete slots 0, 2, 4 of page 1 (the first three inserted records
	// live there, since page 1 fills before any records spill over).
	for _, idx := range []int{0, 2, 4} {
		if err := fh.DeleteRecord(rids[idx]); err != nil {
			t.Fatalf("DeleteRecord %d: %v", idx, err)
		}
	}

	scan2 := record.NewScan(fh)
	count2 := 0
	for !scan2.IsEnd() {
		count2++
		scan2.Next()
	}
	if count2 != 497 {
		t.Fatalf("scan after delete visited %d records, want 497", count2)
	}
}

// TestFreeChainMaintenance checks that filling page 1 pops it from
// the free chain onto a fresh page, and that deleting one record from
// page 1 re-links it at the chain's head.
func TestFreeChainMaintenance(t *testing.T) {
	fh, _ := openTestFile(t, 8, 16)

	n := int(fh.NumRecordsPerPage())
	rids := make([]record.Rid, 0, n)
	for i := 0; i < n; i++ {
		rid, err := fh.InsertRecord(pattern(i))
		if err != nil {
			t.Fatalf("InsertRecord %d: %v", i, err)
		}
		rids = append(rids, rid)
	}
	if rids[0].PageNo != 1 {
		t.Fatalf("expected all records to land on page 1 until full, got page %d", rids[0].PageNo)
	}

	// Page 1 is now full; the next insert must land on a new page.
	overflowRid, err := fh.InsertRecord(pattern(n))
	if err != nil {
		t.Fatalf("InsertRecord overflow: %v", err)
	}
	if overflowRid.PageNo == 1 {
		t.Fatalf("page 1 should be full and off the free chain")
	}

	if err := fh.DeleteRecord(rids[0]); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	// Deleting from page 1 must re-link it at the head of the free
	// chain: the next insert should land back on page 1.
	rid, err := fh.InsertRecord(pattern(0))
	if err != nil {
		t.Fatalf("InsertRecord after delete: %v", err)
	}
	if rid.PageNo != 1 {
		t.Fatalf("expected re-insert onto page 1, got page %d", rid.PageNo)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	fh, _ := openTestFile(t, 8, 4)
	rid, err := fh.InsertRecord(pattern(1))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := fh.DeleteRecord(rid); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := fh.GetRecord(rid); err == nil {
		t.Fatalf("expected error getting deleted record")
	}
}

func TestInsertRecordAtOccupiesFreeSlot(t *testing.T) {
	fh, _ := openTestFile(t, 8, 4)
	// Page 1 must exist before a slot on it can be targeted: the first
	// InsertRecord creates it and fills slot 0, leaving slot 3 free.
	if _, err := fh.InsertRecord(pattern(1)); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	rid := record.Rid{PageNo: 1, SlotNo: 3}
	if err := fh.InsertRecordAt(rid, pattern(9)); err != nil {
		t.Fatalf("InsertRecordAt: %v", err)
	}
	buf, err := fh.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if buf[1] != 9 {
		t.Fatalf("GetRecord: got %v", buf)
	}
}
