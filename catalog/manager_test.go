package catalog_test

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/ryogrid-labs/storagecore/catalog"
	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func newManager() *catalog.Manager {
	dm := disk.NewFileManager()
	bpm := buffer.NewPoolManager(32, dm)
	return catalog.NewManager(dm, bpm)
}

// TestCatalogPersistenceRoundTrip checks that a table and an index on
// it survive a CloseDatabase/OpenDatabase cycle under a fresh Manager.
func TestCatalogPersistenceRoundTrip(t *testing.T) {
	chdirTemp(t)
	m := newManager()

	if err := m.CreateDatabase("d"); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if err := m.OpenDatabase("d"); err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	if err := m.CreateTable("t", []catalog.ColDef{
		{Name: "a", Type: 1, Len: 4},
		{Name: "b", Type: 1, Len: 4},
	}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := m.CreateIndex("t", []string{"a"}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := m.CloseDatabase(); err != nil {
		t.Fatalf("CloseDatabase: %v", err)
	}

	m2 := newManager()
	if err := m2.OpenDatabase("d"); err != nil {
		t.Fatalf("re-OpenDatabase: %v", err)
	}
	defer m2.CloseDatabase()

	cols, err := m2.DescTable("t")
	if err != nil {
		t.Fatalf("DescTable: %v", err)
	}
	if len(cols) != 2 || cols[0].Name != "a" || cols[1].Name != "b" {
		t.Fatalf("DescTable: got %+v", cols)
	}
	if !cols[0].Index {
		t.Fatalf("column a should be marked indexed after reload")
	}

	indexes, err := m2.ShowIndexes("t")
	if err != nil {
		t.Fatalf("ShowIndexes: %v", err)
	}
	found := false
	for _, name := range indexes {
		if name == "t_a.idx" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ShowIndexes: got %v, want t_a.idx present", indexes)
	}
}

// TestIndexBackfill checks that CreateIndex on a table with existing
// rows backfills every row into the new index.
func TestIndexBackfill(t *testing.T) {
	chdirTemp(t)
	m := newManager()

	if err := m.CreateDatabase("d"); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if err := m.OpenDatabase("d"); err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	defer m.CloseDatabase()

	if err := m.CreateTable("t", []catalog.ColDef{{Name: "a", Type: 1, Len: 4}}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	const n = 1000
	for i := 0; i < n; i++ {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(i))
		if _, err := m.InsertRecord("t", buf); err != nil {
			t.Fatalf("InsertRecord %d: %v", i, err)
		}
	}

	if err := m.CreateIndex("t", []string{"a"}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	for i := 0; i < n; i++ {
		key := make([]byte, 4)
		binary.LittleEndian.PutUint32(key, uint32(i))
		rid, ok, err := m.Lookup("t", "t_a.idx", key)
		if err != nil {
			t.Fatalf("Lookup %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Lookup %d: key not found in index", i)
		}
		got, err := m.GetRecord("t", rid)
		if err != nil {
			t.Fatalf("GetRecord %d: %v", i, err)
		}
		if binary.LittleEndian.Uint32(got) != uint32(i) {
			t.Fatalf("resolved rid holds wrong record: got %d want %d", binary.LittleEndian.Uint32(got), i)
		}
	}
}
