package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ryogrid-labs/storagecore/storage/disk"
)

func managers(t *testing.T) map[string]func() (disk.Manager, func()) {
	return map[string]func() (disk.Manager, func()){
		"file": func() (disk.Manager, func()) {
			dir := t.TempDir()
			return disk.NewFileManager(), func() { _ = dir }
		},
		"mem": func() (disk.Manager, func()) {
			return disk.NewMemManager(), func() {}
		},
	}
}

func testPath(t *testing.T, name string) string {
	if name == "file" {
		return filepath.Join(t.TempDir(), "test.db")
	}
	return "test.db"
}

func TestCreateOpenCloseDestroy(t *testing.T) {
	for name, factory := range managers(t) {
		t.Run(name, func(t *testing.T) {
			m, cleanup := factory()
			defer cleanup()
			path := testPath(t, name)

			if err := m.CreateFile(path); err != nil {
				t.Fatalf("CreateFile: %v", err)
			}
			if err := m.CreateFile(path); err == nil {
				t.Fatalf("expected error creating existing file")
			}
			if !m.IsFile(path) {
				t.Fatalf("IsFile should report true after CreateFile")
			}

			fd, err := m.OpenFile(path)
			if err != nil {
				t.Fatalf("OpenFile: %v", err)
			}
			if _, err := m.OpenFile(path); err == nil {
				t.Fatalf("expected error re-opening already-open file")
			}
			if err := m.DestroyFile(path); err == nil {
				t.Fatalf("expected error destroying open file")
			}

			got, err := m.GetFileName(fd)
			if err != nil || got != path {
				t.Fatalf("GetFileName: got %q, %v", got, err)
			}

			if err := m.CloseFile(fd); err != nil {
				t.Fatalf("CloseFile: %v", err)
			}
			if err := m.CloseFile(fd); err == nil {
				t.Fatalf("expected error closing already-closed fd")
			}
			if err := m.DestroyFile(path); err != nil {
				t.Fatalf("DestroyFile: %v", err)
			}
		})
	}
}

func TestReadWritePageRoundTrip(t *testing.T) {
	for name, factory := range managers(t) {
		t.Run(name, func(t *testing.T) {
			m, cleanup := factory()
			defer cleanup()
			path := testPath(t, name)

			if err := m.CreateFile(path); err != nil {
				t.Fatalf("CreateFile: %v", err)
			}
			fd, err := m.OpenFile(path)
			if err != nil {
				t.Fatalf("OpenFile: %v", err)
			}

			want := make([]byte, 4096)
			for i := range want {
				want[i] = byte(i % 251)
			}
			if err := m.WritePage(fd, 3, want); err != nil {
				t.Fatalf("WritePage: %v", err)
			}

			got := make([]byte, 4096)
			if err := m.ReadPage(fd, 3, got); err != nil {
				t.Fatalf("ReadPage: %v", err)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("byte %d: got %d want %d", i, got[i], want[i])
				}
			}
		})
	}
}

func TestAllocatePageIsMonotonic(t *testing.T) {
	for name, factory := range managers(t) {
		t.Run(name, func(t *testing.T) {
			m, cleanup := factory()
			defer cleanup()
			path := testPath(t, name)
			if err := m.CreateFile(path); err != nil {
				t.Fatalf("CreateFile: %v", err)
			}
			fd, err := m.OpenFile(path)
			if err != nil {
				t.Fatalf("OpenFile: %v", err)
			}
			for i := int32(0); i < 5; i++ {
				got, err := m.AllocatePage(fd)
				if err != nil {
					t.Fatalf("AllocatePage: %v", err)
				}
				if got != i {
					t.Fatalf("AllocatePage %d: got %d", i, got)
				}
			}
		})
	}
}

func TestLogAppendAndRead(t *testing.T) {
	for name, factory := range managers(t) {
		t.Run(name, func(t *testing.T) {
			m, cleanup := factory()
			defer cleanup()
			if name == "file" {
				dir := t.TempDir()
				wd, _ := os.Getwd()
				defer os.Chdir(wd)
				os.Chdir(dir)
			}

			if err := m.WriteLog([]byte("hello ")); err != nil {
				t.Fatalf("WriteLog: %v", err)
			}
			if err := m.WriteLog([]byte("world")); err != nil {
				t.Fatalf("WriteLog: %v", err)
			}

			buf := make([]byte, 11)
			n, err := m.ReadLog(buf, 0)
			if err != nil {
				t.Fatalf("ReadLog: %v", err)
			}
			if string(buf[:n]) != "hello world" {
				t.Fatalf("ReadLog: got %q", buf[:n])
			}

			n, err = m.ReadLog(buf, 100)
			if err != nil {
				t.Fatalf("ReadLog past EOF: %v", err)
			}
			if n != -1 {
				t.Fatalf("ReadLog past EOF: got n=%d, want -1", n)
			}
		})
	}
}
