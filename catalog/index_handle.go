package catalog

import (
	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
	"github.com/ryogrid-labs/storagecore/record"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

// IndexHandle is the opaque collaborator create_index's backfill loop
// drives. Real B+tree index internals are out of scope; this interface
// is the seam a future index implementation would plug into.
type IndexHandle interface {
	Insert(key []byte, rid record.Rid) error
	Lookup(key []byte) (record.Rid, bool)
	Close() error
}

// FlatIndexHandle is the only IndexHandle shipped here: entries are
// appended one per page on an ordinary disk-manager file, and mirrored
// in an in-memory map for lookup. It exists so create_index/drop_index
// have something concrete to open, close, and destroy end to end, and
// so the backfilled key -> rid mapping is actually queryable, without
// building real B+tree index internals.
type FlatIndexHandle struct {
	dm      disk.Manager
	fd      int32
	entries map[string]record.Rid
}

// CreateIndexFile creates an empty flat index file at path.
func CreateIndexFile(dm disk.Manager, path string) error {
	return dm.CreateFile(path)
}

// OpenIndexFile opens path as a FlatIndexHandle, replaying its pages to
// rebuild the in-memory lookup map. Pages are allocated densely from 0
// by AllocatePage, so replay reads page_no 0, 1, 2, ... and stops at
// the first ReadPage failure, which is how the disk manager reports
// running past the end of the file.
func OpenIndexFile(dm disk.Manager, path string) (*FlatIndexHandle, error) {
	fd, err := dm.GetFileFd(path)
	if err != nil {
		return nil, err
	}
	h := &FlatIndexHandle{dm: dm, fd: fd, entries: make(map[string]record.Rid)}
	buf := make([]byte, common.PageSize)
	for pageNo := int32(0); ; pageNo++ {
		if err := dm.ReadPage(fd, pageNo, buf); err != nil {
			break
		}
		key, rid := decodeEntry(buf)
		h.entries[key] = rid
	}
	return h, nil
}

// decodeEntry unpacks one page written by Insert into its key and rid.
func decodeEntry(buf []byte) (string, record.Rid) {
	keyLen := getInt32(buf[0:4])
	rid := record.Rid{PageNo: getInt32(buf[4:8]), SlotNo: getInt32(buf[8:12])}
	key := string(buf[entryHeaderSize : entryHeaderSize+keyLen])
	return key, rid
}

// entryHeaderSize is keyLen(4) + PageNo(4) + SlotNo(4) preceding the key
// bytes in each entry's page.
const entryHeaderSize = 12

// Insert appends (key, rid) as one page and records it for Lookup.
func (h *FlatIndexHandle) Insert(key []byte, rid record.Rid) error {
	if entryHeaderSize+len(key) > common.PageSize {
		return errs.New("catalog.Insert", errs.ErrInternal)
	}
	pageNo, err := h.dm.AllocatePage(h.fd)
	if err != nil {
		return err
	}
	buf := make([]byte, common.PageSize)
	putInt32(buf[0:4], int32(len(key)))
	putInt32(buf[4:8], rid.PageNo)
	putInt32(buf[8:12], rid.SlotNo)
	copy(buf[entryHeaderSize:], key)
	if err := h.dm.WritePage(h.fd, pageNo, buf); err != nil {
		return err
	}
	h.entries[string(key)] = rid
	return nil
}

// Lookup returns the rid keyed by key, if backfilled or inserted.
func (h *FlatIndexHandle) Lookup(key []byte) (record.Rid, bool) {
	rid, ok := h.entries[string(key)]
	return rid, ok
}

// Close closes the underlying fd, allowing the catalog to destroy the
// file afterward.
func (h *FlatIndexHandle) Close() error {
	return h.dm.CloseFile(h.fd)
}

func putInt32(buf []byte, v int32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func getInt32(buf []byte) int32 {
	return int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
}
