package record

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
	"github.com/ryogrid-labs/storagecore/storage/rpage"
	"github.com/ryogrid-labs/storagecore/types"
)

// FileHandle is an open record file: a header page plus a chain of
// data pages, backed by the buffer pool. All mutations to fileHdr take
// mu: num_pages/first_free_page_no are serialized under a latch while
// individual pages otherwise progress independently.
type FileHandle struct {
	mu deadlock.Mutex

	fd      int32
	dm      disk.Manager
	bpm     *buffer.PoolManager
	fileHdr rpage.FileHdr
}

// CreateFile creates path as a fresh record file for records of
// recordSize bytes: allocates page 0, computes the slot layout, and
// writes the header.
func CreateFile(dm disk.Manager, path string, recordSize int32) error {
	if err := dm.CreateFile(path); err != nil {
		return err
	}
	fd, err := dm.OpenFile(path)
	if err != nil {
		return err
	}
	defer dm.CloseFile(fd)

	numRecordsPerPage, bitmapSize := rpage.ComputeLayout(int(recordSize), common.PageSize)
	hdr := rpage.FileHdr{
		RecordSize:        recordSize,
		NumRecordsPerPage: int32(numRecordsPerPage),
		BitmapSize:        int32(bitmapSize),
		FirstFreePageNo:   common.RMNoPage,
		NumPages:          1,
	}
	buf := make([]byte, common.PageSize)
	rpage.EncodeFileHdr(hdr, buf)
	if err := dm.WritePage(fd, 0, buf); err != nil {
		return err
	}
	return nil
}

// OpenFile opens an existing record file for CRUD/scan through bpm.
func OpenFile(dm disk.Manager, bpm *buffer.PoolManager, path string) (*FileHandle, error) {
	fd, err := dm.GetFileFd(path)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, common.PageSize)
	if err := dm.ReadPage(fd, 0, buf); err != nil {
		return nil, err
	}
	return &FileHandle{fd: fd, dm: dm, bpm: bpm, fileHdr: rpage.DecodeFileHdr(buf)}, nil
}

// Close writes back the file header and flushes every resident page.
func (h *FileHandle) Close() error {
	h.mu.Lock()
	buf := make([]byte, common.PageSize)
	rpage.EncodeFileHdr(h.fileHdr, buf)
	err := h.dm.WritePage(h.fd, 0, buf)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	return h.bpm.FlushAllPages(h.fd)
}

// Fd returns the file descriptor the handle was opened with.
func (h *FileHandle) Fd() int32 { return h.fd }

// RecordSize returns the fixed record size of every slot.
func (h *FileHandle) RecordSize() int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fileHdr.RecordSize
}

// NumRecordsPerPage returns how many slots a data page holds.
func (h *FileHandle) NumRecordsPerPage() int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fileHdr.NumRecordsPerPage
}

// NumPages returns the current page count, including the header page.
func (h *FileHandle) NumPages() int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fileHdr.NumPages
}

func (h *FileHandle) pageID(pageNo int32) types.PageID {
	return types.NewPageID(h.fd, pageNo)
}

func (h *FileHandle) fetchPageHandle(pageNo int32) (rpage.Handle, error) {
	h.mu.Lock()
	hdr := h.fileHdr
	valid := pageNo >= 0 && pageNo < h.fileHdr.NumPages
	h.mu.Unlock()
	if !valid {
		return rpage.Handle{}, errs.New("record.fetchPageHandle", errs.ErrPageNotExist).WithFd(h.fd).WithPage(pageNo)
	}
	fr, err := h.bpm.FetchPage(h.pageID(pageNo))
	if err != nil {
		return rpage.Handle{}, errs.New("record.fetchPageHandle", errs.ErrPageNotExist).WithFd(h.fd).WithPage(pageNo).WithErr(err)
	}
	return rpage.NewHandle(fr, hdr), nil
}

// createNewPageHandle allocates a brand new data page, initializes its
// header and bitmap, and prepends it to the free chain. Caller must
// hold h.mu.
func (h *FileHandle) createNewPageHandle() (rpage.Handle, error) {
	fr, pageID, err := h.bpm.NewPage(h.fd)
	if err != nil {
		return rpage.Handle{}, err
	}
	ph := rpage.NewHandle(fr, h.fileHdr)
	ph.SetPageHdr(rpage.PageHdr{NumRecords: 0, NextFreePageNo: common.RMNoPage})
	rpage.Init(ph.Bitmap())

	h.fileHdr.NumPages++
	h.fileHdr.FirstFreePageNo = pageID.PageNo
	return ph, nil
}

// createPageHandle returns a page with at least one free slot,
// creating a new one if the free chain is empty. Caller must hold h.mu.
func (h *FileHandle) createPageHandle() (rpage.Handle, error) {
	if h.fileHdr.FirstFreePageNo == common.RMNoPage {
		return h.createNewPageHandle()
	}
	pageNo := h.fileHdr.FirstFreePageNo
	fr, err := h.bpm.FetchPage(h.pageID(pageNo))
	if err != nil {
		return rpage.Handle{}, err
	}
	return rpage.NewHandle(fr, h.fileHdr), nil
}

// assertBitmapAgreesWithHeader checks the invariant that a page's
// live-slot count always matches its bitmap's popcount. Skipped unless
// common.EnableDebug is set.
func (h *FileHandle) assertBitmapAgreesWithHeader(ph rpage.Handle, hdr rpage.PageHdr) {
	if !common.EnableDebug {
		return
	}
	got := rpage.Popcount(ph.Bitmap(), int(h.fileHdr.NumRecordsPerPage))
	common.Assert(got == int(hdr.NumRecords), "page %s: bitmap popcount %d != num_records %d", ph.Frame.ID().String(), got, hdr.NumRecords)
}

// InsertRecord inserts buf into the first free slot of a free page and
// returns its Rid.
func (h *FileHandle) InsertRecord(buf []byte) (Rid, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, err := h.createPageHandle()
	if err != nil {
		return Rid{}, err
	}
	ph.Frame.Latch.WLock()
	slotNo := rpage.FirstBit(false, ph.Bitmap(), int(h.fileHdr.NumRecordsPerPage))
	copy(ph.Slot(slotNo), buf)
	rpage.Set(ph.Bitmap(), slotNo)

	hdr := ph.PageHdr()
	hdr.NumRecords++
	full := hdr.NumRecords == h.fileHdr.NumRecordsPerPage
	ph.SetPageHdr(hdr)
	if full {
		h.fileHdr.FirstFreePageNo = hdr.NextFreePageNo
	}
	h.assertBitmapAgreesWithHeader(ph, hdr)
	ph.Frame.Latch.WUnlock()

	pageID := ph.Frame.ID()
	if err := h.bpm.UnpinPage(pageID, true); err != nil {
		return Rid{}, err
	}
	return Rid{PageNo: pageID.PageNo, SlotNo: int32(slotNo)}, nil
}

// InsertRecordAt writes buf at rid, occupying it if it was free.
func (h *FileHandle) InsertRecordAt(rid Rid, buf []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, err := h.fetchPageHandleLocked(rid.PageNo)
	if err != nil {
		return err
	}
	ph.Frame.Latch.WLock()
	defer ph.Frame.Latch.WUnlock()

	if !rpage.IsSet(ph.Bitmap(), int(rid.SlotNo)) {
		rpage.Set(ph.Bitmap(), int(rid.SlotNo))
		hdr := ph.PageHdr()
		hdr.NumRecords++
		full := hdr.NumRecords == h.fileHdr.NumRecordsPerPage
		ph.SetPageHdr(hdr)
		if full {
			h.fileHdr.FirstFreePageNo = hdr.NextFreePageNo
		}
		h.assertBitmapAgreesWithHeader(ph, hdr)
	}
	copy(ph.Slot(int(rid.SlotNo)), buf)
	return h.bpm.UnpinPage(ph.Frame.ID(), true)
}

// fetchPageHandleLocked is fetchPageHandle without re-taking h.mu,
// for call sites that already hold it.
func (h *FileHandle) fetchPageHandleLocked(pageNo int32) (rpage.Handle, error) {
	if pageNo < 0 || pageNo >= h.fileHdr.NumPages {
		return rpage.Handle{}, errs.New("record.fetchPageHandle", errs.ErrPageNotExist).WithFd(h.fd).WithPage(pageNo)
	}
	fr, err := h.bpm.FetchPage(h.pageID(pageNo))
	if err != nil {
		return rpage.Handle{}, errs.New("record.fetchPageHandle", errs.ErrPageNotExist).WithFd(h.fd).WithPage(pageNo).WithErr(err)
	}
	return rpage.NewHandle(fr, h.fileHdr), nil
}

// GetRecord copies out the record at rid.
func (h *FileHandle) GetRecord(rid Rid) ([]byte, error) {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return nil, err
	}
	// RecordSize is read before taking the frame latch: h.mu must never
	// be taken while a frame's latch is held, since mutating callers
	// (InsertRecord, DeleteRecord, ...) take h.mu first and the frame's
	// WLatch second.
	recordSize := h.RecordSize()
	ph.Frame.Latch.RLock()
	if !rpage.IsSet(ph.Bitmap(), int(rid.SlotNo)) {
		ph.Frame.Latch.RUnlock()
		h.bpm.UnpinPage(ph.Frame.ID(), false)
		return nil, errs.New("record.GetRecord", errs.ErrRecordNotFound).WithFd(h.fd).WithRid(rid.PageNo, rid.SlotNo)
	}
	out := make([]byte, recordSize)
	copy(out, ph.Slot(int(rid.SlotNo)))
	ph.Frame.Latch.RUnlock()
	if err := h.bpm.UnpinPage(ph.Frame.ID(), false); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecord overwrites the record at rid, failing if it's absent.
func (h *FileHandle) UpdateRecord(rid Rid, buf []byte) error {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	ph.Frame.Latch.WLock()
	if !rpage.IsSet(ph.Bitmap(), int(rid.SlotNo)) {
		ph.Frame.Latch.WUnlock()
		h.bpm.UnpinPage(ph.Frame.ID(), false)
		return errs.New("record.UpdateRecord", errs.ErrRecordNotFound).WithFd(h.fd).WithRid(rid.PageNo, rid.SlotNo)
	}
	copy(ph.Slot(int(rid.SlotNo)), buf)
	ph.Frame.Latch.WUnlock()
	return h.bpm.UnpinPage(ph.Frame.ID(), true)
}

// DeleteRecord clears the slot at rid, relinking the page onto the
// free chain if it was previously full.
func (h *FileHandle) DeleteRecord(rid Rid) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, err := h.fetchPageHandleLocked(rid.PageNo)
	if err != nil {
		return err
	}
	ph.Frame.Latch.WLock()
	defer ph.Frame.Latch.WUnlock()

	if !rpage.IsSet(ph.Bitmap(), int(rid.SlotNo)) {
		h.bpm.UnpinPage(ph.Frame.ID(), false)
		return errs.New("record.DeleteRecord", errs.ErrRecordNotFound).WithFd(h.fd).WithRid(rid.PageNo, rid.SlotNo)
	}
	rpage.Reset(ph.Bitmap(), int(rid.SlotNo))
	hdr := ph.PageHdr()
	hdr.NumRecords--
	wasFull := hdr.NumRecords == h.fileHdr.NumRecordsPerPage-1
	if wasFull {
		hdr.NextFreePageNo = h.fileHdr.FirstFreePageNo
		h.fileHdr.FirstFreePageNo = rid.PageNo
	}
	ph.SetPageHdr(hdr)
	h.assertBitmapAgreesWithHeader(ph, hdr)
	return h.bpm.UnpinPage(ph.Frame.ID(), true)
}
