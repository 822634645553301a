// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"log/slog"

	"github.com/sasha-s/go-deadlock"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
	"github.com/ryogrid-labs/storagecore/storage/disk"
	"github.com/ryogrid-labs/storagecore/storage/page"
	"github.com/ryogrid-labs/storagecore/types"
)

// PoolManager is the buffer pool: fetches pages into a fixed array of
// frames, pins/unpins them on behalf of callers, and evicts via the
// replacer once every frame is in use.
type PoolManager struct {
	mu deadlock.Mutex

	disk      disk.Manager
	frames    []*page.Frame
	replacer  *LRUReplacer
	freeList  []FrameID
	pageTable map[types.PageID]FrameID

	log *slog.Logger
}

// NewPoolManager returns a pool of poolSize frames backed by diskMgr.
func NewPoolManager(poolSize uint32, diskMgr disk.Manager) *PoolManager {
	freeList := make([]FrameID, poolSize)
	frames := make([]*page.Frame, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
	}

	return &PoolManager{
		disk:      diskMgr,
		frames:    frames,
		replacer:  NewLRUReplacer(poolSize),
		freeList:  freeList,
		pageTable: make(map[types.PageID]FrameID),
		log:       common.Logger(),
	}
}

// FetchPage returns the frame holding pageID, reading it from disk and
// evicting a victim frame if it isn't already resident. The returned
// frame is pinned; callers must UnpinPage it when done.
func (b *PoolManager) FetchPage(pageID types.PageID) (*page.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		fr := b.frames[frameID]
		fr.IncPinCount()
		b.replacer.Pin(frameID)
		return fr, nil
	}

	frameID, err := b.findVictimFrame()
	if err != nil {
		return nil, err
	}

	if err := b.writeBackIfDirty(*frameID); err != nil {
		return nil, err
	}

	data := make([]byte, common.PageSize)
	if err := b.disk.ReadPage(pageID.Fd, pageID.PageNo, data); err != nil {
		b.freeList = append(b.freeList, *frameID)
		return nil, errs.New("buffer.FetchPage", errs.ErrPageNotExist).
			WithFd(pageID.Fd).WithPage(pageID.PageNo).WithErr(err)
	}
	var pageData [page.Size]byte
	copy(pageData[:], data)

	fr := page.New(pageID, 1, false, &pageData)
	b.pageTable[pageID] = *frameID
	b.frames[*frameID] = fr

	return fr, nil
}

// UnpinPage releases one pin on pageID. isDirty is ORed into the
// frame's dirty bit; it never clears a dirty bit another pinner set.
func (b *PoolManager) UnpinPage(pageID types.PageID, isDirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return errs.New("buffer.UnpinPage", errs.ErrPageNotExist).
			WithFd(pageID.Fd).WithPage(pageID.PageNo)
	}
	fr := b.frames[frameID]
	if fr.PinCount() <= 0 {
		return errs.New("buffer.UnpinPage", errs.ErrInternal).
			WithFd(pageID.Fd).WithPage(pageID.PageNo)
	}
	fr.DecPinCount()
	if common.EnableDebug {
		common.Assert(fr.PinCount() >= 0, "pin count went negative for page %s", pageID.String())
	}
	if isDirty {
		fr.SetIsDirty(true)
	}
	if fr.PinCount() <= 0 {
		b.replacer.Unpin(frameID)
	}
	return nil
}

// FlushPage writes pageID's frame to disk unconditionally and clears
// its dirty bit.
func (b *PoolManager) FlushPage(pageID types.PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return errs.New("buffer.FlushPage", errs.ErrPageNotExist).
			WithFd(pageID.Fd).WithPage(pageID.PageNo)
	}
	fr := b.frames[frameID]
	data := fr.Data()
	if err := b.disk.WritePage(pageID.Fd, pageID.PageNo, data[:]); err != nil {
		return errs.New("buffer.FlushPage", errs.ErrUnix).
			WithFd(pageID.Fd).WithPage(pageID.PageNo).WithErr(err)
	}
	fr.SetIsDirty(false)
	return nil
}

// NewPage allocates a fresh page in file fd, installs it in a frame
// pinned once, and returns it along with its PageID.
func (b *PoolManager) NewPage(fd int32) (*page.Frame, types.PageID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, err := b.findVictimFrame()
	if err != nil {
		return nil, types.PageID{}, err
	}
	if err := b.writeBackIfDirty(*frameID); err != nil {
		return nil, types.PageID{}, err
	}

	pageNo, err := b.disk.AllocatePage(fd)
	if err != nil {
		b.freeList = append(b.freeList, *frameID)
		return nil, types.PageID{}, errs.New("buffer.NewPage", errs.ErrUnix).WithFd(fd).WithErr(err)
	}
	pageID := types.NewPageID(fd, pageNo)

	fr := page.NewEmpty(pageID)
	b.pageTable[pageID] = *frameID
	b.frames[*frameID] = fr

	return fr, pageID, nil
}

// DeletePage evicts pageID from the pool, flushing it first if dirty.
// Fails if the page is currently pinned.
func (b *PoolManager) DeletePage(pageID types.PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return nil
	}
	fr := b.frames[frameID]
	if fr.PinCount() > 0 {
		return errs.New("buffer.DeletePage", errs.ErrInternal).
			WithFd(pageID.Fd).WithPage(pageID.PageNo)
	}
	if err := b.writeBackIfDirty(frameID); err != nil {
		return err
	}
	delete(b.pageTable, pageID)
	b.replacer.Pin(frameID)
	b.frames[frameID] = nil
	b.freeList = append(b.freeList, frameID)
	return nil
}

// FlushAllPages writes every resident page belonging to fd to disk.
func (b *PoolManager) FlushAllPages(fd int32) error {
	b.mu.Lock()
	ids := make([]types.PageID, 0, len(b.pageTable))
	for id := range b.pageTable {
		if id.Fd == fd {
			ids = append(ids, id)
		}
	}
	b.mu.Unlock()

	for _, id := range ids {
		if err := b.FlushPage(id); err != nil {
			return err
		}
	}
	return nil
}

// findVictimFrame returns a free-list frame if one is available,
// otherwise asks the replacer for a victim. Callers must hold b.mu.
func (b *PoolManager) findVictimFrame() (*FrameID, error) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return &frameID, nil
	}
	if victim := b.replacer.Victim(); victim != nil {
		b.log.Debug("evicted frame", slog.Int("frame_id", int(*victim)))
		return victim, nil
	}
	b.log.Error("buffer pool exhausted, no victim available")
	return nil, errs.New("buffer.findVictimFrame", errs.ErrInternal)
}

// writeBackIfDirty flushes the current tenant of frameID, if any and
// dirty, and removes it from the page table. Callers must hold b.mu.
func (b *PoolManager) writeBackIfDirty(frameID FrameID) error {
	current := b.frames[frameID]
	if current == nil {
		return nil
	}
	if current.IsDirty() {
		data := current.Data()
		if err := b.disk.WritePage(current.ID().Fd, current.ID().PageNo, data[:]); err != nil {
			return errs.New("buffer.writeBackIfDirty", errs.ErrUnix).
				WithFd(current.ID().Fd).WithPage(current.ID().PageNo).WithErr(err)
		}
	}
	delete(b.pageTable, current.ID())
	return nil
}
