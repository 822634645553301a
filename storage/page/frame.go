// Package page holds the buffer pool's in-memory frame: a fixed
// PAGE_SIZE byte array plus the bookkeeping (id, pin count, dirty bit)
// the pool manager and replacer need to decide what to evict.
package page

import (
	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/types"
)

// Size is the number of bytes held by every Frame, identical to
// common.PageSize; duplicated here since a Frame's array length must
// be a compile-time constant.
const Size = 4096

// Frame is one buffer pool slot: PAGE_SIZE bytes of page data plus the
// metadata the pool manager mutates while the page is resident. Latch
// is the page-level WLatch/RLatch pair record operations take while
// they read or mutate the frame's bytes in place; it is independent of
// the pool manager's own latch, which only ever guards the page table
// and frame array.
type Frame struct {
	id       types.PageID
	pinCount int
	isDirty  bool
	data     *[Size]byte
	Latch    common.ReaderWriterLatch
}

// New wraps existing data under id with the given pin count and dirty
// bit, used when a frame is reused for a freshly-read page.
func New(id types.PageID, pinCount int, isDirty bool, data *[Size]byte) *Frame {
	return &Frame{id: id, pinCount: pinCount, isDirty: isDirty, data: data, Latch: common.NewRWLatch()}
}

// NewEmpty returns a zeroed frame for id, pinned once.
func NewEmpty(id types.PageID) *Frame {
	return &Frame{id: id, pinCount: 1, data: &[Size]byte{}, Latch: common.NewRWLatch()}
}

// IncPinCount records a new pinner of this frame.
func (f *Frame) IncPinCount() {
	f.pinCount++
}

// DecPinCount releases one pin, floored at zero.
func (f *Frame) DecPinCount() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// PinCount reports how many callers currently hold this frame.
func (f *Frame) PinCount() int {
	return f.pinCount
}

// ID reports which page this frame currently holds.
func (f *Frame) ID() types.PageID {
	return f.id
}

// SetID reassigns the frame to a different page, used when the pool
// recycles a frame for a new page after evicting its previous tenant.
func (f *Frame) SetID(id types.PageID) {
	f.id = id
}

// Data exposes the raw page bytes for the record layer to read/write.
func (f *Frame) Data() *[Size]byte {
	return f.data
}

// ResetData zeroes the frame's bytes, used when a brand new page is
// allocated so it doesn't leak a previous tenant's contents.
func (f *Frame) ResetData() {
	f.data = &[Size]byte{}
}

// SetIsDirty marks whether the frame has unflushed writes.
func (f *Frame) SetIsDirty(isDirty bool) {
	f.isDirty = isDirty
}

// IsDirty reports whether the frame has unflushed writes.
func (f *Frame) IsDirty() bool {
	return f.isDirty
}
