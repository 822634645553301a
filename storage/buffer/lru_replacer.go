// Package buffer implements the buffer pool: a fixed array of frames,
// a page table mapping PageID to FrameID, an LRU replacer for frames
// with no outstanding pins, and the pool manager that ties them
// together with the disk manager.
//
// Unpinning a frame makes it evictable and pushes it to the front of
// an LRU list; victim selection pops from the back. Expressed in Go
// with container/list plus a map for O(1) lookup of a frame's
// position in the list.
package buffer

import (
	"container/list"

	"github.com/sasha-s/go-deadlock"
)

// FrameID identifies a slot in the buffer pool's frame array.
type FrameID int32

// LRUReplacer tracks which frames are unpinned and evictable, victimizing
// the least recently unpinned one first.
type LRUReplacer struct {
	mu       deadlock.Mutex
	capacity uint32
	list     *list.List
	elements map[FrameID]*list.Element
}

// NewLRUReplacer returns a replacer with capacity for poolSize frames.
func NewLRUReplacer(poolSize uint32) *LRUReplacer {
	return &LRUReplacer{
		capacity: poolSize,
		list:     list.New(),
		elements: make(map[FrameID]*list.Element, poolSize),
	}
}

// Victim removes and returns the least recently unpinned frame, or nil
// if every tracked frame is pinned.
func (r *LRUReplacer) Victim() *FrameID {
	r.mu.Lock()
	defer r.mu.Unlock()

	back := r.list.Back()
	if back == nil {
		return nil
	}
	id := back.Value.(FrameID)
	r.list.Remove(back)
	delete(r.elements, id)
	return &id
}

// Unpin marks id as evictable, moving it to the front of the LRU list.
// A frame already tracked is a no-op, and so is one that would push the
// list past capacity.
func (r *LRUReplacer) Unpin(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.elements[id]; ok {
		return
	}
	if uint32(r.list.Len()) >= r.capacity {
		return
	}
	r.elements[id] = r.list.PushFront(id)
}

// Pin removes id from the evictable set, indicating some caller now
// holds a pin on it.
func (r *LRUReplacer) Pin(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.elements[id]; ok {
		r.list.Remove(elem)
		delete(r.elements, id)
	}
}

// Size reports how many frames are currently evictable.
func (r *LRUReplacer) Size() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(r.list.Len())
}
