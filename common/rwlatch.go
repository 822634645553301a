// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import "sync"

// ReaderWriterLatch guards a single page's bytes: many readers or one
// writer. Every storage/page.Frame carries one; record operations take
// it (RLock to read a slot, WLock to mutate a slot/bitmap/page header)
// while a page is resident, independent of the pool manager's own
// latch over the page table.
type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

type readerWriterLatch struct {
	mutex sync.RWMutex
}

// NewRWLatch returns a ready-to-use page latch.
func NewRWLatch() ReaderWriterLatch {
	return &readerWriterLatch{}
}

func (l *readerWriterLatch) WLock()   { l.mutex.Lock() }
func (l *readerWriterLatch) WUnlock() { l.mutex.Unlock() }
func (l *readerWriterLatch) RLock()   { l.mutex.RLock() }
func (l *readerWriterLatch) RUnlock() { l.mutex.RUnlock() }
