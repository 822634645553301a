// Package record implements the slotted record-file format layered on
// the buffer pool: CRUD over a (page_no, slot_no) rid and a forward
// scanner.
package record

import "fmt"

// Rid identifies a record within one file: its page number and slot
// index. Stable for the life of the record.
type Rid struct {
	PageNo int32
	SlotNo int32
}

func (r Rid) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageNo, r.SlotNo)
}
