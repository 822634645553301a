package record

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/storage/rpage"
)

// Scan is a forward, non-restartable cursor over every live rid in a
// file, in ascending (page_no, slot_no) order. It starts at page 1
// (RM_FIRST_RECORD_PAGE): page 0 holds the file header, not records.
//
// seen, when debug assertions are enabled, guards the invariant that a
// forward scan visits every live rid exactly once: advance walks
// bitmap bits strictly forward, so a repeat can only mean advance
// regressed pageNo/slotNo.
type Scan struct {
	fh     *FileHandle
	pageNo int32
	slotNo int32
	seen   mapset.Set[Rid]
}

// NewScan returns a cursor positioned before the first record.
func NewScan(fh *FileHandle) *Scan {
	s := &Scan{fh: fh, pageNo: common.RMFirstRecordPage, slotNo: -1}
	if common.EnableDebug {
		s.seen = mapset.NewSet[Rid]()
	}
	s.advance()
	return s
}

// advance moves to the next set bit, walking forward across pages as
// needed, terminating the scan once every page has been visited.
func (s *Scan) advance() {
	for {
		if s.pageNo >= s.fh.NumPages() {
			s.pageNo = common.RMNoPage
			return
		}
		ph, err := s.fh.fetchPageHandle(s.pageNo)
		if err != nil {
			s.pageNo = common.RMNoPage
			return
		}
		numRecordsPerPage := int(s.fh.NumRecordsPerPage())
		next := rpage.NextBit(true, ph.Bitmap(), numRecordsPerPage, int(s.slotNo))
		s.fh.bpm.UnpinPage(ph.Frame.ID(), false)

		if next < numRecordsPerPage {
			s.slotNo = int32(next)
			rid := Rid{PageNo: s.pageNo, SlotNo: s.slotNo}
			if common.EnableDebug {
				common.Assert(!s.seen.Contains(rid), "record.Scan: rid %s visited twice", rid.String())
				s.seen.Add(rid)
			}
			return
		}
		s.pageNo++
		s.slotNo = -1
	}
}

// Next advances the cursor past the current rid.
func (s *Scan) Next() {
	s.advance()
}

// IsEnd reports whether the scan has been exhausted.
func (s *Scan) IsEnd() bool {
	return s.pageNo == common.RMNoPage
}

// Rid returns the current cursor position; only valid while !IsEnd().
func (s *Scan) Rid() Rid {
	return Rid{PageNo: s.pageNo, SlotNo: s.slotNo}
}
