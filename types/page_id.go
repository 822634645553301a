// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import "fmt"

// InvalidPageNo is the sentinel page number of an unallocated or freed page.
const InvalidPageNo int32 = -1

// PageID identifies a page uniquely across every open file: the file
// descriptor it lives in plus its 0-based page number within that file.
// Page 0 of every record file is reserved for the file header, so the
// first data page is page 1.
type PageID struct {
	Fd     int32
	PageNo int32
}

// NewPageID builds a PageID from a file descriptor and page number.
func NewPageID(fd int32, pageNo int32) PageID {
	return PageID{Fd: fd, PageNo: pageNo}
}

// IsValid reports whether the page number is anything other than the
// INVALID sentinel. A PageID with a valid Fd but InvalidPageNo denotes
// "no page yet".
func (id PageID) IsValid() bool {
	return id.PageNo != InvalidPageNo
}

func (id PageID) String() string {
	return fmt.Sprintf("(fd=%d,page_no=%d)", id.Fd, id.PageNo)
}
