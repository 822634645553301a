// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

const (
	// PageSize is the fixed size, in bytes, of every page on disk and in
	// the buffer pool. It is a compile-time constant; the format does
	// not support any other page size.
	PageSize = 4096

	// MaxFd bounds the disk manager's per-fd page-allocation counters.
	MaxFd = 4096

	// InvalidPageID is the sentinel page_no used by both PageId.PageNo
	// (an unresolved page) and the record file's free-chain terminator.
	InvalidPageID = -1

	// RMNoPage terminates a record file's free-page chain.
	RMNoPage = -1

	// RMFirstRecordPage is the first page usable for records; page 0 of
	// every record file is reserved for the file header.
	RMFirstRecordPage = 1

	// LogFileName is the name of the append-only log file created
	// inside every database directory.
	LogFileName = "db.log"

	// DBMetaName is the name of the catalog's persisted DbMeta file
	// inside every database directory.
	DBMetaName = "db.meta"
)

// EnableDebug turns on extra invariant assertions; off by default.
var EnableDebug = false
