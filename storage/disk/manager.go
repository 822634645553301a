// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir
//
// Package disk implements the storage core's Disk Manager: raw
// page-aligned reads and writes on open file descriptors, file
// lifecycle, a per-file monotonic page allocator, and the append-only
// log file. It has no directory operations; database directories are
// created and removed by the catalog.
package disk

// Manager is the disk-level collaborator the buffer pool and the
// catalog drive. It knows nothing about record layout or catalog
// structure; it moves PAGE_SIZE-aligned bytes and manages fd/path
// bookkeeping.
type Manager interface {
	// CreateFile creates path fresh. Fails if path already exists.
	CreateFile(path string) error
	// DestroyFile unlinks path. Fails if path is not found or is still
	// open.
	DestroyFile(path string) error
	// OpenFile opens path for read/write and returns its fd. Fails if
	// already open.
	OpenFile(path string) (int32, error)
	// CloseFile closes fd. Fails if fd is not open.
	CloseFile(fd int32) error

	// ReadPage reads exactly len(buf) bytes from fd at page pageNo.
	ReadPage(fd int32, pageNo int32, buf []byte) error
	// WritePage writes exactly len(buf) bytes to fd at page pageNo.
	WritePage(fd int32, pageNo int32, buf []byte) error

	// AllocatePage returns the next 0-based page number for fd.
	AllocatePage(fd int32) (int32, error)

	// IsFile reports whether path names a regular file that exists.
	IsFile(path string) bool
	// GetFileName returns the path fd was opened with.
	GetFileName(fd int32) (string, error)
	// GetFileFd returns the fd path is open under, opening it first if
	// necessary.
	GetFileFd(path string) (int32, error)

	// ReadLog reads up to len(buf) bytes from the log file starting at
	// offset, returning the number of bytes actually read, -1 when
	// offset is past the end of the file, or 0 when nothing remains.
	ReadLog(buf []byte, offset int) (int, error)
	// WriteLog appends buf to the log file.
	WriteLog(buf []byte) error
}
