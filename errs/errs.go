// Package errs defines the error kinds raised across the storage core:
// disk I/O, the buffer pool's invariant violations, and catalog DDL
// failures. Every kind is a sentinel error; call sites wrap it in an
// *Error carrying whichever of path/fd/page/slot/name identifies the
// offending object, and callers test the kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Kinds, one per failure category the storage core can raise.
var (
	ErrUnix             = errors.New("unix syscall error")
	ErrInternal         = errors.New("internal invariant violation")
	ErrFileExists       = errors.New("file already exists")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileNotOpen      = errors.New("file not open")
	ErrFileNotClosed    = errors.New("file not closed")
	ErrPageNotExist     = errors.New("page does not exist")
	ErrRecordNotFound   = errors.New("record not found")
	ErrDatabaseExists   = errors.New("database already exists")
	ErrDatabaseNotFound = errors.New("database not found")
	ErrTableExists      = errors.New("table already exists")
	ErrTableNotFound    = errors.New("table not found")
	ErrColumnNotFound   = errors.New("column not found")
	ErrDuplicateColumn  = errors.New("column named more than once")
	ErrIndexExists      = errors.New("index already exists")
	ErrIndexNotFound    = errors.New("index not found")
)

// Error wraps a Kind sentinel with whichever of the offending path, fd,
// page_no/slot_no, or name identifies the object involved. Fields that
// don't apply to a given Kind are simply omitted from Error().
type Error struct {
	Op      string
	Kind    error
	Path    string
	Fd      int32
	hasFd   bool
	PageNo  int32
	hasPage bool
	SlotNo  int32
	hasSlot bool
	Name    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Path != "" {
		msg += " path=" + e.Path
	}
	if e.hasFd {
		msg += fmt.Sprintf(" fd=%d", e.Fd)
	}
	if e.hasPage {
		msg += fmt.Sprintf(" page_no=%d", e.PageNo)
	}
	if e.hasSlot {
		msg += fmt.Sprintf(" slot_no=%d", e.SlotNo)
	}
	if e.Name != "" {
		msg += " name=" + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds a wrapped error for the given operation and kind.
func New(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

// WithPath attaches a path to the error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithFd attaches a file descriptor to the error. Fd 0 is a valid
// descriptor, so a flag tracks whether WithFd was ever called rather
// than relying on Fd being nonzero.
func (e *Error) WithFd(fd int32) *Error {
	e.Fd = fd
	e.hasFd = true
	return e
}

// WithRid attaches a (page_no, slot_no) pair to the error. Either can
// legitimately be 0, so flags track whether they were set.
func (e *Error) WithRid(pageNo, slotNo int32) *Error {
	e.PageNo = pageNo
	e.SlotNo = slotNo
	e.hasPage = true
	e.hasSlot = true
	return e
}

// WithPage attaches a page number to the error.
func (e *Error) WithPage(pageNo int32) *Error {
	e.PageNo = pageNo
	e.hasPage = true
	return e
}

// WithName attaches a database/table/index/column name to the error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithErr attaches the underlying cause (e.g. a raw os.PathError).
func (e *Error) WithErr(err error) *Error {
	e.Err = err
	return e
}

func Is(err error, kind error) bool { return errors.Is(err, kind) }
