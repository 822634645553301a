package disk

import (
	"sync"

	"github.com/dsnet/golib/memfile"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
)

// MemManager is a Manager backed entirely by in-memory byte slices via
// memfile.File. It exists so buffer pool and record file tests can
// exercise thousands of page reads/writes without touching the real
// filesystem.
//
// A file's bytes live in store, keyed by path, for as long as the path
// exists; files only tracks which fd a currently-open path is bound
// to. Closing an fd must not discard what was written, since a
// create-then-close-then-open sequence has to see the same bytes
// again on reopen.
type MemManager struct {
	mu sync.Mutex

	store    map[string]*memfile.File
	files    map[int32]*memfile.File
	path2fd  map[string]int32
	fd2path  map[int32]string
	created  map[string]bool
	nextFd   int32
	pageNext [common.MaxFd]int32

	logMu sync.Mutex
	log   *memfile.File
}

// NewMemManager returns a Manager with no files created yet.
func NewMemManager() *MemManager {
	return &MemManager{
		store:   make(map[string]*memfile.File),
		files:   make(map[int32]*memfile.File),
		path2fd: make(map[string]int32),
		fd2path: make(map[int32]string),
		created: make(map[string]bool),
	}
}

func (d *MemManager) IsFile(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[path]
}

func (d *MemManager) CreateFile(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.created[path] {
		return errs.New("disk.CreateFile", errs.ErrFileExists).WithPath(path)
	}
	d.created[path] = true
	d.store[path] = memfile.New(make([]byte, 0))
	return nil
}

func (d *MemManager) DestroyFile(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.created[path] {
		return errs.New("disk.DestroyFile", errs.ErrFileNotFound).WithPath(path)
	}
	if _, open := d.path2fd[path]; open {
		return errs.New("disk.DestroyFile", errs.ErrFileNotClosed).WithPath(path)
	}
	delete(d.created, path)
	delete(d.store, path)
	return nil
}

func (d *MemManager) OpenFile(path string) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.created[path] {
		return -1, errs.New("disk.OpenFile", errs.ErrFileNotFound).WithPath(path)
	}
	if _, open := d.path2fd[path]; open {
		return -1, errs.New("disk.OpenFile", errs.ErrFileNotClosed).WithPath(path)
	}
	f := d.store[path]
	fd := d.nextFd
	d.nextFd++
	d.files[fd] = f
	d.path2fd[path] = fd
	d.fd2path[fd] = path
	// Seed the page allocator from the file's current size so a
	// freshly reopened record file's first NewPage continues past the
	// pages already written instead of colliding with the header page.
	d.pageNext[fd] = int32(int64(len(f.Bytes())) / common.PageSize)
	return fd, nil
}

func (d *MemManager) CloseFile(fd int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.fd2path[fd]
	if !ok {
		return errs.New("disk.CloseFile", errs.ErrFileNotOpen).WithFd(fd)
	}
	delete(d.files, fd)
	delete(d.fd2path, fd)
	delete(d.path2fd, path)
	return nil
}

func (d *MemManager) WritePage(fd int32, pageNo int32, buf []byte) error {
	d.mu.Lock()
	f, ok := d.files[fd]
	d.mu.Unlock()
	if !ok {
		return errs.New("disk.WritePage", errs.ErrFileNotOpen).WithFd(fd)
	}
	offset := int64(pageNo) * common.PageSize
	n, err := f.WriteAt(buf, offset)
	if err != nil || n != len(buf) {
		return errs.New("disk.WritePage", errs.ErrInternal).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	return nil
}

func (d *MemManager) ReadPage(fd int32, pageNo int32, buf []byte) error {
	d.mu.Lock()
	f, ok := d.files[fd]
	d.mu.Unlock()
	if !ok {
		return errs.New("disk.ReadPage", errs.ErrFileNotOpen).WithFd(fd)
	}
	offset := int64(pageNo) * common.PageSize
	n, err := f.ReadAt(buf, offset)
	if err != nil || n != len(buf) {
		return errs.New("disk.ReadPage", errs.ErrInternal).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	return nil
}

func (d *MemManager) AllocatePage(fd int32) (int32, error) {
	if fd < 0 || int(fd) >= common.MaxFd {
		return -1, errs.New("disk.AllocatePage", errs.ErrInternal).WithFd(fd)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pageNo := d.pageNext[fd]
	d.pageNext[fd]++
	return pageNo, nil
}

func (d *MemManager) GetFileName(fd int32) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.fd2path[fd]
	if !ok {
		return "", errs.New("disk.GetFileName", errs.ErrFileNotOpen).WithFd(fd)
	}
	return path, nil
}

func (d *MemManager) GetFileFd(path string) (int32, error) {
	d.mu.Lock()
	fd, ok := d.path2fd[path]
	d.mu.Unlock()
	if ok {
		return fd, nil
	}
	if !d.IsFile(path) {
		if err := d.CreateFile(path); err != nil {
			return -1, err
		}
	}
	return d.OpenFile(path)
}

func (d *MemManager) ensureLog() {
	if d.log == nil {
		d.log = memfile.New(make([]byte, 0))
	}
}

func (d *MemManager) WriteLog(buf []byte) error {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	d.ensureLog()
	offset := int64(len(d.log.Bytes()))
	n, err := d.log.WriteAt(buf, offset)
	if err != nil || n != len(buf) {
		return errs.New("disk.WriteLog", errs.ErrInternal).WithErr(err)
	}
	return nil
}

func (d *MemManager) ReadLog(buf []byte, offset int) (int, error) {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	d.ensureLog()
	size := len(d.log.Bytes())
	if offset > size {
		return -1, nil
	}
	toRead := len(buf)
	if toRead > size-offset {
		toRead = size - offset
	}
	if toRead <= 0 {
		return 0, nil
	}
	n, err := d.log.ReadAt(buf[:toRead], int64(offset))
	if err != nil {
		return n, errs.New("disk.ReadLog", errs.ErrInternal).WithErr(err)
	}
	return n, nil
}
