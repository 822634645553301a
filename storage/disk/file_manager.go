package disk

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
)

// FileManager is the os.File-backed Manager implementation: every
// (fd, page_no) is a lseek+read/write pair on a real file. It supports
// arbitrary path->fd pairs, one per record file or index file a
// catalog opens, rather than a single fixed database file.
type FileManager struct {
	mu sync.Mutex

	files    map[int32]*os.File
	path2fd  map[string]int32
	fd2path  map[int32]string
	nextFd   int32
	pageNext [common.MaxFd]int32

	logMu   sync.Mutex
	logFd   int32
	logFile *os.File

	log *slog.Logger
}

// NewFileManager returns a Manager with no files open yet.
func NewFileManager() *FileManager {
	return &FileManager{
		files:   make(map[int32]*os.File),
		path2fd: make(map[string]int32),
		fd2path: make(map[int32]string),
		logFd:   -1,
		log:     common.Logger(),
	}
}

func (d *FileManager) IsFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (d *FileManager) CreateFile(path string) error {
	if d.IsFile(path) {
		return errs.New("disk.CreateFile", errs.ErrFileExists).WithPath(path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		d.log.Error("create file failed", slog.String("path", path), slog.Any("err", err))
		return errs.New("disk.CreateFile", errs.ErrUnix).WithPath(path).WithErr(err)
	}
	d.log.Debug("created file", slog.String("path", path))
	return f.Close()
}

func (d *FileManager) DestroyFile(path string) error {
	if !d.IsFile(path) {
		return errs.New("disk.DestroyFile", errs.ErrFileNotFound).WithPath(path)
	}
	d.mu.Lock()
	_, open := d.path2fd[path]
	d.mu.Unlock()
	if open {
		return errs.New("disk.DestroyFile", errs.ErrFileNotClosed).WithPath(path)
	}
	if err := os.Remove(path); err != nil {
		d.log.Error("destroy file failed", slog.String("path", path), slog.Any("err", err))
		return errs.New("disk.DestroyFile", errs.ErrUnix).WithPath(path).WithErr(err)
	}
	d.log.Debug("destroyed file", slog.String("path", path))
	return nil
}

func (d *FileManager) OpenFile(path string) (int32, error) {
	if !d.IsFile(path) {
		return -1, errs.New("disk.OpenFile", errs.ErrFileNotFound).WithPath(path)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, open := d.path2fd[path]; open {
		return -1, errs.New("disk.OpenFile", errs.ErrFileNotClosed).WithPath(path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return -1, errs.New("disk.OpenFile", errs.ErrUnix).WithPath(path).WithErr(err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return -1, errs.New("disk.OpenFile", errs.ErrUnix).WithPath(path).WithErr(err)
	}
	fd := d.nextFd
	d.nextFd++
	d.files[fd] = f
	d.path2fd[path] = fd
	d.fd2path[fd] = path
	// Seed the page allocator from the file's current size so a freshly
	// opened record file's first NewPage continues past the pages
	// already on disk instead of colliding with the header page.
	d.pageNext[fd] = int32(st.Size() / common.PageSize)
	return fd, nil
}

func (d *FileManager) CloseFile(fd int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.files[fd]
	if !ok {
		return errs.New("disk.CloseFile", errs.ErrFileNotOpen).WithFd(fd)
	}
	path := d.fd2path[fd]
	delete(d.files, fd)
	delete(d.fd2path, fd)
	delete(d.path2fd, path)
	if err := f.Close(); err != nil {
		return errs.New("disk.CloseFile", errs.ErrFileNotClosed).WithPath(path).WithErr(err)
	}
	return nil
}

func (d *FileManager) WritePage(fd int32, pageNo int32, buf []byte) error {
	d.mu.Lock()
	f, ok := d.files[fd]
	d.mu.Unlock()
	if !ok {
		return errs.New("disk.WritePage", errs.ErrFileNotOpen).WithFd(fd)
	}
	offset := int64(pageNo) * common.PageSize
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errs.New("disk.WritePage", errs.ErrUnix).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	n, err := f.Write(buf)
	if err != nil {
		return errs.New("disk.WritePage", errs.ErrUnix).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	if n != len(buf) {
		return errs.New("disk.WritePage", errs.ErrInternal).WithFd(fd).WithPage(pageNo)
	}
	return nil
}

func (d *FileManager) ReadPage(fd int32, pageNo int32, buf []byte) error {
	d.mu.Lock()
	f, ok := d.files[fd]
	d.mu.Unlock()
	if !ok {
		return errs.New("disk.ReadPage", errs.ErrFileNotOpen).WithFd(fd)
	}
	offset := int64(pageNo) * common.PageSize
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errs.New("disk.ReadPage", errs.ErrUnix).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	n, err := io.ReadFull(f, buf)
	if err != nil {
		return errs.New("disk.ReadPage", errs.ErrInternal).WithFd(fd).WithPage(pageNo).WithErr(err)
	}
	if n != len(buf) {
		return errs.New("disk.ReadPage", errs.ErrInternal).WithFd(fd).WithPage(pageNo)
	}
	return nil
}

func (d *FileManager) AllocatePage(fd int32) (int32, error) {
	if fd < 0 || int(fd) >= common.MaxFd {
		return -1, errs.New("disk.AllocatePage", errs.ErrInternal).WithFd(fd)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pageNo := d.pageNext[fd]
	d.pageNext[fd]++
	return pageNo, nil
}

func (d *FileManager) GetFileName(fd int32) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.fd2path[fd]
	if !ok {
		return "", errs.New("disk.GetFileName", errs.ErrFileNotOpen).WithFd(fd)
	}
	return path, nil
}

func (d *FileManager) GetFileFd(path string) (int32, error) {
	d.mu.Lock()
	fd, ok := d.path2fd[path]
	d.mu.Unlock()
	if ok {
		return fd, nil
	}
	return d.OpenFile(path)
}

func (d *FileManager) ensureLogFile() error {
	if d.logFile != nil {
		return nil
	}
	if !d.IsFile(common.LogFileName) {
		if err := d.CreateFile(common.LogFileName); err != nil {
			return err
		}
	}
	fd, err := d.GetFileFd(common.LogFileName)
	if err != nil {
		return err
	}
	d.logFd = fd
	d.mu.Lock()
	d.logFile = d.files[fd]
	d.mu.Unlock()
	return nil
}

func (d *FileManager) WriteLog(buf []byte) error {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	if err := d.ensureLogFile(); err != nil {
		return err
	}
	if _, err := d.logFile.Seek(0, io.SeekEnd); err != nil {
		return errs.New("disk.WriteLog", errs.ErrUnix).WithErr(err)
	}
	n, err := d.logFile.Write(buf)
	if err != nil || n != len(buf) {
		return errs.New("disk.WriteLog", errs.ErrUnix).WithErr(err)
	}
	return nil
}

func (d *FileManager) ReadLog(buf []byte, offset int) (int, error) {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	if err := d.ensureLogFile(); err != nil {
		return 0, err
	}
	st, err := d.logFile.Stat()
	if err != nil {
		return 0, errs.New("disk.ReadLog", errs.ErrUnix).WithErr(err)
	}
	size := int(st.Size())
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
	if _, err := d.logFile.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, errs.New("disk.ReadLog", errs.ErrUnix).WithErr(err)
	}
	n, err := io.ReadFull(d.logFile, buf[:toRead])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, errs.New("disk.ReadLog", errs.ErrUnix).WithErr(err)
	}
	return n, nil
}
