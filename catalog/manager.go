package catalog

import (
	"log/slog"
	"os"
	"sort"

	"github.com/sasha-s/go-deadlock"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/errs"
	"github.com/ryogrid-labs/storagecore/record"
	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

// ColDef is a caller-supplied column declaration for create_table:
// name, type code, and byte length. Offsets are computed by the
// manager, not the caller.
type ColDef struct {
	Name string
	Type int32
	Len  int32
}

// Manager is the process-wide system catalog: at most one open
// database at a time, mapping table/index names to open record and
// index file handles.
type Manager struct {
	mu deadlock.Mutex

	dm  disk.Manager
	bpm *buffer.PoolManager

	db  DbMeta
	fhs map[string]*record.FileHandle
	ihs map[string]IndexHandle

	log *slog.Logger
}

// NewManager returns a Manager with no database open.
func NewManager(dm disk.Manager, bpm *buffer.PoolManager) *Manager {
	return &Manager{
		dm:  dm,
		bpm: bpm,
		fhs: make(map[string]*record.FileHandle),
		ihs: make(map[string]IndexHandle),
		log: common.Logger(),
	}
}

func isDir(name string) bool {
	st, err := os.Stat(name)
	return err == nil && st.IsDir()
}

// CreateDatabase creates a fresh directory dbName, chdir's into it,
// writes an empty DbMeta and log file, then chdir's back.
func (m *Manager) CreateDatabase(dbName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isDir(dbName) {
		return errs.New("catalog.CreateDatabase", errs.ErrDatabaseExists).WithName(dbName)
	}
	if err := os.Mkdir(dbName, 0755); err != nil {
		m.log.Error("create database failed", slog.String("db", dbName), slog.Any("err", err))
		return errs.New("catalog.CreateDatabase", errs.ErrUnix).WithName(dbName).WithErr(err)
	}
	m.log.Info("created database", slog.String("db", dbName))
	wd, err := os.Getwd()
	if err != nil {
		return errs.New("catalog.CreateDatabase", errs.ErrUnix).WithErr(err)
	}
	if err := os.Chdir(dbName); err != nil {
		return errs.New("catalog.CreateDatabase", errs.ErrUnix).WithName(dbName).WithErr(err)
	}
	defer os.Chdir(wd)

	f, err := os.Create(common.DBMetaName)
	if err != nil {
		return errs.New("catalog.CreateDatabase", errs.ErrUnix).WithErr(err)
	}
	EncodeDbMeta(f, NewDbMeta(dbName))
	f.Close()

	return m.dm.CreateFile(common.LogFileName)
}

// DropDatabase removes dbName's directory and everything under it.
func (m *Manager) DropDatabase(dbName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isDir(dbName) {
		return errs.New("catalog.DropDatabase", errs.ErrDatabaseNotFound).WithName(dbName)
	}
	if err := os.RemoveAll(dbName); err != nil {
		m.log.Error("drop database failed", slog.String("db", dbName), slog.Any("err", err))
		return errs.New("catalog.DropDatabase", errs.ErrUnix).WithName(dbName).WithErr(err)
	}
	m.log.Info("dropped database", slog.String("db", dbName))
	return nil
}

// OpenDatabase chdir's into dbName, loads its DbMeta, and opens every
// table's record file and every index's index file.
func (m *Manager) OpenDatabase(dbName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isDir(dbName) {
		return errs.New("catalog.OpenDatabase", errs.ErrDatabaseNotFound).WithName(dbName)
	}
	if m.db.Name != "" {
		return errs.New("catalog.OpenDatabase", errs.ErrDatabaseExists).WithName(m.db.Name)
	}
	if err := os.Chdir(dbName); err != nil {
		return errs.New("catalog.OpenDatabase", errs.ErrUnix).WithName(dbName).WithErr(err)
	}

	f, err := os.Open(common.DBMetaName)
	if err != nil {
		os.Chdir("..")
		return errs.New("catalog.OpenDatabase", errs.ErrUnix).WithErr(err)
	}
	m.db = DecodeDbMeta(f)
	f.Close()

	for tabName, tab := range m.db.Tabs {
		fh, err := record.OpenFile(m.dm, m.bpm, tabName)
		if err != nil {
			return err
		}
		m.fhs[tabName] = fh

		for indexName, idx := range tab.Indexes {
			ih, err := OpenIndexFile(m.dm, indexName)
			if err != nil {
				return err
			}
			m.ihs[indexName] = ih
			_ = idx
		}
	}
	return nil
}

// FlushMeta overwrites DB_META_NAME with the in-memory DbMeta.
func (m *Manager) FlushMeta() error {
	f, err := os.Create(common.DBMetaName)
	if err != nil {
		return errs.New("catalog.FlushMeta", errs.ErrUnix).WithErr(err)
	}
	defer f.Close()
	EncodeDbMeta(f, m.db)
	return nil
}

// CloseDatabase flushes meta, closes every handle, clears in-memory
// state, and chdir's back out of the database directory.
func (m *Manager) CloseDatabase() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db.Name == "" {
		return nil
	}
	if err := m.FlushMeta(); err != nil {
		return err
	}
	for _, fh := range m.fhs {
		fh.Close()
		m.dm.CloseFile(fh.Fd())
	}
	for _, ih := range m.ihs {
		ih.Close()
	}
	m.fhs = make(map[string]*record.FileHandle)
	m.ihs = make(map[string]IndexHandle)
	m.db = DbMeta{}

	return os.Chdir("..")
}

// ShowTables returns the open database's table names in a stable
// order and appends a Markdown-style table to output.txt.
func (m *Manager) ShowTables() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.db.Tabs))
	for name := range m.db.Tabs {
		names = append(names, name)
	}
	sort.Strings(names)

	f, err := os.OpenFile("output.txt", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errs.New("catalog.ShowTables", errs.ErrUnix).WithErr(err)
	}
	defer f.Close()
	f.WriteString("| Tables |\n")
	for _, name := range names {
		f.WriteString("| " + name + " |\n")
	}
	return names, nil
}

// ShowIndexes returns tabName's index names in a stable order.
func (m *Manager) ShowIndexes(tabName string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, ok := m.db.Tabs[tabName]
	if !ok {
		return nil, errs.New("catalog.ShowIndexes", errs.ErrTableNotFound).WithName(tabName)
	}
	names := make([]string, 0, len(tab.Indexes))
	for name := range tab.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DescTable returns tabName's columns in declaration order.
func (m *Manager) DescTable(tabName string) ([]ColMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, ok := m.db.Tabs[tabName]
	if !ok {
		return nil, errs.New("catalog.DescTable", errs.ErrTableNotFound).WithName(tabName)
	}
	return tab.Cols, nil
}

// CreateTable packs colDefs into offsets, creates and opens the
// table's record file, and persists the new TabMeta.
func (m *Manager) CreateTable(tabName string, colDefs []ColDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db.IsTable(tabName) {
		return errs.New("catalog.CreateTable", errs.ErrTableExists).WithName(tabName)
	}

	tab := NewTabMeta(tabName)
	offset := int32(0)
	for _, cd := range colDefs {
		tab.Cols = append(tab.Cols, ColMeta{
			TabName: tabName, Name: cd.Name, Type: cd.Type, Len: cd.Len, Offset: offset,
		})
		offset += cd.Len
	}
	recordSize := offset

	if err := record.CreateFile(m.dm, tabName, recordSize); err != nil {
		return err
	}
	fh, err := record.OpenFile(m.dm, m.bpm, tabName)
	if err != nil {
		return err
	}
	m.fhs[tabName] = fh
	m.db.Tabs[tabName] = tab

	return m.FlushMeta()
}

// DropTable drops every index on tabName, destroys its record file,
// and removes it from the catalog.
func (m *Manager) DropTable(tabName string) error {
	m.mu.Lock()
	tab, ok := m.db.Tabs[tabName]
	m.mu.Unlock()
	if !ok {
		return errs.New("catalog.DropTable", errs.ErrTableNotFound).WithName(tabName)
	}

	for _, idx := range tab.Indexes {
		colNames := make([]string, len(idx.Cols))
		for i, c := range idx.Cols {
			colNames[i] = c.Name
		}
		if err := m.DropIndex(tabName, colNames); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fh, open := m.fhs[tabName]
	delete(m.fhs, tabName)
	if open {
		if err := fh.Close(); err != nil {
			return err
		}
		if err := m.dm.CloseFile(fh.Fd()); err != nil {
			return err
		}
	}
	if err := m.dm.DestroyFile(tabName); err != nil {
		return err
	}
	delete(m.db.Tabs, tabName)
	return m.FlushMeta()
}

// CreateIndex creates and backfills an index over colNames on tabName.
func (m *Manager) CreateIndex(tabName string, colNames []string) error {
	m.mu.Lock()
	tab, ok := m.db.Tabs[tabName]
	if !ok {
		m.mu.Unlock()
		return errs.New("catalog.CreateIndex", errs.ErrTableNotFound).WithName(tabName)
	}

	cols := make([]ColMeta, 0, len(colNames))
	seen := mapset.NewSet[string]()
	for _, colName := range colNames {
		i := tab.GetCol(colName)
		if i < 0 {
			m.mu.Unlock()
			return errs.New("catalog.CreateIndex", errs.ErrColumnNotFound).WithName(colName)
		}
		if !seen.Add(colName) {
			m.mu.Unlock()
			return errs.New("catalog.CreateIndex", errs.ErrDuplicateColumn).WithName(colName)
		}
		cols = append(cols, tab.Cols[i])
	}

	ixName := tab.GetIndexName(colNames)
	if _, exists := tab.Indexes[ixName]; exists {
		m.mu.Unlock()
		return errs.New("catalog.CreateIndex", errs.ErrIndexExists).WithName(ixName)
	}
	fh := m.fhs[tabName]
	m.mu.Unlock()

	if err := CreateIndexFile(m.dm, ixName); err != nil {
		return err
	}
	ih, err := OpenIndexFile(m.dm, ixName)
	if err != nil {
		return err
	}

	colTotLen := int32(0)
	for _, c := range cols {
		colTotLen += c.Len
	}

	scan := record.NewScan(fh)
	for !scan.IsEnd() {
		rid := scan.Rid()
		rec, err := fh.GetRecord(rid)
		if err != nil {
			return err
		}
		key := make([]byte, 0, colTotLen)
		for _, c := range cols {
			key = append(key, rec[c.Offset:c.Offset+c.Len]...)
		}
		if err := ih.Insert(key, rid); err != nil {
			return err
		}
		scan.Next()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tab = m.db.Tabs[tabName]
	idxMeta := IndexMeta{TabName: tabName, IndexName: ixName, ColTotLen: colTotLen, ColNum: int32(len(cols)), Cols: cols}
	idxMeta.calculateOffsets()
	tab.Indexes[ixName] = idxMeta
	for _, colName := range colNames {
		i := tab.GetCol(colName)
		tab.Cols[i].Index = true
	}
	m.db.Tabs[tabName] = tab
	m.ihs[ixName] = ih

	return m.FlushMeta()
}

// DropIndex removes the index over colNames on tabName.
func (m *Manager) DropIndex(tabName string, colNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, ok := m.db.Tabs[tabName]
	if !ok {
		return errs.New("catalog.DropIndex", errs.ErrTableNotFound).WithName(tabName)
	}
	ixName := tab.GetIndexName(colNames)
	if _, exists := tab.Indexes[ixName]; !exists {
		return errs.New("catalog.DropIndex", errs.ErrIndexNotFound).WithName(ixName)
	}
	if !m.dm.IsFile(ixName) {
		return errs.New("catalog.DropIndex", errs.ErrIndexNotFound).WithName(ixName)
	}

	if ih, open := m.ihs[ixName]; open {
		ih.Close()
		delete(m.ihs, ixName)
	}
	if err := m.dm.DestroyFile(ixName); err != nil {
		return err
	}
	delete(tab.Indexes, ixName)
	for _, colName := range colNames {
		i := tab.GetCol(colName)
		if i >= 0 {
			tab.Cols[i].Index = false
		}
	}
	m.db.Tabs[tabName] = tab
	return m.FlushMeta()
}

// InsertRecord inserts buf into tabName's record file. It is the DML
// entry point DDL callers use to populate a table before/after
// create_index; the record layer itself has no notion of table names.
func (m *Manager) InsertRecord(tabName string, buf []byte) (record.Rid, error) {
	m.mu.Lock()
	fh, ok := m.fhs[tabName]
	m.mu.Unlock()
	if !ok {
		return record.Rid{}, errs.New("catalog.InsertRecord", errs.ErrTableNotFound).WithName(tabName)
	}
	return fh.InsertRecord(buf)
}

// GetRecord reads back the record at rid in tabName's record file.
func (m *Manager) GetRecord(tabName string, rid record.Rid) ([]byte, error) {
	m.mu.Lock()
	fh, ok := m.fhs[tabName]
	m.mu.Unlock()
	if !ok {
		return nil, errs.New("catalog.GetRecord", errs.ErrTableNotFound).WithName(tabName)
	}
	return fh.GetRecord(rid)
}

// ScanTable returns every live record in tabName's record file, in rid
// order, for the shell driver's "scan" command; it is a thin wrapper
// over record.Scan since the catalog is the only place that knows a
// table name's open FileHandle.
func (m *Manager) ScanTable(tabName string) ([]RowRecord, error) {
	m.mu.Lock()
	fh, ok := m.fhs[tabName]
	m.mu.Unlock()
	if !ok {
		return nil, errs.New("catalog.ScanTable", errs.ErrTableNotFound).WithName(tabName)
	}

	var rows []RowRecord
	for s := record.NewScan(fh); !s.IsEnd(); s.Next() {
		rid := s.Rid()
		buf, err := fh.GetRecord(rid)
		if err != nil {
			return nil, err
		}
		rows = append(rows, RowRecord{Rid: rid, Data: buf})
	}
	return rows, nil
}

// RowRecord pairs a scanned record's rid with its raw bytes.
type RowRecord struct {
	Rid  record.Rid
	Data []byte
}

// Lookup resolves key in tabName's named index, if it exists.
func (m *Manager) Lookup(tabName, ixName string, key []byte) (record.Rid, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, ok := m.db.Tabs[tabName]
	if !ok {
		return record.Rid{}, false, errs.New("catalog.Lookup", errs.ErrTableNotFound).WithName(tabName)
	}
	if _, exists := tab.Indexes[ixName]; !exists {
		return record.Rid{}, false, errs.New("catalog.Lookup", errs.ErrIndexNotFound).WithName(ixName)
	}
	ih, open := m.ihs[ixName]
	if !open {
		return record.Rid{}, false, errs.New("catalog.Lookup", errs.ErrIndexNotFound).WithName(ixName)
	}
	rid, ok := ih.Lookup(key)
	return rid, ok, nil
}
