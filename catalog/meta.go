// Package catalog implements the filesystem-directory-backed system
// catalog: each database is a directory holding a DbMeta text file, one
// record file per table, and one index file per index.
package catalog

// ColMeta describes one column of a table.
type ColMeta struct {
	TabName string
	Name    string
	Type    int32
	Len     int32
	Offset  int32
	Index   bool
}

// IndexMeta describes one composite index over a table.
type IndexMeta struct {
	TabName   string
	IndexName string
	ColTotLen int32
	ColNum    int32
	Cols      []ColMeta
	Offsets   []int32
}

// calculateOffsets fills Offsets by packing Cols in declaration order,
// matching IndexMeta::calculate_offsets.
func (im *IndexMeta) calculateOffsets() {
	im.Offsets = make([]int32, len(im.Cols))
	offset := int32(0)
	for i, c := range im.Cols {
		im.Offsets[i] = offset
		offset += c.Len
	}
}

// TabMeta describes one table: its columns in declaration order and
// its indexes keyed by index name.
type TabMeta struct {
	Name    string
	Cols    []ColMeta
	Indexes map[string]IndexMeta

	nameCache *indexNameCache
}

// NewTabMeta returns an empty table description named name.
func NewTabMeta(name string) TabMeta {
	return TabMeta{Name: name, Indexes: make(map[string]IndexMeta), nameCache: newIndexNameCache()}
}

// IsCol reports whether colName names one of the table's columns.
func (t TabMeta) IsCol(colName string) bool {
	for _, c := range t.Cols {
		if c.Name == colName {
			return true
		}
	}
	return false
}

// GetCol returns the index of colName within Cols, or -1.
func (t TabMeta) GetCol(colName string) int {
	for i, c := range t.Cols {
		if c.Name == colName {
			return i
		}
	}
	return -1
}

// GetIndexName returns the deterministic index name for colNames,
// computing and caching it on first use.
func (t *TabMeta) GetIndexName(colNames []string) string {
	if t.nameCache == nil {
		t.nameCache = newIndexNameCache()
	}
	if name, ok := t.nameCache.get(colNames); ok {
		return name
	}
	name := t.Name
	for _, c := range colNames {
		name += "_" + c
	}
	name += ".idx"
	t.nameCache.put(colNames, name)
	return name
}

// IsIndex reports whether an index over colNames already exists.
func (t *TabMeta) IsIndex(colNames []string) bool {
	_, ok := t.Indexes[t.GetIndexName(colNames)]
	return ok
}

// DbMeta describes one open database: its name and an ordered set of
// tables, serialized in sorted-by-name order for deterministic output.
type DbMeta struct {
	Name string
	Tabs map[string]TabMeta
}

// NewDbMeta returns an empty database description named name.
func NewDbMeta(name string) DbMeta {
	return DbMeta{Name: name, Tabs: make(map[string]TabMeta)}
}

// IsTable reports whether tabName names a table in the database.
func (d DbMeta) IsTable(tabName string) bool {
	_, ok := d.Tabs[tabName]
	return ok
}
