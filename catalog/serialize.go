package catalog

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// tokenReader wraps a bufio.Scanner configured for whitespace-separated
// tokens, matching the grammar an istream >> chain reads.
type tokenReader struct {
	sc *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() string {
	if !t.sc.Scan() {
		return ""
	}
	return t.sc.Text()
}

func (t *tokenReader) nextInt() int32 {
	v, _ := strconv.ParseInt(t.next(), 10, 32)
	return int32(v)
}

func (t *tokenReader) nextBool() bool {
	return t.next() == "1"
}

func writeColMeta(w io.Writer, c ColMeta) {
	idx := 0
	if c.Index {
		idx = 1
	}
	fmt.Fprintf(w, "%s %s %d %d %d %d\n", c.TabName, c.Name, c.Type, c.Len, c.Offset, idx)
}

func readColMeta(t *tokenReader) ColMeta {
	return ColMeta{
		TabName: t.next(),
		Name:    t.next(),
		Type:    t.nextInt(),
		Len:     t.nextInt(),
		Offset:  t.nextInt(),
		Index:   t.nextBool(),
	}
}

func writeIndexMeta(w io.Writer, im IndexMeta) {
	fmt.Fprintf(w, "%s %s %d %d\n", im.TabName, im.IndexName, im.ColTotLen, im.ColNum)
	for _, c := range im.Cols {
		writeColMeta(w, c)
	}
}

func readIndexMeta(t *tokenReader) IndexMeta {
	im := IndexMeta{
		TabName:   t.next(),
		IndexName: t.next(),
		ColTotLen: t.nextInt(),
		ColNum:    t.nextInt(),
	}
	im.Cols = make([]ColMeta, im.ColNum)
	for i := range im.Cols {
		im.Cols[i] = readColMeta(t)
	}
	im.calculateOffsets()
	return im
}

func writeTabMeta(w io.Writer, tab TabMeta) {
	fmt.Fprintf(w, "%s\n%d\n", tab.Name, len(tab.Cols))
	for _, c := range tab.Cols {
		writeColMeta(w, c)
	}
	fmt.Fprintf(w, "%d\n", len(tab.Indexes))
	names := make([]string, 0, len(tab.Indexes))
	for name := range tab.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\n", name)
		writeIndexMeta(w, tab.Indexes[name])
	}
}

func readTabMeta(t *tokenReader) TabMeta {
	tab := NewTabMeta(t.next())
	nCols := t.nextInt()
	tab.Cols = make([]ColMeta, nCols)
	for i := range tab.Cols {
		tab.Cols[i] = readColMeta(t)
	}
	nIndexes := t.nextInt()
	for i := int32(0); i < nIndexes; i++ {
		name := t.next()
		tab.Indexes[name] = readIndexMeta(t)
	}
	return tab
}

// EncodeDbMeta writes d in the whitespace-token grammar the catalog
// persists to DB_META_NAME.
func EncodeDbMeta(w io.Writer, d DbMeta) {
	fmt.Fprintf(w, "%s\n%d\n", d.Name, len(d.Tabs))
	names := make([]string, 0, len(d.Tabs))
	for name := range d.Tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeTabMeta(w, d.Tabs[name])
	}
}

// DecodeDbMeta reads a DbMeta previously written by EncodeDbMeta.
func DecodeDbMeta(r io.Reader) DbMeta {
	t := newTokenReader(r)
	d := NewDbMeta(t.next())
	nTabs := t.nextInt()
	for i := int32(0); i < nTabs; i++ {
		tab := readTabMeta(t)
		d.Tabs[tab.Name] = tab
	}
	return d
}
