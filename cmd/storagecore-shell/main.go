// Command storagecore-shell is a line-oriented REPL over the storage
// core: create/open a database directory, define tables, insert and
// scan records, and build indexes, all from a terminal. There is no
// SQL layer here; commands map directly onto catalog.Manager calls.
//
// Logging goes through common.Logger, and a SIGQUIT goroutine dumps
// goroutine stacks via common.DumpGoroutines for debugging a wedged
// session.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ryogrid-labs/storagecore/catalog"
	"github.com/ryogrid-labs/storagecore/common"
	"github.com/ryogrid-labs/storagecore/printer"
	"github.com/ryogrid-labs/storagecore/storage/buffer"
	"github.com/ryogrid-labs/storagecore/storage/disk"
)

const poolSize = 128

// kindInt and kindChar are a shell-level convention for reading create
// table's "name:kind[:len]" column syntax; the catalog itself treats a
// column's Type as an opaque int32. kindInt columns are 4-byte
// little-endian integers, kindChar columns are fixed-width byte
// strings padded with zeros.
const (
	kindInt  = int32(0)
	kindChar = int32(1)
)

func main() {
	go dumpGoroutinesOnSigquit()

	dm := disk.NewFileManager()
	bpm := buffer.NewPoolManager(poolSize, dm)
	mgr := catalog.NewManager(dm, bpm)

	sh := &shell{mgr: mgr, out: os.Stdout}
	sh.run(os.Stdin)
}

func dumpGoroutinesOnSigquit() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGQUIT)
	for range sigCh {
		common.DumpGoroutines()
	}
}

type shell struct {
	mgr    *catalog.Manager
	out    *os.File
	dbOpen bool
}

func (s *shell) run(in *os.File) {
	log := common.Logger()
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "storagecore> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			if err := s.dispatch(line); err != nil {
				log.Error("command failed", "line", line, "err", err)
				fmt.Fprintln(s.out, "error:", err)
			}
		}
		fmt.Fprint(s.out, "storagecore> ")
	}
	if s.dbOpen {
		s.mgr.CloseDatabase()
	}
}

func (s *shell) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "create":
		if len(args) >= 2 && args[0] == "database" {
			return s.mgr.CreateDatabase(args[1])
		}
		if len(args) >= 3 && args[0] == "table" {
			return s.createTable(args[1], args[2:])
		}
		if len(args) >= 3 && args[0] == "index" {
			return s.mgr.CreateIndex(args[1], args[2:])
		}
		return fmt.Errorf("usage: create database|table|index ...")
	case "drop":
		if len(args) >= 2 && args[0] == "database" {
			return s.mgr.DropDatabase(args[1])
		}
		if len(args) >= 2 && args[0] == "table" {
			return s.mgr.DropTable(args[1])
		}
		if len(args) >= 3 && args[0] == "index" {
			return s.mgr.DropIndex(args[1], args[2:])
		}
		return fmt.Errorf("usage: drop database|table|index ...")
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <database>")
		}
		if err := s.mgr.OpenDatabase(args[0]); err != nil {
			return err
		}
		s.dbOpen = true
		return nil
	case "close":
		if err := s.mgr.CloseDatabase(); err != nil {
			return err
		}
		s.dbOpen = false
		return nil
	case "show":
		if len(args) == 1 && args[0] == "tables" {
			return s.showTables()
		}
		if len(args) == 2 && args[0] == "indexes" {
			return s.showIndexes(args[1])
		}
		return fmt.Errorf("usage: show tables | show indexes <table>")
	case "desc":
		if len(args) != 1 {
			return fmt.Errorf("usage: desc <table>")
		}
		return s.descTable(args[0])
	case "insert":
		if len(args) < 2 {
			return fmt.Errorf("usage: insert <table> <val>...")
		}
		return s.insert(args[0], args[1:])
	case "scan":
		if len(args) != 1 {
			return fmt.Errorf("usage: scan <table>")
		}
		return s.scan(args[0])
	case "lookup":
		if len(args) != 3 {
			return fmt.Errorf("usage: lookup <table> <index> <val>")
		}
		return s.lookup(args[0], args[1], args[2])
	case "help":
		s.help()
		return nil
	case "quit", "exit":
		os.Exit(0)
	}
	return fmt.Errorf("unknown command %q (try 'help')", cmd)
}

func (s *shell) help() {
	fmt.Fprintln(s.out, `commands:
  create database <name>
  drop database <name>
  open <name>
  close
  create table <name> <col:kind[:len]>...     kind is int or char
  drop table <name>
  show tables
  desc <table>
  insert <table> <val>...
  scan <table>
  create index <table> <col>...
  drop index <table> <col>...
  show indexes <table>
  lookup <table> <index> <val>
  quit`)
}

func (s *shell) createTable(tabName string, colSpecs []string) error {
	defs := make([]catalog.ColDef, 0, len(colSpecs))
	for _, spec := range colSpecs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return fmt.Errorf("bad column spec %q, want name:kind[:len]", spec)
		}
		var kind int32
		length := int32(4)
		switch parts[1] {
		case "int":
			kind = kindInt
			length = 4
		case "char":
			kind = kindChar
			if len(parts) < 3 {
				return fmt.Errorf("char column %q needs an explicit length", parts[0])
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return fmt.Errorf("bad length in column spec %q: %w", spec, err)
			}
			length = int32(n)
		default:
			return fmt.Errorf("unknown column kind %q (want int or char)", parts[1])
		}
		defs = append(defs, catalog.ColDef{Name: parts[0], Type: kind, Len: length})
	}
	return s.mgr.CreateTable(tabName, defs)
}

func (s *shell) showTables() error {
	names, err := s.mgr.ShowTables()
	if err != nil {
		return err
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	printer.PrintTable(s.out, []string{"Tables"}, rows)
	return nil
}

func (s *shell) showIndexes(tabName string) error {
	names, err := s.mgr.ShowIndexes(tabName)
	if err != nil {
		return err
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	printer.PrintTable(s.out, []string{"Indexes"}, rows)
	return nil
}

func (s *shell) descTable(tabName string) error {
	cols, err := s.mgr.DescTable(tabName)
	if err != nil {
		return err
	}
	rows := make([][]string, len(cols))
	for i, c := range cols {
		kind := "int"
		if c.Type == kindChar {
			kind = "char"
		}
		rows[i] = []string{c.Name, kind, strconv.Itoa(int(c.Len)), strconv.FormatBool(c.Index)}
	}
	printer.PrintTable(s.out, []string{"Field", "Type", "Len", "Index"}, rows)
	return nil
}

func (s *shell) insert(tabName string, vals []string) error {
	cols, err := s.mgr.DescTable(tabName)
	if err != nil {
		return err
	}
	if len(vals) != len(cols) {
		return fmt.Errorf("table %s has %d columns, got %d values", tabName, len(cols), len(vals))
	}
	buf, err := encodeRow(cols, vals)
	if err != nil {
		return err
	}
	rid, err := s.mgr.InsertRecord(tabName, buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "inserted at %s\n", rid.String())
	return nil
}

func (s *shell) scan(tabName string) error {
	cols, err := s.mgr.DescTable(tabName)
	if err != nil {
		return err
	}
	rows, err := s.mgr.ScanTable(tabName)
	if err != nil {
		return err
	}
	captions := make([]string, len(cols)+1)
	captions[0] = "rid"
	for i, c := range cols {
		captions[i+1] = c.Name
	}
	table := make([][]string, len(rows))
	for i, row := range rows {
		table[i] = append([]string{row.Rid.String()}, decodeRow(cols, row.Data)...)
	}
	printer.PrintTable(s.out, captions, table)
	return nil
}

func (s *shell) lookup(tabName, ixName, val string) error {
	cols, err := s.mgr.DescTable(tabName)
	if err != nil {
		return err
	}
	col := cols[0]
	for _, c := range cols {
		if strings.HasPrefix(ixName, tabName+"_"+c.Name) {
			col = c
			break
		}
	}
	key, err := encodeValue(col, val)
	if err != nil {
		return err
	}
	rid, ok, err := s.mgr.Lookup(tabName, ixName, key)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "not found")
		return nil
	}
	buf, err := s.mgr.GetRecord(tabName, rid)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s -> %s\n", rid.String(), strings.Join(decodeRow(cols, buf), " "))
	return nil
}

func encodeRow(cols []catalog.ColMeta, vals []string) ([]byte, error) {
	buf := make([]byte, 0, totalLen(cols))
	for i, c := range cols {
		v, err := encodeValue(c, vals[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, v...)
	}
	return buf, nil
}

func encodeValue(c catalog.ColMeta, val string) ([]byte, error) {
	out := make([]byte, c.Len)
	if c.Type == kindChar {
		copy(out, val)
		return out, nil
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name, err)
	}
	binary.LittleEndian.PutUint32(out, uint32(int32(n)))
	return out, nil
}

func decodeRow(cols []catalog.ColMeta, buf []byte) []string {
	out := make([]string, len(cols))
	off := int32(0)
	for i, c := range cols {
		field := buf[off : off+c.Len]
		if c.Type == kindChar {
			out[i] = strings.TrimRight(string(field), "\x00")
		} else {
			out[i] = strconv.Itoa(int(int32(binary.LittleEndian.Uint32(field))))
		}
		off += c.Len
	}
	return out
}

func totalLen(cols []catalog.ColMeta) int {
	n := 0
	for _, c := range cols {
		n += int(c.Len)
	}
	return n
}
