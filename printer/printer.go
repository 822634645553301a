// Package printer renders record sets as plain Markdown-style tables
// for ShowTables/ShowIndexes/DescTable output.
package printer

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders fixed-width rows separated by "+---+---+" rules, one
// column per caption.
type Printer struct {
	w        io.Writer
	numCols  int
	colWidth int
}

// New returns a Printer for a table with numCols columns, each 20
// characters wide, written to w.
func New(w io.Writer, numCols int) *Printer {
	return &Printer{w: w, numCols: numCols, colWidth: 20}
}

// PrintSeparator writes a "+---+...+" rule spanning every column.
func (p *Printer) PrintSeparator() {
	sep := "+" + strings.Repeat(strings.Repeat("-", p.colWidth)+"+", p.numCols)
	fmt.Fprintln(p.w, sep)
}

// PrintRecord writes one row of fields, padded to colWidth and joined
// with "|" borders. Extra fields beyond numCols are ignored; missing
// fields render as blank cells.
func (p *Printer) PrintRecord(fields []string) {
	var b strings.Builder
	b.WriteByte('|')
	for i := 0; i < p.numCols; i++ {
		field := ""
		if i < len(fields) {
			field = fields[i]
		}
		fmt.Fprintf(&b, " %-*s|", p.colWidth-1, field)
	}
	fmt.Fprintln(p.w, b.String())
}

// PrintTable writes a full separator/header/separator/rows/separator
// block in one call.
func PrintTable(w io.Writer, captions []string, rows [][]string) {
	p := New(w, len(captions))
	p.PrintSeparator()
	p.PrintRecord(captions)
	p.PrintSeparator()
	for _, row := range rows {
		p.PrintRecord(row)
	}
	p.PrintSeparator()
}
