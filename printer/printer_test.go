package printer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ryogrid-labs/storagecore/printer"
)

func TestPrintTableProducesBorderedRows(t *testing.T) {
	var buf bytes.Buffer
	printer.PrintTable(&buf, []string{"Field", "Type"}, [][]string{
		{"a", "INT"},
		{"b", "VARCHAR"},
	})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6 (sep, header, sep, 2 rows, sep): %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "+") || !strings.HasSuffix(lines[0], "+") {
		t.Fatalf("separator line malformed: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Field") || !strings.Contains(lines[1], "Type") {
		t.Fatalf("header line missing captions: %q", lines[1])
	}
}
