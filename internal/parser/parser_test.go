package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/xuri/excelize/v2"
)

func TestParseFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "hop_harvest.csv")
	content := "date,plot,alpha_acids,moisture\n" +
		"2024-08-10,A1,12.5%,74\n" +
		"2024-08-12,A1,11.8%\n" +
		"2024-08-15,B3,10.2%,68\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tab, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tab.Name != "hop_harvest.csv" {
		t.Fatalf("name: got %q", tab.Name)
	}
	if strings.Join(tab.Header, "|") != "date|plot|alpha_acids|moisture" {
		t.Fatalf("header: %v", tab.Header)
	}
	if len(tab.Rows) != 3 {
		t.Fatalf("rows: got %d", len(tab.Rows))
	}
	if len(tab.Rows[1]) != 4 || tab.Rows[1][3] != "" {
		t.Fatalf("ragged row not padded: %q", tab.Rows[1])
	}
}

func TestParseBytesUnsupported(t *testing.T) {
	_, err := parser.ParseBytes("notes.docx", []byte("x"), parser.Options{})
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if parser.Supported("notes.docx") || !parser.Supported("DATA.XLSX") {
		t.Fatalf("Supported mismatch")
	}
}

func TestParseBytesEmptyCSV(t *testing.T) {
	_, err := parser.ParseBytes("empty.csv", nil, parser.Options{})
	if !errors.Is(err, parser.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestParseXLSXSheetSelection(t *testing.T) {
	book := buildWorkbook(t, map[string][][]string{
		"Summary": {{"k", "v"}, {"a", "1"}},
		"Data":    {{"x", "label"}, {"1.5", "yes"}, {"2.5", "no"}, {"", ""}, {"3", "yes"}},
	}, []string{"Summary", "Data"})

	first, err := parser.ParseBytes("book.xlsx", book, parser.Options{})
	if err != nil {
		t.Fatalf("parse first sheet: %v", err)
	}
	if strings.Join(first.Header, ",") != "k,v" || len(first.Rows) != 1 {
		t.Fatalf("unexpected first sheet: %+v", first)
	}

	data, err := parser.ParseBytes("book.xlsx", book, parser.Options{SheetName: "data"})
	if err != nil {
		t.Fatalf("parse by name: %v", err)
	}
	if strings.Join(data.Header, ",") != "x,label" {
		t.Fatalf("header: %v", data.Header)
	}
	if len(data.Rows) != 3 {
		t.Fatalf("blank row should be skipped, got %d rows", len(data.Rows))
	}
	if data.Rows[1][1] != "no" {
		t.Fatalf("string cell lookup failed: %v", data.Rows[1])
	}

	byIndex, err := parser.ParseBytes("book.xlsx", book, parser.Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("parse by index: %v", err)
	}
	if len(byIndex.Rows) != 3 {
		t.Fatalf("index 2 should select Data, got %+v", byIndex)
	}

	_, err = parser.ParseBytes("book.xlsx", book, parser.Options{SheetName: "Missing"})
	if err == nil || !strings.Contains(err.Error(), "Available sheets: Summary, Data") {
		t.Fatalf("expected missing sheet error listing sheets, got %v", err)
	}
}

func TestParseXLSXMalformed(t *testing.T) {
	if _, err := parser.ParseBytes("broken.xlsx", []byte("not a zip"), parser.Options{}); err == nil {
		t.Fatalf("expected error for malformed xlsx")
	}
}

func TestParseXLSXNumbersAndIndexRange(t *testing.T) {
	book := buildWorkbook(t, map[string][][]string{
		"Only": {{}, {"x", "y", "note"}, {"1.5", "2"}, {"3", "4", "ok"}},
	}, []string{"Only"})
	tbl, err := parser.ParseBytes("book.xlsx", book, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Join(tbl.Header, ",") != "x,y,note" {
		t.Fatalf("leading blank row should be skipped, header %v", tbl.Header)
	}
	if strings.Join(tbl.Rows[0], "|") != "1.5|2|" || strings.Join(tbl.Rows[1], "|") != "3|4|ok" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
	_, err = parser.ParseBytes("book.xlsx", book, parser.Options{SheetIndex: 3})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected index range error, got %v", err)
	}
}

// buildWorkbook writes each sheet's rows with excelize, in order.
func buildWorkbook(t *testing.T, sheets map[string][][]string, order []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			cells := make([]interface{}, len(row))
			for c, v := range row {
				if v == "" {
					cells[c] = nil
					continue
				}
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cells[c] = n
				} else {
					cells[c] = v
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
