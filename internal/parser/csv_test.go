package parser

import "testing"

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1,2,3\n", ','},
		{"a;b;c\n1,5;2;3\n", ';'},
		{"a\tb\tc\n", '\t'},
		{"single\n1\n", ','},
	}
	for _, tc := range cases {
		if got := sniffDelimiter([]byte(tc.in)); got != tc.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCSVParserSemicolonAndBOM(t *testing.T) {
	tab, err := csvParser{}.Parse([]byte("\ufeffGroup;Score\nA;10,5\nB;9\n"), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tab.Header[0] != "Group" {
		t.Fatalf("BOM not stripped: %q", tab.Header[0])
	}
	if tab.Rows[0][1] != "10,5" {
		t.Fatalf("unexpected cell: %q", tab.Rows[0][1])
	}
}

func TestNormalizeHeaderBlankAndDuplicate(t *testing.T) {
	got := normalizeHeader([]string{" a ", "", "a", "a"})
	want := []string{"a", "Unnamed: 1", "a.1", "a.2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("normalizeHeader = %v, want %v", got, want)
		}
	}
}

func TestPickSheet(t *testing.T) {
	sheets := []string{"Summary", "Data"}
	cases := []struct {
		opt  Options
		want string
	}{
		{Options{}, "Summary"},
		{Options{SheetIndex: 2}, "Data"},
		{Options{SheetName: "DATA"}, "Data"},
		{Options{SheetName: "data", SheetIndex: 1}, "Data"},
	}
	for _, tc := range cases {
		got, err := pickSheet(sheets, tc.opt)
		if err != nil || got != tc.want {
			t.Errorf("pickSheet(%+v) = %q, %v; want %q", tc.opt, got, err, tc.want)
		}
	}
	if _, err := pickSheet(sheets, Options{SheetIndex: 5}); err == nil {
		t.Errorf("expected out of range error")
	}
	if _, err := pickSheet(nil, Options{}); err != ErrEmpty {
		t.Errorf("expected ErrEmpty for a workbook without sheets, got %v", err)
	}
}
