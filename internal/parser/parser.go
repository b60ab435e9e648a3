package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table is the raw result of parsing a tabular file: a header and string cells.
// Rows are padded to len(Header).
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Options controls format-specific parsing.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the header line.
	Delimiter rune
	// XLSX sheet selection: by name, else 1-based index (0 means the first sheet).
	SheetName  string
	SheetIndex int
}

// Parser defines a tabular file parser implementation.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte, opt Options) (*Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile reads path and parses it with the first parser accepting its name.
func ParseFile(path string, opt Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseBytes(filepath.Base(path), data, opt)
}

// ParseBytes parses an uploaded file's content, choosing a parser by name.
func ParseBytes(name string, content []byte, opt Options) (*Table, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			t, err := p.Parse(content, opt)
			if err != nil {
				return nil, err
			}
			t.Name = name
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (use .csv, .tsv or .xlsx)", ErrUnsupported, filepath.Ext(name))
}

// Supported reports whether any registered parser accepts the filename.
func Supported(name string) bool {
	for _, p := range registry {
		if p.CanParse(name) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// ErrEmpty indicates a file without a header row.
var ErrEmpty = errors.New("file has no header row")

// normalizeHeader trims names and fills blanks so every column is addressable.
func normalizeHeader(h []string) []string {
	out := make([]string, len(h))
	seen := map[string]int{}
	for i, name := range h {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	tmp := make([]string, n)
	copy(tmp, row)
	return tmp
}
