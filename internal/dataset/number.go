package dataset

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a single numeric cell, guessing its decimal mark with DecimalMark.
// Columns are parsed with one mark chosen for all their cells; see parseColumn.
func ParseNumber(s string) (float64, bool) {
	return parseWithMark(s, DecimalMark([]string{s}))
}

// DecimalMark picks the decimal separator shared by cells. A cell holding both ',' and
// '.' decides by whichever comes last. Otherwise a separator that repeats inside one cell,
// or that is always followed by exactly three digits, is a thousands mark. A remaining
// lone ',' is decimal.
func DecimalMark(cells []string) rune {
	var commas, dots []string
	for _, c := range cells {
		c = cleanNumber(c)
		cpos, dpos := strings.LastIndex(c, ","), strings.LastIndex(c, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				return ','
			}
			return '.'
		case cpos >= 0:
			commas = append(commas, c)
		case dpos >= 0:
			dots = append(dots, c)
		}
	}
	if len(commas) == 0 {
		if groupsOfThree(dots, '.') && anyRepeat(dots, '.') {
			return ','
		}
		return '.'
	}
	if anyRepeat(commas, ',') || groupsOfThree(commas, ',') {
		return '.'
	}
	return ','
}

func anyRepeat(cells []string, sep rune) bool {
	for _, c := range cells {
		if strings.Count(c, string(sep)) > 1 {
			return true
		}
	}
	return false
}

// groupsOfThree reports whether every sep in every cell is followed by exactly three digits.
func groupsOfThree(cells []string, sep rune) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		parts := strings.Split(c, string(sep))
		for _, p := range parts[1:] {
			if len(p) != 3 || strings.Trim(p, "0123456789") != "" {
				return false
			}
		}
	}
	return true
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

// parseWithMark parses s with dec as the decimal mark; the other separators and spaces are
// dropped as thousands marks. A '%' is dropped.
func parseWithMark(s string, dec rune) (float64, bool) {
	raw := cleanNumber(s)
	if raw == "" {
		return 0, false
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
