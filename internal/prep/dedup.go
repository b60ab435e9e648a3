package prep

import (
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
)

// Deduplicate removes exact duplicate rows in place, keeping the first occurrence,
// and returns the number removed.
func Deduplicate(ds *dataset.Dataset) (int, error) {
	rows := ds.Rows()
	seen := make(map[string]struct{}, len(rows))
	keep := make([]int, 0, len(rows))
	for i, row := range rows {
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	removed := len(rows) - len(keep)
	if removed == 0 {
		return 0, nil
	}
	return removed, ds.Keep(keep)
}

// rowKey joins cells with a unit separator; missing cells compare equal to each other.
func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
