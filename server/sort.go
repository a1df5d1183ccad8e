package server

import (
	"sort"
	"strings"

	"github.com/rezer-bleede/cars-analyzer/models"
)

// sortRows orders the filtered view by one canonical field. Rows without a
// value for the key compare greater than rows that have one, so nulls sink
// to the bottom of an ascending sort.
func sortRows(rows []models.Row, key string, descending bool) {
	dir := 1
	if descending {
		dir = -1
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return compareValues(rows[i][key], rows[j][key])*dir < 0
	})
}

// compareValues compares two row values: numerics numerically, everything
// else as strings.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	af, aOK := models.Number(a)
	bf, bOK := models.Number(b)
	if aOK && bOK {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(valueText(a), valueText(b))
}

func valueText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := models.Number(v); ok {
		return models.FormatNumber(f)
	}
	return ""
}
