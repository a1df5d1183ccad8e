package services

import (
	"sort"
	"time"

	"github.com/rezer-bleede/cars-analyzer/models"
)

const defaultFlipperWindowDays = 7

// Flippers returns recently listed cars priced below their market average,
// grouped by listing day (newest day first) and ordered inside each day by
// discount percentage, then absolute discount, then recency. These are the
// candidates worth flipping.
func Flippers(rows []models.Row, windowDays int) []models.Row {
	if windowDays <= 0 {
		windowDays = defaultFlipperWindowDays
	}
	cutoff := time.Now().Add(-time.Duration(windowDays) * 24 * time.Hour).UnixMilli()
	return flippersSince(rows, cutoff)
}

func flippersSince(rows []models.Row, cutoffMs int64) []models.Row {
	byDay := make(map[string][]models.Row)
	for _, d := range rows {
		ms, okMs := d.Num("created_at_epoch_ms")
		if !okMs || int64(ms) < cutoffMs {
			continue
		}
		diff, okDiff := d.Num("market_diff")
		if !okDiff || diff <= 0 {
			continue
		}
		day := d.Str("created_at_day")
		if day == "" {
			day = EpochMsToISO(int64(ms))[:10]
		}
		byDay[day] = append(byDay[day], d)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	var ordered []models.Row
	for _, day := range days {
		group := byDay[day]
		sort.SliceStable(group, func(i, j int) bool {
			pctI := numOrNegInf(group[i], "market_discount_pct")
			pctJ := numOrNegInf(group[j], "market_discount_pct")
			if pctI != pctJ {
				return pctI > pctJ
			}
			diffI := numOrNegInf(group[i], "market_diff")
			diffJ := numOrNegInf(group[j], "market_diff")
			if diffI != diffJ {
				return diffI > diffJ
			}
			msI, _ := group[i].Num("created_at_epoch_ms")
			msJ, _ := group[j].Num("created_at_epoch_ms")
			return msI > msJ
		})
		ordered = append(ordered, group...)
	}
	return ordered
}

func numOrNegInf(d models.Row, field string) float64 {
	if f, ok := d.Num(field); ok {
		return f
	}
	return -1 << 62
}
