package services

import (
	"testing"

	"github.com/rezer-bleede/cars-analyzer/models"
)

func flipperRow(uid string, daysAgo int, diff, pct float64) models.Row {
	ms := marketNow.AddDate(0, 0, -daysAgo).UnixMilli()
	return models.Row{
		"uid":                 uid,
		"created_at_epoch_ms": ms,
		"created_at_day":      EpochMsToISO(ms)[:10],
		"market_diff":         diff,
		"market_discount_pct": pct,
	}
}

func TestFlippersFiltersWindowAndDiscount(t *testing.T) {
	rows := []models.Row{
		flipperRow("in-window", 2, 5000, 6.0),
		flipperRow("too-old", 20, 9000, 10.0),
		flipperRow("overpriced", 1, -2000, -3.0),
		{"uid": "no-timestamp", "market_diff": 4000.0, "market_discount_pct": 5.0},
	}
	cutoff := marketNow.AddDate(0, 0, -7).UnixMilli()

	got := flippersSince(rows, cutoff)
	if len(got) != 1 {
		t.Fatalf("flippers: got %d rows, want 1", len(got))
	}
	if got[0].Str("uid") != "in-window" {
		t.Errorf("flippers kept %q", got[0].Str("uid"))
	}
}

func TestFlippersOrderedByDayThenDiscount(t *testing.T) {
	rows := []models.Row{
		flipperRow("old-day-big-pct", 3, 8000, 12.0),
		flipperRow("new-day-small-pct", 1, 1000, 2.0),
		flipperRow("new-day-big-pct", 1, 3000, 9.0),
	}
	cutoff := marketNow.AddDate(0, 0, -7).UnixMilli()

	got := flippersSince(rows, cutoff)
	if len(got) != 3 {
		t.Fatalf("flippers: got %d rows, want 3", len(got))
	}

	wantOrder := []string{"new-day-big-pct", "new-day-small-pct", "old-day-big-pct"}
	for i, want := range wantOrder {
		if got[i].Str("uid") != want {
			t.Errorf("order[%d]: got %q, want %q", i, got[i].Str("uid"), want)
		}
	}
}

func TestFlippersTieBreakOnDiff(t *testing.T) {
	a := flipperRow("small-diff", 1, 1000, 5.0)
	b := flipperRow("big-diff", 1, 4000, 5.0)
	cutoff := marketNow.AddDate(0, 0, -7).UnixMilli()

	got := flippersSince([]models.Row{a, b}, cutoff)
	if len(got) != 2 || got[0].Str("uid") != "big-diff" {
		t.Errorf("tie break: got %v first", got[0].Str("uid"))
	}
}

func TestFlippersEmptyInput(t *testing.T) {
	if got := Flippers(nil, 7); len(got) != 0 {
		t.Errorf("empty input: got %d rows", len(got))
	}
}
