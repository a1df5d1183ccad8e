package services

import (
	"math"
	"strings"
	"time"

	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

// marketWindowDays bounds which listings feed a cohort average. Stale
// listings must not anchor the reference price, but they still receive one.
const marketWindowDays = 90

type cohort struct {
	sum   float64
	count int
}

// MarketAggregator computes per-cohort (make, model, year) mean prices over
// the recent window and back-annotates every row with its market reference.
type MarketAggregator struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewMarketAggregator creates a MarketAggregator with the given logger.
func NewMarketAggregator(logger *utils.Logger) *MarketAggregator {
	return &MarketAggregator{logger: logger, now: time.Now}
}

// Annotate runs the two-pass aggregation over the full dataset. Pass one
// builds cohort sums from rows priced within the window; pass two annotates
// every row, windowed or not, against its cohort.
func (m *MarketAggregator) Annotate(rows []models.Row) {
	cutoff := m.now().Add(-marketWindowDays * 24 * time.Hour).UnixMilli()

	cohorts := make(map[string]*cohort)
	for _, d := range rows {
		price, okPrice := d.Num("price")
		if !okPrice {
			continue
		}
		ms, okMs := d.Num("created_at_epoch_ms")
		if !okMs || int64(ms) < cutoff {
			continue
		}
		key, okKey := cohortKey(d)
		if !okKey {
			continue
		}
		c := cohorts[key]
		if c == nil {
			c = &cohort{}
			cohorts[key] = c
		}
		c.sum += price
		c.count++
	}

	for _, d := range rows {
		var avg any
		count := 0
		if key, okKey := cohortKey(d); okKey {
			if c := cohorts[key]; c != nil && c.count > 0 {
				avg = math.Round(c.sum / float64(c.count))
				count = c.count
			}
		}
		d["market_avg"] = avg
		d["market_count"] = count

		price, okPrice := d.Num("price")
		avgVal, okAvg := models.Number(avg)
		if okPrice && okAvg {
			diff := avgVal - price
			d["market_diff"] = diff
			if avgVal != 0 {
				d["market_discount_pct"] = diff / avgVal * 100
			} else {
				d["market_discount_pct"] = nil
			}
		} else {
			d["market_diff"] = nil
			d["market_discount_pct"] = nil
		}
	}

	m.logger.Info("[market] %d cohorts over the last %d days", len(cohorts), marketWindowDays)
}

// cohortKey derives the lowercase make|model|year comparison key. Rows
// without a resolvable make, model and finite year belong to no cohort.
func cohortKey(d models.Row) (string, bool) {
	makeName := d.Str("details_make")
	if makeName == "" {
		makeName = d.Str("brand")
	}
	model := d.Str("details_model")
	if model == "" {
		model = d.Str("model")
	}
	year, okYear := d.Num("details_year")
	if makeName == "" || model == "" || !okYear {
		return "", false
	}
	return strings.ToLower(makeName + "|" + model + "|" + models.FormatNumber(year)), true
}
