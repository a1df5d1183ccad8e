package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row is a single car listing record. The two upstream sources disagree on
// field names and nesting, so rows keep their open schema; the enrichment
// pipeline layers canonical fields (brand, model, uid, market_*) on top.
type Row map[string]any

// Str returns the value under key as a trimmed string, or "" when the key
// is absent or holds a non-string value.
func (r Row) Str(key string) string {
	s, _ := r[key].(string)
	return strings.TrimSpace(s)
}

// Num returns the value under key coerced to a finite float64.
func (r Row) Num(key string) (float64, bool) {
	return Number(r[key])
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Number coerces any JSON-shaped value to a finite float64. Unparseable,
// missing and non-finite inputs report false; the pipeline never lets a
// NaN leak into aggregation math.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Truthy mirrors the loose emptiness check used when picking between
// alternate raw fields: nil, "", 0, NaN and false are all "no value".
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	default:
		if f, ok := Number(v); ok {
			return f != 0
		}
		return true
	}
}

// FormatNumber renders a float the way the dataset renders numbers in keys
// and search text: no exponent, no trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarketReport is the computed market summary consumed by the report view.
type MarketReport struct {
	Title          string         `json:"title"`
	TimeframeLabel string         `json:"timeframe_label"`
	FocusCity      string         `json:"focus_city,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Listings       int            `json:"listings"`
	AvgPrice       float64        `json:"avg_price"`
	MedianPrice    float64        `json:"median_price"`
	AvgMileage     float64        `json:"avg_mileage"`
	AvgDiscount    *float64       `json:"avg_discount_pct"`
	Cities         int            `json:"cities"`
	Brands         []BrandStat    `json:"brands"`
	BodyTypes      []BodyTypeStat `json:"body_types"`
	Models         []ModelStat    `json:"models"`
	Insights       []string       `json:"insights"`
}

// BrandStat summarizes one brand inside a market report.
type BrandStat struct {
	Brand       string   `json:"brand"`
	Listings    int      `json:"listings"`
	AvgPrice    float64  `json:"avg_price"`
	AvgDiscount *float64 `json:"avg_discount_pct"`
}

// BodyTypeStat summarizes one body type's share of the scoped dataset.
type BodyTypeStat struct {
	Body     string  `json:"body"`
	Listings int     `json:"listings"`
	SharePct float64 `json:"share_pct"`
}

// ModelStat summarizes one make+model nameplate inside a market report.
type ModelStat struct {
	Label       string   `json:"label"`
	Listings    int      `json:"listings"`
	AvgPrice    float64  `json:"avg_price"`
	AvgDiscount *float64 `json:"avg_discount_pct"`
}

// MakeDiscount is one bar of the average-market-discount-by-make chart.
type MakeDiscount struct {
	Make        string  `json:"make"`
	AvgDiscount float64 `json:"avg_discount_pct"`
	Samples     int     `json:"samples"`
}

// DayCount is one point of the listings-per-day time series.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ModelDepreciation is a per-model price-vs-age regression result.
type ModelDepreciation struct {
	Model       string  `json:"model"`
	SampleCount int     `json:"sample_count"`
	PercentLoss float64 `json:"percent_loss"`
}

// BrandDepreciation is a per-brand price-vs-age regression result with the
// brand's model breakdown.
type BrandDepreciation struct {
	Brand       string              `json:"brand"`
	SampleCount int                 `json:"sample_count"`
	PercentLoss float64             `json:"percent_loss"`
	Models      []ModelDepreciation `json:"models,omitempty"`
}

// DepreciationStats holds the fastest and slowest depreciating brands.
type DepreciationStats struct {
	Most  []BrandDepreciation `json:"most"`
	Least []BrandDepreciation `json:"least"`
}

// DatasetStats is the headline block shown next to the listings table.
type DatasetStats struct {
	TotalListings int     `json:"total_listings"`
	AvgPrice      float64 `json:"avg_price"`
	Cities        int     `json:"cities"`
}
