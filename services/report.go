package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

// timeframeLabels maps report timeframe codes to their display names.
var timeframeLabels = map[string]string{
	"3m":  "Last 3 months",
	"6m":  "Last 6 months",
	"12m": "Last 12 months",
	"ytd": "Year to date",
}

const defaultTimeframe = "6m"

// ReportOptions scope a market report.
type ReportOptions struct {
	Title     string
	FocusCity string
	Timeframe string // 3m, 6m, 12m or ytd
}

// ReportService builds the market intelligence summary consumed by the
// report view and printed at startup.
type ReportService struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewReportService creates a ReportService with the given logger.
func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger, now: time.Now}
}

// Generate computes the report over the enriched dataset. Rows without a
// finite price are excluded; rows with a timestamp older than the timeframe
// cutoff are excluded, but rows with no timestamp at all stay in scope.
func (s *ReportService) Generate(rows []models.Row, opts ReportOptions) *models.MarketReport {
	timeframe := opts.Timeframe
	if _, known := timeframeLabels[timeframe]; !known {
		timeframe = defaultTimeframe
	}
	title := opts.Title
	if title == "" {
		title = "Comprehensive Market Intelligence Report"
	}

	cutoff := s.timeframeCutoff(timeframe)
	scoped := make([]models.Row, 0, len(rows))
	for _, d := range rows {
		if _, okPrice := d.Num("price"); !okPrice {
			continue
		}
		if ms, okMs := d.Num("created_at_epoch_ms"); okMs && int64(ms) < cutoff {
			continue
		}
		if opts.FocusCity != "" && d.Str("city_inferred") != opts.FocusCity {
			continue
		}
		scoped = append(scoped, d)
	}

	report := &models.MarketReport{
		Title:          title,
		TimeframeLabel: timeframeLabels[timeframe],
		FocusCity:      opts.FocusCity,
		GeneratedAt:    s.now(),
		Listings:       len(scoped),
	}
	if len(scoped) == 0 {
		return report
	}

	report.AvgPrice = roundedAvg(fieldValues(scoped, "price"))
	report.MedianPrice = median(fieldValues(scoped, "price"))
	report.AvgMileage = roundedAvg(fieldValues(scoped, "details_kilometers"))
	report.AvgDiscount = mean(fieldValues(scoped, "market_discount_pct"))

	cities := utils.NewStringSet()
	for _, d := range scoped {
		cities.Add(d.Str("city_inferred"))
	}
	report.Cities = cities.Size()

	report.Brands = topBrands(scoped)
	report.BodyTypes = topBodyTypes(scoped)
	report.Models = topModels(scoped)
	report.Insights = buildInsights(report)
	return report
}

func (s *ReportService) timeframeCutoff(timeframe string) int64 {
	now := s.now()
	switch timeframe {
	case "3m":
		return now.AddDate(0, 0, -90).UnixMilli()
	case "12m":
		return now.AddDate(0, 0, -365).UnixMilli()
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	default: // 6m
		return now.AddDate(0, 0, -182).UnixMilli()
	}
}

func topBrands(rows []models.Row) []models.BrandStat {
	groups := groupRows(rows, func(d models.Row) string {
		if b := d.Str("details_make"); b != "" {
			return b
		}
		return d.Str("brand")
	})
	stats := make([]models.BrandStat, 0, len(groups))
	for brand, members := range groups {
		if brand == "" {
			continue
		}
		stats = append(stats, models.BrandStat{
			Brand:       brand,
			Listings:    len(members),
			AvgPrice:    roundedAvg(fieldValues(members, "price")),
			AvgDiscount: mean(fieldValues(members, "market_discount_pct")),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Listings != stats[j].Listings {
			return stats[i].Listings > stats[j].Listings
		}
		return stats[i].Brand < stats[j].Brand
	})
	return capStats(stats)
}

func topBodyTypes(rows []models.Row) []models.BodyTypeStat {
	groups := groupRows(rows, func(d models.Row) string { return d.Str("details_body_type") })
	stats := make([]models.BodyTypeStat, 0, len(groups))
	for body, members := range groups {
		if body == "" {
			continue
		}
		stats = append(stats, models.BodyTypeStat{
			Body:     body,
			Listings: len(members),
			SharePct: float64(len(members)) / float64(len(rows)) * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Listings != stats[j].Listings {
			return stats[i].Listings > stats[j].Listings
		}
		return stats[i].Body < stats[j].Body
	})
	return capStats(stats)
}

func topModels(rows []models.Row) []models.ModelStat {
	groups := groupRows(rows, func(d models.Row) string {
		brand := d.Str("details_make")
		if brand == "" {
			brand = d.Str("brand")
		}
		model := d.Str("details_model")
		if model == "" {
			model = d.Str("model")
		}
		return strings.TrimSpace(brand + " " + model)
	})
	stats := make([]models.ModelStat, 0, len(groups))
	for label, members := range groups {
		if label == "" {
			continue
		}
		stats = append(stats, models.ModelStat{
			Label:       label,
			Listings:    len(members),
			AvgPrice:    roundedAvg(fieldValues(members, "price")),
			AvgDiscount: mean(fieldValues(members, "market_discount_pct")),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Listings != stats[j].Listings {
			return stats[i].Listings > stats[j].Listings
		}
		return stats[i].Label < stats[j].Label
	})
	return capStats(stats)
}

func buildInsights(r *models.MarketReport) []string {
	var insights []string
	if len(r.Brands) > 0 {
		top := r.Brands[0]
		insights = append(insights, fmt.Sprintf("%s leads activity with %s listings averaging %s.",
			top.Brand, commaInt(float64(top.Listings)), fmtCurrency(top.AvgPrice)))
	}
	if r.AvgDiscount != nil {
		insights = append(insights, fmt.Sprintf("Average market discount sits at %.1f%% across the selection.", *r.AvgDiscount))
	}
	if len(r.Models) > 0 {
		top := r.Models[0]
		insights = append(insights, fmt.Sprintf("%s remains a top-of-mind nameplate with %s recent listings.",
			top.Label, commaInt(float64(top.Listings))))
	}
	return insights
}

// Print writes the report to the console.
func (s *ReportService) Print(r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🚗 %s\033[0m\n", strings.ToUpper(r.Title))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Snapshot: %s\033[0m\n", r.TimeframeLabel)
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings in scope : \033[1m%s\033[0m\n", commaInt(float64(r.Listings)))
	fmt.Printf("  Cities covered    : \033[1m%d\033[0m\n", r.Cities)
	if r.FocusCity != "" {
		fmt.Printf("  Focus city        : \033[1m%s\033[0m\n", r.FocusCity)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Pricing\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.Listings > 0 {
		fmt.Printf("  Average price : \033[1;32m%s\033[0m\n", fmtCurrency(r.AvgPrice))
		fmt.Printf("  Median price  : \033[1;32m%s\033[0m\n", fmtCurrency(r.MedianPrice))
		fmt.Printf("  Average km    : \033[1;32m%s km\033[0m\n", commaInt(r.AvgMileage))
		if r.AvgDiscount != nil {
			fmt.Printf("  Avg discount  : \033[1;32m%.1f%%\033[0m\n", *r.AvgDiscount)
		}
	} else {
		fmt.Printf("  No priced listings in scope\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Brands\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.Brands) == 0 {
		fmt.Printf("  No brand data\n")
	}
	for i, b := range r.Brands {
		fmt.Printf("  \033[1m%d.\033[0m %-24s %5d listings  avg %s\n",
			i+1, truncate(b.Brand, 22), b.Listings, fmtCurrency(b.AvgPrice))
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Body Types\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, b := range r.BodyTypes {
		bar := strings.Repeat("█", int(math.Round(b.SharePct/2)))
		fmt.Printf("  %-16s %s %.1f%%\n", truncate(b.Body, 15), bar, b.SharePct)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Insights\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, line := range r.Insights {
		fmt.Printf("  • %s\n", line)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// fieldValues collects the finite numeric values of one field.
func fieldValues(rows []models.Row, field string) []float64 {
	vals := make([]float64, 0, len(rows))
	for _, d := range rows {
		if f, ok := d.Num(field); ok {
			vals = append(vals, f)
		}
	}
	return vals
}

func groupRows(rows []models.Row, keyFn func(models.Row) string) map[string][]models.Row {
	groups := make(map[string][]models.Row)
	for _, d := range rows {
		k := keyFn(d)
		groups[k] = append(groups[k], d)
	}
	return groups
}

// mean returns the unrounded average, or nil for an empty input.
func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	avg := total / float64(len(vals))
	return &avg
}

// roundedAvg returns the average rounded to a whole number, or 0 when there
// are no values.
func roundedAvg(vals []float64) float64 {
	if m := mean(vals); m != nil {
		return math.Round(*m)
	}
	return 0
}

// median returns the rounded middle value, averaging the two central values
// for even-sized inputs.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return math.Round((sorted[mid-1] + sorted[mid]) / 2)
	}
	return math.Round(sorted[mid])
}

func capStats[T any](stats []T) []T {
	if len(stats) > 5 {
		return stats[:5]
	}
	return stats
}

func fmtCurrency(v float64) string {
	return "AED " + commaInt(v)
}

// commaInt renders a rounded value with thousands separators.
func commaInt(v float64) string {
	n := int64(math.Round(v))
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
