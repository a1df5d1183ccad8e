package services

import (
	"math"
	"sort"
	"time"

	"github.com/rezer-bleede/cars-analyzer/models"
)

const (
	minBrandSamples = 5
	minModelSamples = 3
	maxChartBars    = 10
)

// DiscountByMake averages the market discount percentage per make and
// returns the top bars, largest average discount first.
func DiscountByMake(rows []models.Row) []models.MakeDiscount {
	type acc struct {
		sum   float64
		count int
	}
	byMake := make(map[string]*acc)
	for _, d := range rows {
		makeName := d.Str("details_make")
		if makeName == "" {
			makeName = d.Str("brand")
		}
		if makeName == "" {
			continue
		}
		pct, ok := d.Num("market_discount_pct")
		if !ok {
			continue
		}
		a := byMake[makeName]
		if a == nil {
			a = &acc{}
			byMake[makeName] = a
		}
		a.sum += pct
		a.count++
	}

	out := make([]models.MakeDiscount, 0, len(byMake))
	for makeName, a := range byMake {
		out = append(out, models.MakeDiscount{
			Make:        makeName,
			AvgDiscount: math.Round(a.sum/float64(a.count)*10) / 10,
			Samples:     a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDiscount != out[j].AvgDiscount {
			return out[i].AvgDiscount > out[j].AvgDiscount
		}
		return out[i].Make < out[j].Make
	})
	if len(out) > maxChartBars {
		out = out[:maxChartBars]
	}
	return out
}

// ListingsPerDay buckets rows by their canonical day string for the
// time-series chart, oldest day first.
func ListingsPerDay(rows []models.Row) []models.DayCount {
	counts := make(map[string]int)
	for _, d := range rows {
		if day := d.Str("created_at_day"); day != "" {
			counts[day]++
		}
	}
	out := make([]models.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

type agePricePoint struct {
	age   float64
	price float64
}

type regression struct {
	slope     float64
	intercept float64
}

// Depreciation fits a least-squares price-vs-age line per brand (and per
// model within each brand) and converts the slope into a percent-of-new
// loss per year. Brands need at least 5 price points, models at least 3.
func Depreciation(rows []models.Row) *models.DepreciationStats {
	nowYear := time.Now().Year()

	type sample struct {
		brand string
		model string
		point agePricePoint
	}
	var samples []sample
	for _, d := range rows {
		price, okPrice := d.Num("price")
		if !okPrice || price <= 0 {
			continue
		}
		year, okYear := d.Num("details_year")
		if !okYear {
			continue
		}
		brand := DeriveBrand(d)
		model := DeriveModel(d)
		if brand == "" || model == "" {
			continue
		}
		cappedYear := math.Max(1980, math.Min(float64(nowYear+1), year))
		age := math.Max(0, math.Min(30, float64(nowYear)-cappedYear))
		samples = append(samples, sample{brand: brand, model: model, point: agePricePoint{age: age, price: price}})
	}

	byBrand := make(map[string][]sample)
	for _, s := range samples {
		byBrand[s.brand] = append(byBrand[s.brand], s)
	}

	var entries []models.BrandDepreciation
	for brand, members := range byBrand {
		points := make([]agePricePoint, len(members))
		for i, s := range members {
			points[i] = s.point
		}
		if len(points) < minBrandSamples {
			continue
		}
		loss, ok := percentLoss(points)
		if !ok {
			continue
		}

		byModel := make(map[string][]agePricePoint)
		for _, s := range members {
			byModel[s.model] = append(byModel[s.model], s.point)
		}
		var modelEntries []models.ModelDepreciation
		for model, modelPoints := range byModel {
			if len(modelPoints) < minModelSamples {
				continue
			}
			modelLoss, okModel := percentLoss(modelPoints)
			if !okModel {
				continue
			}
			modelEntries = append(modelEntries, models.ModelDepreciation{
				Model:       model,
				SampleCount: len(modelPoints),
				PercentLoss: modelLoss,
			})
		}
		sort.Slice(modelEntries, func(i, j int) bool {
			return modelEntries[i].PercentLoss > modelEntries[j].PercentLoss
		})

		entries = append(entries, models.BrandDepreciation{
			Brand:       brand,
			SampleCount: len(points),
			PercentLoss: loss,
			Models:      modelEntries,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PercentLoss > entries[j].PercentLoss
	})
	stats := &models.DepreciationStats{}
	stats.Most = firstN(entries, 5)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PercentLoss < entries[j].PercentLoss
	})
	stats.Least = firstN(entries, 5)
	return stats
}

func firstN(entries []models.BrandDepreciation, n int) []models.BrandDepreciation {
	if len(entries) > n {
		entries = entries[:n]
	}
	return append([]models.BrandDepreciation(nil), entries...)
}

// linearRegression fits y = slope*x + intercept; degenerate inputs (fewer
// than two points, or all points at the same age) report false.
func linearRegression(points []agePricePoint) (regression, bool) {
	if len(points) < 2 {
		return regression{}, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.age
		sumY += p.price
		sumXY += p.age * p.price
		sumXX += p.age * p.age
	}
	n := float64(len(points))
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-6 {
		return regression{}, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return regression{}, false
	}
	return regression{slope: slope, intercept: intercept}, true
}

// percentLoss converts a fitted line into the percent of year-zero value
// lost per year of age. A non-positive intercept means the fit carries no
// usable price anchor.
func percentLoss(points []agePricePoint) (float64, bool) {
	reg, ok := linearRegression(points)
	if !ok || reg.intercept <= 0 {
		return 0, false
	}
	pct := -reg.slope / reg.intercept * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}
