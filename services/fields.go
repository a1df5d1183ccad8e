package services

import (
	"strings"

	"github.com/rezer-bleede/cars-analyzer/models"
)

// Selector locates one candidate value for a derived text field. Either
// Field (direct key lookup) or Get (computed lookup) is set; Get wins when
// both are present. Joiner controls how multi-part values are joined and
// defaults to a single space.
type Selector struct {
	Field  string
	Get    func(models.Row) any
	Joiner string
}

// objectLabelKeys is the fixed probe order for label-shaped objects.
var objectLabelKeys = []string{"full", "name", "label", "value", "text", "title", "display", "path", "hierarchy", "values", "parts"}

// ResolveText tries each selector in order and returns the first non-empty
// flattened text it yields. Sources name equivalent concepts inconsistently
// (make vs details_make vs nested details.make); a priority-ordered probe
// keeps the reconciliation in one deterministic place instead of per-source
// glue for every field.
func ResolveText(row models.Row, selectors []Selector) string {
	for _, sel := range selectors {
		var raw any
		if sel.Get != nil {
			raw = sel.Get(row)
		} else {
			raw = row[sel.Field]
		}

		parts := dedupeParts(textParts(raw))
		if len(parts) == 0 {
			continue
		}

		joiner := sel.Joiner
		if joiner == "" {
			joiner = " "
		}
		return strings.Join(parts, joiner)
	}
	return ""
}

// textParts recursively flattens a raw value into trimmed, non-empty text
// fragments. Objects are probed label-first (full/name/label/...), then
// path-like keys, then a synthesized city+area pair.
func textParts(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, textParts(el)...)
		}
		return out
	case map[string]any:
		return objectParts(t)
	case models.Row:
		return objectParts(map[string]any(t))
	default:
		if f, ok := models.Number(v); ok {
			return []string{models.FormatNumber(f)}
		}
		return nil
	}
}

func objectParts(m map[string]any) []string {
	for _, key := range objectLabelKeys {
		val, present := m[key]
		if !present {
			continue
		}
		if parts := textParts(val); len(parts) > 0 {
			return parts
		}
	}

	// Some location shapes only carry a city/area pair.
	if _, hasCity := m["city"]; hasCity {
		return append(textParts(m["city"]), textParts(m["area"])...)
	}
	if _, hasArea := m["area"]; hasArea {
		return textParts(m["area"])
	}
	return nil
}

// dedupeParts removes case-insensitive duplicates while keeping first-seen
// order and original casing.
func dedupeParts(parts []string) []string {
	if len(parts) < 2 {
		return parts
	}
	seen := make(map[string]struct{}, len(parts))
	out := parts[:0]
	for _, p := range parts {
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func nestedField(outer, inner string) func(models.Row) any {
	return func(r models.Row) any {
		m, ok := r[outer].(map[string]any)
		if !ok {
			return nil
		}
		return m[inner]
	}
}

func cityAreaPair(cityKey, areaKey string) func(models.Row) any {
	return func(r models.Row) any {
		city := r[cityKey]
		area := r[areaKey]
		if !models.Truthy(city) && !models.Truthy(area) {
			return nil
		}
		return map[string]any{"city": city, "area": area}
	}
}

// BrandSelectors is the candidate order for the canonical brand field.
var BrandSelectors = []Selector{
	{Field: "brand"},
	{Field: "details_make"},
	{Field: "make"},
	{Field: "detail_make"},
	{Field: "brand_en"},
	{Field: "make_en"},
	{Field: "manufacturer"},
	{Get: nestedField("details", "make")},
	{Get: nestedField("vehicle", "make")},
}

// ModelSelectors is the candidate order for the canonical model field.
var ModelSelectors = []Selector{
	{Field: "model"},
	{Field: "details_model"},
	{Field: "detail_model"},
	{Field: "model_en"},
	{Field: "model_name"},
	{Field: "submodel"},
	{Field: "variant"},
	{Get: nestedField("details", "model")},
	{Get: nestedField("vehicle", "model")},
	{Field: "version"},
}

// LocationSelectors is the candidate order for the canonical full location.
// Locations are hierarchical paths, so every selector joins with " -> ".
var LocationSelectors = []Selector{
	{Field: "location_full", Joiner: " -> "},
	{Field: "location", Joiner: " -> "},
	{Field: "location_en", Joiner: " -> "},
	{Field: "full_location", Joiner: " -> "},
	{Field: "location_path", Joiner: " -> "},
	{Field: "location_hierarchy", Joiner: " -> "},
	{Field: "address", Joiner: " -> "},
	{Field: "neighbourhood_en", Joiner: " -> "},
	{Field: "neighbourhood", Joiner: " -> "},
	{Field: "area_name_en", Joiner: " -> "},
	{Get: cityAreaPair("city_inferred", "area_inferred"), Joiner: " -> "},
	{Get: cityAreaPair("city", "area"), Joiner: " -> "},
}

// DeriveBrand resolves the canonical brand for a row.
func DeriveBrand(row models.Row) string {
	return ResolveText(row, BrandSelectors)
}

// DeriveModel resolves the canonical model for a row.
func DeriveModel(row models.Row) string {
	return ResolveText(row, ModelSelectors)
}

// DeriveFullLocation resolves the canonical hierarchical location for a row.
func DeriveFullLocation(row models.Row) string {
	return ResolveText(row, LocationSelectors)
}
