package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rezer-bleede/cars-analyzer/models"
)

// SecondarySource tags rows that came through the carswitch feed.
const SecondarySource = "crswtch"

var labelSeparators = regexp.MustCompile(`[_-]+`)

// CleanLabel normalizes an enum-like raw label: dotted values keep only the
// segment after the last dot, underscores and hyphens become spaces, and
// each word is title-cased. "Enum.luxury_sedan" becomes "Luxury Sedan".
func CleanLabel(s string) string {
	base := s
	if i := strings.LastIndex(s, "."); i >= 0 {
		base = s[i+1:]
	}
	spaced := strings.TrimSpace(labelSeparators.ReplaceAllString(base, " "))
	if spaced == "" {
		return ""
	}
	words := strings.Fields(spaced)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// cleanValue applies CleanLabel to string values and passes everything else
// through unchanged (nil becomes "").
func cleanValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return CleanLabel(t)
	default:
		return v
	}
}

// adaptBodyType cleans the carswitch body-type enum. Labels of four or
// fewer characters are acronyms (SUV, MPV) and stay fully upper-cased.
func adaptBodyType(v any) any {
	s, ok := v.(string)
	if !ok {
		return cleanValue(v)
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	label := CleanLabel(s)
	if len(label) <= 4 {
		return strings.ToUpper(label)
	}
	return label
}

// firstTruthy returns the first argument that carries a value.
func firstTruthy(vals ...any) any {
	for _, v := range vals {
		if models.Truthy(v) {
			return v
		}
	}
	return nil
}

// firstNonNil returns the first argument that is present at all, matching
// the nullish (not falsy) fallback used for the price chain.
func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// AdaptSecondary maps one raw carswitch row onto the canonical vocabulary
// the enrichment stage expects. The original fields are carried through and
// the canonical fields are merged over them, so a row that already speaks
// the canonical schema comes out unchanged. Non-object input yields nil and
// is dropped by the caller.
func AdaptSecondary(raw any) models.Row {
	m, ok := raw.(map[string]any)
	if !ok {
		if r, isRow := raw.(models.Row); isRow {
			m = map[string]any(r)
		} else {
			return nil
		}
	}
	row := models.Row(m)
	out := row.Clone()

	mileageUnit := strings.ToLower(row.Str("detail_mileage_unit"))
	var kilometers any
	if strings.HasPrefix(mileageUnit, "km") {
		kilometers = m["detail_mileage_value"]
	}
	createdAt := firstTruthy(m["created_at"], m["created_at_iso"], m["createdAt"])

	out["price"] = firstNonNil(m["price"], m["detail_offer_price"], m["price_total"])
	out["details_make"] = cleanValue(firstTruthy(m["make"], m["detail_make"]))
	out["details_model"] = cleanValue(firstTruthy(m["model"], m["detail_model"]))
	out["details_year"] = firstTruthy(m["detail_vehicle_model_date"], m["year"])
	out["details_transmission"] = firstTruthy(m["detail_vehicle_transmission"], m["transmission"])
	out["details_body_type"] = adaptBodyType(m["detail_body_type"])
	out["details_drive_wheel_configuration"] = firstTruthy(m["detail_drive_wheel_configuration"], m["drive_configuration"])
	out["details_kilometers"] = firstNonNil(kilometers, m["detail_mileage_value"])
	out["details_mileage_unit"] = firstTruthy(m["detail_mileage_unit"], m["mileage_unit"], "km")
	out["details_color"] = cleanValue(firstTruthy(m["detail_color"], m["color"]))
	if specs := row.Str("regionalSpecs"); specs != "" {
		out["details_regional_specs"] = strings.ToUpper(specs)
	} else {
		out["details_regional_specs"] = m["details_regional_specs"]
	}
	out["details_seller_type"] = cleanValue(firstTruthy(m["listingType"], m["details_seller_type"]))
	out["url"] = firstTruthy(m["detail_url"], m["detail_item_url"], m["url"])
	out["permalink"] = firstTruthy(m["detail_item_url"], m["permalink"])
	out["title_en"] = firstTruthy(m["detail_name"], m["title_en"])
	out["created_at"] = createdAt
	out["created_at_iso"] = firstTruthy(m["created_at_iso"], createdAt)
	out["city_inferred"] = cleanValue(firstTruthy(m["city"], m["city_inferred"]))
	out["area_inferred"] = cleanValue(firstTruthy(m["area"], m["area_inferred"]))
	out["source"] = firstTruthy(m["source"], SecondarySource)

	return out
}
