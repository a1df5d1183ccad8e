package services

import (
	"strings"

	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

// numericFields are coerced to a finite number or nil on every row.
var numericFields = []string{"price", "details_kilometers", "details_year"}

// searchBlobFields feed the lowercase full-text blob used for substring
// search in the listings view.
var searchBlobFields = []string{
	"details_make",
	"details_model",
	"brand",
	"model",
	"location_full",
	"neighbourhood_en",
	"details_regional_specs",
	"details_seller_type",
	"title_en",
	"city_inferred",
	"details_body_type",
}

// Enricher derives the canonical fields every downstream consumer relies
// on: coerced numerics, brand/model/location, the timestamp trio, the
// deterministic uid and the search blob.
type Enricher struct {
	logger *utils.Logger
}

// NewEnricher creates an Enricher with the given logger.
func NewEnricher(logger *utils.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// Enrich processes every row in place and returns the same slice.
func (e *Enricher) Enrich(rows []models.Row) []models.Row {
	for _, row := range rows {
		e.enrichRow(row)
	}
	e.logger.Info("[enrich] derived canonical fields for %d rows", len(rows))
	return rows
}

func (e *Enricher) enrichRow(d models.Row) {
	for _, field := range numericFields {
		if f, ok := d.Num(field); ok {
			d[field] = f
		} else {
			d[field] = nil
		}
	}

	d["brand"] = DeriveBrand(d)
	d["model"] = DeriveModel(d)
	d["location_full"] = DeriveFullLocation(d)

	if !models.Truthy(d["details_make"]) {
		d["details_make"] = d["brand"]
	}
	if !models.Truthy(d["details_model"]) {
		d["details_model"] = d["model"]
	}

	if ms, iso, ok := NormalizeTimestamp(d); ok {
		d["created_at_epoch_ms"] = ms
		d["created_at_iso"] = iso
		d["created_at_day"] = iso[:10]
	} else {
		d["created_at_epoch_ms"] = nil
		d["created_at_iso"] = ""
		d["created_at_day"] = ""
	}

	d["uid"] = Hash32(IdentityKey(d))
	d["_search_blob"] = searchBlob(d)
}

// searchBlob joins the searchable fields into one lowercase string so the
// listings view can match a query with a single substring test.
func searchBlob(d models.Row) string {
	parts := make([]string, len(searchBlobFields))
	for i, field := range searchBlobFields {
		switch t := d[field].(type) {
		case string:
			parts[i] = t
		default:
			if f, ok := models.Number(t); ok {
				parts[i] = models.FormatNumber(f)
			}
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
