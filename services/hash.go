package services

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/rezer-bleede/cars-analyzer/models"
)

// identityFields are the row fields, in order, that distinguish a listing
// when the upstream id is missing.
var identityFields = []string{
	"id",
	"url",
	"permalink",
	"created_at_iso",
	"title_en",
	"price",
	"details_make",
	"details_model",
	"details_year",
}

// Hash32 returns a short, URL-safe, deterministic 32-bit digest of text.
// It is a lookup key, not a security primitive: collisions across a large
// dataset are possible and tolerated downstream.
func Hash32(text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

// IdentityKey pipe-joins the identity-relevant fields of a row, skipping
// empty members. Two rows missing the same subset of fields can therefore
// share a key; that is accepted, not fixed.
func IdentityKey(row models.Row) string {
	parts := make([]string, 0, len(identityFields))
	for _, field := range identityFields {
		v := row[field]
		switch t := v.(type) {
		case string:
			if t != "" {
				parts = append(parts, t)
			}
		default:
			if f, ok := models.Number(v); ok && f != 0 {
				parts = append(parts, models.FormatNumber(f))
			}
		}
	}
	return strings.Join(parts, "|")
}
