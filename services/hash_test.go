package services

import (
	"testing"

	"github.com/rezer-bleede/cars-analyzer/models"
)

func TestHash32Deterministic(t *testing.T) {
	in := "id-1|https://example.com/car/1|2024-01-01T00:00:00.000Z|85000"
	if Hash32(in) != Hash32(in) {
		t.Error("Hash32 must be deterministic for identical input")
	}
}

func TestHash32DistinguishesInputs(t *testing.T) {
	a := Hash32("url|title|85000|Toyota|Camry|2021")
	b := Hash32("url|title|86000|Toyota|Camry|2021")
	if a == b {
		t.Errorf("different identity inputs produced the same hash %q", a)
	}
}

func TestHash32EmptyInput(t *testing.T) {
	if Hash32("") == "" {
		t.Error("Hash32 of empty input must still produce a key")
	}
}

func TestIdentityKeySkipsFalsyFields(t *testing.T) {
	full := models.Row{
		"id":       "abc",
		"url":      "https://example.com/1",
		"price":    85000.0,
		"title_en": "Car",
	}
	sparse := models.Row{
		"id":       "abc",
		"url":      "https://example.com/1",
		"price":    nil,
		"title_en": "Car",
	}
	want := "abc|https://example.com/1|Car|85000"
	if got := IdentityKey(full); got != want {
		t.Errorf("IdentityKey(full) = %q; want %q", got, want)
	}
	if got := IdentityKey(sparse); got != "abc|https://example.com/1|Car" {
		t.Errorf("IdentityKey(sparse) = %q", got)
	}
}

func TestIdentityKeyFieldOrder(t *testing.T) {
	row := models.Row{
		"details_year":  2021.0,
		"details_make":  "Toyota",
		"details_model": "Camry",
	}
	want := "Toyota|Camry|2021"
	if got := IdentityKey(row); got != want {
		t.Errorf("IdentityKey = %q; want %q", got, want)
	}
}

func TestIdentityKeySameInputsSameUID(t *testing.T) {
	a := models.Row{"url": "https://example.com/1", "price": 100.0}
	b := models.Row{"url": "https://example.com/1", "price": 100.0}
	if Hash32(IdentityKey(a)) != Hash32(IdentityKey(b)) {
		t.Error("identical identity inputs must yield identical uids")
	}
}
