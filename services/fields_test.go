package services

import (
	"testing"

	"github.com/rezer-bleede/cars-analyzer/models"
)

func TestDeriveBrandFallbackOrder(t *testing.T) {
	row := models.Row{
		"brand":        "Toyota",
		"details_make": "Lexus",
	}
	if got := DeriveBrand(row); got != "Toyota" {
		t.Errorf("DeriveBrand: got %q, want %q", got, "Toyota")
	}
}

func TestDeriveBrandSkipsEmptyCandidates(t *testing.T) {
	row := models.Row{
		"brand":        "   ",
		"details_make": "",
		"make":         "Nissan",
	}
	if got := DeriveBrand(row); got != "Nissan" {
		t.Errorf("DeriveBrand: got %q, want %q", got, "Nissan")
	}
}

func TestDeriveBrandNestedObject(t *testing.T) {
	row := models.Row{
		"details": map[string]any{"make": "Honda"},
	}
	if got := DeriveBrand(row); got != "Honda" {
		t.Errorf("DeriveBrand: got %q, want %q", got, "Honda")
	}
}

func TestDeriveModelFromVehicleObject(t *testing.T) {
	row := models.Row{
		"vehicle": map[string]any{"model": "Civic"},
	}
	if got := DeriveModel(row); got != "Civic" {
		t.Errorf("DeriveModel: got %q, want %q", got, "Civic")
	}
}

func TestDeriveFullLocationJoiner(t *testing.T) {
	row := models.Row{
		"location": []any{"Dubai", "Al Quoz"},
	}
	want := "Dubai -> Al Quoz"
	if got := DeriveFullLocation(row); got != want {
		t.Errorf("DeriveFullLocation: got %q, want %q", got, want)
	}
}

func TestDeriveFullLocationCityAreaFallback(t *testing.T) {
	row := models.Row{
		"city_inferred": "Sharjah",
		"area_inferred": "Al Nahda",
	}
	want := "Sharjah -> Al Nahda"
	if got := DeriveFullLocation(row); got != want {
		t.Errorf("DeriveFullLocation: got %q, want %q", got, want)
	}
}

func TestDeriveFullLocationCityOnly(t *testing.T) {
	row := models.Row{"city": "Ajman"}
	if got := DeriveFullLocation(row); got != "Ajman" {
		t.Errorf("DeriveFullLocation: got %q, want %q", got, "Ajman")
	}
}

func TestTextPartsShapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"empty string", "   ", nil},
		{"plain string", " Toyota ", []string{"Toyota"}},
		{"number", 2021.0, []string{"2021"}},
		{"array", []any{"a", "", "b"}, []string{"a", "b"}},
		{"nested array", []any{[]any{"x"}, "y"}, []string{"x", "y"}},
		{"label object", map[string]any{"name": "Dubai"}, []string{"Dubai"}},
		{"path object", map[string]any{"path": []any{"UAE", "Dubai"}}, []string{"UAE", "Dubai"}},
		{"label beats path", map[string]any{"full": "Dubai Marina", "path": []any{"x"}}, []string{"Dubai Marina"}},
		{"city area pair", map[string]any{"city": "Dubai", "area": "JLT"}, []string{"Dubai", "JLT"}},
		{"unknown keys", map[string]any{"foo": "bar"}, nil},
	}

	for _, tt := range tests {
		got := textParts(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("textParts(%s) = %v; want %v", tt.name, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("textParts(%s)[%d] = %q; want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestResolveTextDedupesCaseInsensitive(t *testing.T) {
	row := models.Row{
		"location": []any{"Dubai", "DUBAI", "Marina"},
	}
	want := "Dubai -> Marina"
	if got := DeriveFullLocation(row); got != want {
		t.Errorf("dedupe: got %q, want %q", got, want)
	}
}

func TestResolveTextNoSelectorMatches(t *testing.T) {
	if got := DeriveBrand(models.Row{}); got != "" {
		t.Errorf("empty row: got %q, want empty", got)
	}
}
