package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/services"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

func testDataset() []models.Row {
	now := time.Now()
	rows := []models.Row{
		{
			"title_en":          "2021 Toyota Camry",
			"brand":             "Toyota",
			"model":             "Camry",
			"details_make":      "Toyota",
			"details_model":     "Camry",
			"details_year":      2021.0,
			"price":             80000.0,
			"city_inferred":     "Dubai",
			"details_body_type": "Sedan",
			"created_at":        now.AddDate(0, 0, -2).Format(time.RFC3339),
		},
		{
			"title_en":          "2020 Nissan Patrol",
			"brand":             "Nissan",
			"model":             "Patrol",
			"details_make":      "Nissan",
			"details_model":     "Patrol",
			"details_year":      2020.0,
			"price":             150000.0,
			"city_inferred":     "Sharjah",
			"details_body_type": "SUV",
			"created_at":        now.AddDate(0, 0, -5).Format(time.RFC3339),
		},
		{
			"title_en":          "2021 Toyota Camry low price",
			"brand":             "Toyota",
			"model":             "Camry",
			"details_make":      "Toyota",
			"details_model":     "Camry",
			"details_year":      2021.0,
			"price":             70000.0,
			"city_inferred":     "Dubai",
			"details_body_type": "Sedan",
			"created_at":        now.AddDate(0, 0, -1).Format(time.RFC3339),
		},
	}

	logger := utils.NewLogger()
	services.NewEnricher(logger).Enrich(rows)
	services.NewMarketAggregator(logger).Annotate(rows)
	return rows
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s := New(utils.NewLogger(), testDataset())
	return s, s.Router([]string{"*"})
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["listings"])
}

func TestListingsDefaultSortNewestFirst(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/listings")

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])

	items := body["items"].([]any)
	require.Len(t, items, 3)
	first := items[0].(map[string]any)
	assert.Equal(t, "2021 Toyota Camry low price", first["title_en"])
}

func TestListingsSearchBlob(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/listings?q=patrol")

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Nissan", item["details_make"])
}

func TestListingsCityAndBodyFilters(t *testing.T) {
	_, h := newTestServer(t)

	code, body := getJSON(t, h, "/api/listings?city=Dubai")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["total"])

	code, body = getJSON(t, h, "/api/listings?body=SUV")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
}

func TestListingsSortByPriceAscending(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/listings?sort=price&dir=asc")

	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 3)
	first := items[0].(map[string]any)
	assert.EqualValues(t, 70000, first["price"])
}

func TestListingsPagination(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/listings?per_page=2&page=2")

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.Len(t, body["items"].([]any), 1)
}

func TestDetailByUID(t *testing.T) {
	s, h := newTestServer(t)

	uid := s.rows[0].Str("uid")
	require.NotEmpty(t, uid)

	code, body := getJSON(t, h, "/api/listings/"+uid)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uid, body["uid"])

	code, body = getJSON(t, h, "/api/listings/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "listing not found", body["error"])
}

func TestOptionsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/options")

	require.Equal(t, http.StatusOK, code)
	cities := body["cities"].([]any)
	assert.Equal(t, []any{"Dubai", "Sharjah"}, cities)
	bodies := body["bodies"].([]any)
	assert.Equal(t, []any{"SUV", "Sedan"}, bodies)

	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total_listings"])
	assert.EqualValues(t, 2, stats["cities"])
	assert.EqualValues(t, 100000, stats["avg_price"])
}

func TestFlippersEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/flippers")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "last 7 days", body["range_label"])

	// Only the below-market Camry qualifies (positive market_diff).
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "2021 Toyota Camry low price", item["title_en"])
}

func TestChartsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/charts")

	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "discount_by_make")
	assert.Contains(t, body, "listings_per_day")
	assert.Contains(t, body, "depreciation")

	days := body["listings_per_day"].([]any)
	assert.NotEmpty(t, days)
}

func TestReportEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	code, body := getJSON(t, h, "/api/report?timeframe=3m&city=Dubai")

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["listings"])
	assert.Equal(t, "Last 3 months", body["timeframe_label"])
	assert.Equal(t, "Dubai", body["focus_city"])
}
