package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/services"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Server exposes the enriched dataset to the UI consumers: listings table,
// detail view, charts, flippers and the report builder. The dataset is
// immutable once loaded, so everything here is read-only.
type Server struct {
	logger  *utils.Logger
	reports *services.ReportService

	rows    []models.Row
	byUID   map[string]models.Row
	cities  []string
	bodies  []string
	stats   models.DatasetStats
}

// New builds a Server over the fully enriched dataset, precomputing the uid
// index and the filter option lists.
func New(logger *utils.Logger, rows []models.Row) *Server {
	s := &Server{
		logger:  logger,
		reports: services.NewReportService(logger),
		rows:    rows,
		byUID:   make(map[string]models.Row, len(rows)),
	}

	citySet := utils.NewStringSet()
	bodySet := utils.NewStringSet()
	var priceTotal float64
	for _, d := range rows {
		uid := d.Str("uid")
		if _, taken := s.byUID[uid]; uid != "" && !taken {
			// First row wins on the rare 32-bit collision.
			s.byUID[uid] = d
		}
		citySet.Add(d.Str("city_inferred"))
		bodySet.Add(d.Str("details_body_type"))
		if price, ok := d.Num("price"); ok {
			priceTotal += price
		}
	}
	s.cities = citySet.Values()
	s.bodies = bodySet.Values()
	s.stats = models.DatasetStats{
		TotalListings: len(rows),
		Cities:        citySet.Size(),
	}
	if len(rows) > 0 {
		s.stats.AvgPrice = math.Round(priceTotal / float64(len(rows)))
	}
	return s
}

// Router wires the API routes.
func (s *Server) Router(allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", s.handleListings)
		r.Get("/listings/{uid}", s.handleDetail)
		r.Get("/options", s.handleOptions)
		r.Get("/flippers", s.handleFlippers)
		r.Get("/charts", s.handleCharts)
		r.Get("/report", s.handleReport)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"listings": len(s.rows),
	})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	view := s.filterRows(q.Get("q"), q.Get("city"), q.Get("body"))

	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "created_at_epoch_ms"
	}
	descending := q.Get("dir") != "asc"
	sortRows(view, sortKey, descending)

	page := intParam(q.Get("page"), 1)
	perPage := intParam(q.Get("per_page"), defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	totalPages := (len(view) + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	if start > len(view) {
		start = len(view)
	}
	end := start + perPage
	if end > len(view) {
		end = len(view)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total":       len(view),
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
		"items":       view[start:end],
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	row, found := s.byUID[uid]
	if !found {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "listing not found"})
		return
	}
	respondJSON(w, http.StatusOK, row)
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"cities": s.cities,
		"bodies": s.bodies,
		"stats":  s.stats,
	})
}

func (s *Server) handleFlippers(w http.ResponseWriter, r *http.Request) {
	days := intParam(r.URL.Query().Get("days"), 0)
	items := services.Flippers(s.rows, days)
	if days <= 0 {
		days = 7
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"range_label": "last " + strconv.Itoa(days) + " days",
		"items":       items,
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"discount_by_make": services.DiscountByMake(s.rows),
		"listings_per_day": services.ListingsPerDay(s.rows),
		"depreciation":     services.Depreciation(s.rows),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report := s.reports.Generate(s.rows, services.ReportOptions{
		Title:     q.Get("title"),
		FocusCity: q.Get("city"),
		Timeframe: q.Get("timeframe"),
	})
	respondJSON(w, http.StatusOK, report)
}

// filterRows applies the search box and the city/body dropdowns.
func (s *Server) filterRows(query, city, body string) []models.Row {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Row, 0, len(s.rows))
	for _, d := range s.rows {
		if city != "" && d.Str("city_inferred") != city {
			continue
		}
		if body != "" && d.Str("details_body_type") != body {
			continue
		}
		if query != "" && !strings.Contains(d.Str("_search_blob"), query) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
