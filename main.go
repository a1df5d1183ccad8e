package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rezer-bleede/cars-analyzer/config"
	"github.com/rezer-bleede/cars-analyzer/fetcher"
	"github.com/rezer-bleede/cars-analyzer/server"
	"github.com/rezer-bleede/cars-analyzer/services"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

func main() {
	logger := utils.NewLogger()

	logger.Info("=== Used Cars Market Analyzer starting ===")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error: %v", err)
		os.Exit(1)
	}
	logger.Info("Config: primary: %s | secondary: %s | listen: %s",
		cfg.PrimaryJSONURL, orNone(cfg.SecondaryJSONURL), cfg.HTTPAddr)

	rows, err := fetcher.New(cfg, logger).FetchAll(context.Background())
	if err != nil {
		logger.Error("Primary fetch failed: %v", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		logger.Warn("No listings in either source, serving an empty dataset")
	}

	enricher := services.NewEnricher(logger)
	rows = enricher.Enrich(rows)

	market := services.NewMarketAggregator(logger)
	market.Annotate(rows)

	reportSvc := services.NewReportService(logger)
	report := reportSvc.Generate(rows, services.ReportOptions{Timeframe: "6m"})
	reportSvc.Print(report)

	srv := server.New(logger, rows)
	logger.Info("Serving %d enriched listings on %s", len(rows), cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, srv.Router(cfg.AllowedOrigins)); err != nil {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
