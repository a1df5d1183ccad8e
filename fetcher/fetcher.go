package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rezer-bleede/cars-analyzer/config"
	"github.com/rezer-bleede/cars-analyzer/models"
	"github.com/rezer-bleede/cars-analyzer/services"
	"github.com/rezer-bleede/cars-analyzer/utils"
)

// payloadArrayKeys are the wrapper keys a source may nest its listing array
// under.
var payloadArrayKeys = []string{"data", "listings", "results", "items", "rows"}

// Fetcher loads the primary and secondary listing sources. The primary
// source is required; the secondary one degrades silently to an empty set
// when it fails in any way. Neither fetch is retried.
type Fetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// New creates a Fetcher for the configured sources.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
		},
	}
}

// FetchAll fetches both sources concurrently and returns the merged row
// set: primary rows first, then adapted secondary rows. Non-object rows
// from either source are dropped.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.Row, error) {
	var (
		primaryPayload   any
		primaryErr       error
		secondaryPayload any
		secondaryErr     error
	)

	pool := utils.NewWorkerPool(2)
	pool.Submit(func() {
		primaryPayload, primaryErr = f.fetchJSON(ctx, f.cfg.PrimaryJSONURL)
	})
	if f.cfg.SecondaryJSONURL != "" {
		pool.Submit(func() {
			secondaryPayload, secondaryErr = f.fetchJSON(ctx, f.cfg.SecondaryJSONURL)
		})
	}
	pool.Wait()

	if primaryErr != nil {
		return nil, fmt.Errorf("primary source: %w", primaryErr)
	}
	if secondaryErr != nil {
		f.logger.Warn("[fetch] optional source failed, continuing without it: %v", secondaryErr)
		secondaryPayload = nil
	}

	rows := make([]models.Row, 0)
	dropped := 0

	for _, el := range toArray(primaryPayload) {
		if m, ok := el.(map[string]any); ok {
			rows = append(rows, models.Row(m))
		} else {
			dropped++
		}
	}

	adapted := 0
	for _, el := range toArray(secondaryPayload) {
		row := services.AdaptSecondary(el)
		if row == nil {
			dropped++
			continue
		}
		rows = append(rows, row)
		adapted++
	}

	if dropped > 0 {
		f.logger.Warn("[fetch] dropped %d malformed rows", dropped)
	}
	f.logger.Info("[fetch] merged %d rows (%d adapted from %s)", len(rows), adapted, services.SecondarySource)
	return rows, nil
}

// fetchJSON GETs one source with cache-bypass semantics and decodes the
// body.
func (f *Fetcher) fetchJSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %q: %w", url, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: unexpected status %d", url, res.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %q: %w", url, err)
	}
	return payload, nil
}

// toArray unwraps an array-or-wrapped-array payload.
func toArray(payload any) []any {
	switch t := payload.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range payloadArrayKeys {
			if arr, ok := t[key].([]any); ok {
				return arr
			}
		}
	}
	return nil
}
