package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rezer-bleede/cars-analyzer/models"
)

// TimestampCandidates is the priority order of raw fields that may carry a
// listing's creation time: explicit epoch fields first, then the generic
// created_at shapes, then scrape-side fallbacks.
var TimestampCandidates = []string{
	"created_at_epoch_ms",
	"created_at_epoch",
	"created_at",
	"scraped_at",
	"timestamp",
	"time",
	"listed_at",
}

var (
	millisRegexp  = regexp.MustCompile(`^\d{13}$`)
	secondsRegexp = regexp.MustCompile(`^\d{10}$`)
)

// dateLayouts are tried in order for free-form timestamp strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToEpochMs converts any common timestamp representation to epoch
// milliseconds. Numbers below 1e12 are taken as epoch seconds; 10- and
// 13-digit strings as seconds and millis respectively; anything else goes
// through date parsing. Unparseable input reports false.
func ToEpochMs(v any) (int64, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if millisRegexp.MatchString(s) {
			ms, err := strconv.ParseInt(s, 10, 64)
			return ms, err == nil
		}
		if secondsRegexp.MatchString(s) {
			sec, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return 0, false
			}
			return sec * 1000, true
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UnixMilli(), true
			}
		}
		return 0, false
	case nil:
		return 0, false
	default:
		f, ok := models.Number(v)
		if !ok {
			return 0, false
		}
		if f < 1e12 {
			return int64(math.Round(f * 1000)), true
		}
		return int64(math.Round(f)), true
	}
}

// EpochMsToISO renders epoch milliseconds as an ISO-8601 UTC string with
// millisecond precision.
func EpochMsToISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// NormalizeTimestamp finds the first candidate field that converts to a
// finite epoch-ms value and returns the canonical {ms, iso} pair. When no
// candidate succeeds it reports false with an empty iso.
func NormalizeTimestamp(row models.Row) (int64, string, bool) {
	for _, key := range TimestampCandidates {
		v, present := row[key]
		if !present || v == nil {
			continue
		}
		if ms, ok := ToEpochMs(v); ok {
			return ms, EpochMsToISO(ms), true
		}
	}
	return 0, "", false
}
