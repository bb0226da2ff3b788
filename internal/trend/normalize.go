// Package trend turns raw archive search results into a monthly time series
// and picks the peak months out of it.
package trend

import (
	"strconv"
	"strings"
	"time"

	"github.com/thesavant42/arquivo-peaks/internal/models"
)

// timestampLen is the width of an archive timestamp: YYYYMMDDhhmmss
const timestampLen = 14

// ParseTimestamp converts an archive timestamp to a UTC time.
// Returns false for anything that is not 14 digits describing a real instant
// between years 1000 and 9999.
func ParseTimestamp(raw string) (time.Time, bool) {
	ts := strings.TrimSpace(raw)
	if len(ts) != timestampLen || !allDigits(ts) {
		return time.Time{}, false
	}

	year, ok1 := field(ts, 0, 4)
	month, ok2 := field(ts, 4, 6)
	day, ok3 := field(ts, 6, 8)
	hour, ok4 := field(ts, 8, 10)
	minute, ok5 := field(ts, 10, 12)
	second, ok6 := field(ts, 12, 14)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return time.Time{}, false
	}

	if year < 1000 || year > 9999 ||
		month < 1 || month > 12 ||
		day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	// time.Date normalizes overflow (Feb 30 -> Mar 1), so a changed day or
	// month means the date does not exist.
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}

	return t, true
}

// NormalizeRecord attaches the canonical time to a record.
// A record without a timestamp attribute is never valid.
func NormalizeRecord(r models.RawRecord) (models.NormalizedRecord, bool) {
	if r.Timestamp == nil {
		return models.NormalizedRecord{}, false
	}
	t, ok := ParseTimestamp(*r.Timestamp)
	if !ok {
		return models.NormalizedRecord{}, false
	}
	return models.NormalizedRecord{Raw: r, Time: t}, true
}

// NormalizeRecords keeps the records with valid timestamps, in input order,
// and reports how many were dropped.
func NormalizeRecords(records []models.RawRecord) ([]models.NormalizedRecord, int) {
	normalized := make([]models.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if n, ok := NormalizeRecord(r); ok {
			normalized = append(normalized, n)
		}
	}
	return normalized, len(records) - len(normalized)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func field(s string, from, to int) (int, bool) {
	v, err := strconv.Atoi(s[from:to])
	if err != nil {
		return 0, false
	}
	return v, true
}
