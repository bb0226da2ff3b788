package trend

import (
	"errors"
	"sort"

	"github.com/thesavant42/arquivo-peaks/internal/models"
)

var (
	// ErrNoTimestampField means the result set carries no timestamp attribute at all
	ErrNoTimestampField = errors.New("no timestamp field in search results")

	// ErrNoValidTimestamps means every record's timestamp failed to parse
	ErrNoValidTimestamps = errors.New("no valid timestamps in search results")
)

// Aggregate buckets records by the calendar month of their timestamp.
// The series is sorted oldest first; dropped is the number of records whose
// timestamp could not be parsed.
func Aggregate(records []models.RawRecord) (series []models.MonthBucket, dropped int, err error) {
	if !hasTimestampField(records) {
		return nil, 0, ErrNoTimestampField
	}

	normalized, dropped := NormalizeRecords(records)
	if len(normalized) == 0 {
		return nil, dropped, ErrNoValidTimestamps
	}

	return GroupByMonth(normalized), dropped, nil
}

// GroupByMonth partitions normalized records into month buckets, preserving
// input order inside each bucket.
func GroupByMonth(records []models.NormalizedRecord) []models.MonthBucket {
	index := make(map[models.YearMonth]int)
	var buckets []models.MonthBucket

	for _, r := range records {
		ym := models.YearMonthOf(r.Time)
		i, ok := index[ym]
		if !ok {
			i = len(buckets)
			index[ym] = i
			buckets = append(buckets, models.MonthBucket{Month: ym})
		}
		buckets[i].Members = append(buckets[i].Members, r)
		buckets[i].Count++
	}

	sort.Slice(buckets, func(a, b int) bool {
		return buckets[a].Month.Before(buckets[b].Month)
	})

	return buckets
}

// hasTimestampField reports whether any record carries a timestamp attribute,
// null values included. An empty record set has no fields at all.
func hasTimestampField(records []models.RawRecord) bool {
	for _, r := range records {
		if r.HasTimestamp || r.Timestamp != nil {
			return true
		}
	}
	return false
}

// TotalCount sums the bucket counts of a series
func TotalCount(series []models.MonthBucket) int {
	total := 0
	for _, b := range series {
		total += b.Count
	}
	return total
}
