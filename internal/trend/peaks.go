package trend

import (
	"sort"

	"github.com/thesavant42/arquivo-peaks/internal/models"
)

const (
	// DefaultPeakCount is how many peak months an analysis reports
	DefaultPeakCount = 3
	// MaxSnippetsPerPeak caps the evidence collected for one peak month
	MaxSnippetsPerPeak = 10

	noContent = "No content available"
	noTitle   = "No title"
)

// Selector picks peak months from a monthly series
type Selector struct {
	K            int
	SnippetLimit int
	// SiteOf maps an archived page URL to a display site name. Optional.
	SiteOf func(rawURL string) string
}

// SelectPeaks returns the k months with the highest counts using the default
// snippet limit. Ties go to the earlier month.
func SelectPeaks(series []models.MonthBucket, k int) []models.PeakEntry {
	return Selector{K: k, SnippetLimit: MaxSnippetsPerPeak}.Select(series)
}

// Select ranks the series by count, descending. The sort is stable over the
// chronological series, so among equal counts the earlier month ranks higher.
func (s Selector) Select(series []models.MonthBucket) []models.PeakEntry {
	if s.K <= 0 || len(series) == 0 {
		return nil
	}

	ranked := make([]models.MonthBucket, len(series))
	copy(ranked, series)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Count > ranked[b].Count
	})

	n := s.K
	if n > len(ranked) {
		n = len(ranked)
	}

	peaks := make([]models.PeakEntry, 0, n)
	for i, bucket := range ranked[:n] {
		peaks = append(peaks, models.PeakEntry{
			Rank:         i + 1,
			Month:        bucket.Month,
			Count:        bucket.Count,
			DisplayLabel: bucket.Month.Label(),
			Snippets:     s.snippetsFor(bucket),
		})
	}
	return peaks
}

func (s Selector) snippetsFor(bucket models.MonthBucket) []models.PeakSnippet {
	limit := s.SnippetLimit
	if limit <= 0 || limit > MaxSnippetsPerPeak {
		limit = MaxSnippetsPerPeak
	}
	if limit > len(bucket.Members) {
		limit = len(bucket.Members)
	}

	snippets := make([]models.PeakSnippet, 0, limit)
	for _, member := range bucket.Members[:limit] {
		snippet := SnippetFor(member.Raw)
		if s.SiteOf != nil && member.Raw.OriginalURL != "" {
			snippet.Site = s.SiteOf(member.Raw.OriginalURL)
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}

// SnippetFor extracts the display evidence for one record: its first snippet,
// else its title, else a placeholder.
func SnippetFor(r models.RawRecord) models.PeakSnippet {
	ps := models.PeakSnippet{
		Title:   noTitle,
		Snippet: noContent,
	}

	if r.Title != nil {
		ps.Title = *r.Title
	}

	switch {
	case len(r.Snippets) > 0:
		ps.Snippet = r.Snippets[0]
	case r.Title != nil:
		ps.Snippet = *r.Title
	}

	if r.LinkToArchive != nil {
		ps.URL = *r.LinkToArchive
	}
	if r.Timestamp != nil {
		ps.Timestamp = *r.Timestamp
	}

	return ps
}
