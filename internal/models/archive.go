package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawRecord represents one matched document from the Arquivo.pt text search API.
// Pointer fields are nil when the attribute is absent, null or not a scalar.
type RawRecord struct {
	Timestamp     *string  // 14-digit format: YYYYMMDDhhmmss
	HasTimestamp  bool     // the item carried a "tstamp" key, even if null
	Title         *string  // nullable - some items have no title
	Snippets      []string // ordered excerpts, possibly empty
	LinkToArchive *string  // nullable - replay URL on arquivo.pt
	OriginalURL   string   // URL of the archived page
}

// UnmarshalJSON decodes a response item field by field so that one oddly
// typed attribute never rejects the whole item. The timestamp is accepted as
// either a JSON string or a bare number; a single "snippet" string is used
// when the "snippets" array is missing.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("response item is not an object: %w", err)
	}

	*r = RawRecord{}

	tstamp, ok := fields["tstamp"]
	r.HasTimestamp = ok
	r.Timestamp = decodeTimestamp(tstamp)

	r.Title = optionalString(fields["title"])
	r.Snippets = stringList(fields["snippets"])
	if len(r.Snippets) == 0 {
		if s := optionalString(fields["snippet"]); s != nil {
			r.Snippets = []string{*s}
		}
	}
	r.LinkToArchive = optionalString(fields["linkToArchive"])
	if u := optionalString(fields["originalURL"]); u != nil {
		r.OriginalURL = *u
	}
	return nil
}

func decodeTimestamp(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
	}

	// Numbers and anything else keep their literal text so the normalizer can
	// reject them on its own terms.
	s := string(raw)
	return &s
}

// optionalString reads a scalar as text. Strings decode normally, numbers and
// booleans keep their literal form, and null, objects and arrays give nil.
func optionalString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	case 'n', '{', '[':
		return nil
	}

	s := string(raw)
	return &s
}

// stringList reads an array of scalars, or a lone scalar as a one-element list
func stringList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] != '[' {
		if s := optionalString(raw); s != nil {
			return []string{*s}
		}
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	var out []string
	for _, e := range elems {
		if s := optionalString(e); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// TextSearchResponse represents one page returned by the text search API
type TextSearchResponse struct {
	ServiceName   string      `json:"serviceName"`
	LinkFormat    string      `json:"linkFormat"`
	NextPage      string      `json:"next_page"`
	PreviousPage  string      `json:"previous_page"`
	EstimatedHits int         `json:"estimated_nr_results"`
	Items         []RawRecord `json:"response_items"`
}

// NormalizedRecord is a RawRecord whose timestamp parsed to a canonical time.
// Records with invalid timestamps never become NormalizedRecords.
type NormalizedRecord struct {
	Raw  RawRecord
	Time time.Time
}

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month containing t
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Before reports whether ym is chronologically earlier than other
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Start returns midnight UTC on the first day of the month
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the month as "2006-01"
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Label formats the month for display, e.g. "January 2020"
func (ym YearMonth) Label() string {
	return fmt.Sprintf("%s %d", ym.Month.String(), ym.Year)
}

// MonthBucket groups every normalized record that falls in one calendar month
type MonthBucket struct {
	Month   YearMonth
	Count   int
	Members []NormalizedRecord
}

// PeakSnippet is one piece of evidence shown for a peak month
type PeakSnippet struct {
	Title     string
	Snippet   string
	URL       string
	Timestamp string
	Site      string // root domain of the archived page, empty when unknown
}

// PeakEntry is one of the top months ranked by count
type PeakEntry struct {
	Rank         int // 1 = highest count
	Month        YearMonth
	Count        int
	DisplayLabel string
	Snippets     []PeakSnippet
}

// AnalysisResult is the outcome of analyzing one search term.
// When ErrorMessage is set every other field except Term is empty.
type AnalysisResult struct {
	Term          string
	MonthlySeries []MonthBucket
	Peaks         []PeakEntry
	TotalResults  int
	Dropped       int // records discarded for unparseable timestamps
	ErrorMessage  string
}

// FailedAnalysis builds a result that carries only an error message
func FailedAnalysis(term, message string) AnalysisResult {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Analysis failed."
	}
	return AnalysisResult{
		Term:         term,
		ErrorMessage: message,
	}
}

// Failed reports whether the analysis ended with an error
func (r AnalysisResult) Failed() bool {
	return r.ErrorMessage != ""
}

// TopPeak returns the rank-1 peak, if any
func (r AnalysisResult) TopPeak() (PeakEntry, bool) {
	if len(r.Peaks) == 0 {
		return PeakEntry{}, false
	}
	return r.Peaks[0], true
}
