package analysis

import (
	"context"
	"testing"

	"github.com/thesavant42/arquivo-peaks/internal/api"
	"github.com/thesavant42/arquivo-peaks/internal/models"
)

type stubFetcher struct {
	records []models.RawRecord
	panics  bool

	gotTerm       string
	gotStartYear  int
	gotMaxResults int
}

func (s *stubFetcher) FetchAll(ctx context.Context, term string, startYear, maxResults int, progress api.ProgressFunc) []models.RawRecord {
	s.gotTerm = term
	s.gotStartYear = startYear
	s.gotMaxResults = maxResults
	if s.panics {
		panic("decoder exploded")
	}
	return s.records
}

func strPtr(s string) *string { return &s }

func rec(ts string) models.RawRecord {
	return models.RawRecord{Timestamp: strPtr(ts), Title: strPtr("title " + ts)}
}

func assertExclusive(t *testing.T, r models.AnalysisResult) {
	t.Helper()
	if r.ErrorMessage != "" && (len(r.Peaks) > 0 || len(r.MonthlySeries) > 0 || r.TotalResults != 0) {
		t.Errorf("result carries both an error and data: %+v", r)
	}
}

func TestAnalyzeEmptyFetch(t *testing.T) {
	a := New(&stubFetcher{}, nil)
	r := a.Analyze(context.Background(), "nothing", 2000, 300)

	if r.ErrorMessage != MsgNoResults {
		t.Errorf("ErrorMessage = %q, want %q", r.ErrorMessage, MsgNoResults)
	}
	if r.TotalResults != 0 {
		t.Errorf("TotalResults = %d, want 0", r.TotalResults)
	}
	assertExclusive(t, r)
}

func TestAnalyzeErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		records []models.RawRecord
		want    string
	}{
		{"no timestamp field", []models.RawRecord{{Title: strPtr("a")}}, MsgNoTimestampField},
		{"no valid timestamps", []models.RawRecord{rec("2020010112000"), rec("abcdefghijklmn")}, MsgNoValidTimestamps},
		{"null timestamps", []models.RawRecord{{HasTimestamp: true}, {HasTimestamp: true}}, MsgNoValidTimestamps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&stubFetcher{records: tt.records}, nil).Analyze(context.Background(), "term", 2000, 100)
			if r.ErrorMessage != tt.want {
				t.Errorf("ErrorMessage = %q, want %q", r.ErrorMessage, tt.want)
			}
			assertExclusive(t, r)
		})
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	fetcher := &stubFetcher{records: []models.RawRecord{
		rec("20200101120000"),
		rec("2020010112000"),
		rec("20200115080000"),
		rec("20200203000000"),
	}}
	r := New(fetcher, nil).Analyze(context.Background(), "  eusébio ", 2005, 300)

	if r.Failed() {
		t.Fatalf("unexpected error: %s", r.ErrorMessage)
	}
	if fetcher.gotTerm != "eusébio" || fetcher.gotStartYear != 2005 || fetcher.gotMaxResults != 300 {
		t.Errorf("fetcher called with (%q, %d, %d)", fetcher.gotTerm, fetcher.gotStartYear, fetcher.gotMaxResults)
	}
	if r.TotalResults != 3 {
		t.Errorf("TotalResults = %d, want 3", r.TotalResults)
	}
	if r.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", r.Dropped)
	}
	if len(r.MonthlySeries) != 2 {
		t.Fatalf("len(MonthlySeries) = %d, want 2", len(r.MonthlySeries))
	}
	if len(r.Peaks) != 2 || r.Peaks[0].Month.String() != "2020-01" || r.Peaks[0].Count != 2 {
		t.Errorf("unexpected peaks: %+v", r.Peaks)
	}
	if got := r.Peaks[0].Snippets[0].Snippet; got != "title 20200101120000" {
		t.Errorf("top snippet = %q", got)
	}
	assertExclusive(t, r)
}

func TestAnalyzeDefaults(t *testing.T) {
	fetcher := &stubFetcher{}
	New(fetcher, nil).Analyze(context.Background(), "term", 0, 0)
	if fetcher.gotStartYear != defaultStartYear || fetcher.gotMaxResults != defaultMaxResults {
		t.Errorf("defaults not applied: (%d, %d)", fetcher.gotStartYear, fetcher.gotMaxResults)
	}
}

func TestAnalyzeEmptyTerm(t *testing.T) {
	fetcher := &stubFetcher{records: []models.RawRecord{rec("20200101120000")}}
	r := New(fetcher, nil).Analyze(context.Background(), "   ", 2000, 100)
	if r.ErrorMessage != MsgEmptyTerm {
		t.Errorf("ErrorMessage = %q, want %q", r.ErrorMessage, MsgEmptyTerm)
	}
	if fetcher.gotTerm != "" {
		t.Error("fetcher should not be called for an empty term")
	}
}

func TestAnalyzeRecoversPanics(t *testing.T) {
	r := New(&stubFetcher{panics: true}, nil).Analyze(context.Background(), "term", 2000, 100)
	if r.ErrorMessage != "decoder exploded" {
		t.Errorf("ErrorMessage = %q, want %q", r.ErrorMessage, "decoder exploded")
	}
	assertExclusive(t, r)
}
