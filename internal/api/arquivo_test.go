package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

// TestBuildTextSearchQuery verifies every request parameter is present
func TestBuildTextSearchQuery(t *testing.T) {
	query := BuildTextSearchQuery("  25 de abril ", 200, 2000, 50)

	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", query, err)
	}

	want := map[string]string{
		"q":           "25 de abril",
		"maxItems":    "100",
		"offset":      "200",
		"prettyPrint": "false",
		"dedupValue":  "50",
		"from":        "2000",
	}
	for k, v := range want {
		if got := values.Get(k); got != v {
			t.Errorf("param %s = %q, want %q", k, got, v)
		}
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		maxResults int
		want       int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{100, 1},
		{101, 2},
		{300, 3},
		{1000, 10},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.maxResults), func(t *testing.T) {
			if got := PageCount(tt.maxResults); got != tt.want {
				t.Errorf("PageCount(%d) = %d, want %d", tt.maxResults, got, tt.want)
			}
		})
	}
}

// TestExtractRootDomain tests domain extraction
func TestExtractRootDomain(t *testing.T) {
	tests := []struct {
		input    string
		wantRoot string
		wantErr  bool
	}{
		{"publico.pt", "publico.pt", false},
		{"www.publico.pt", "publico.pt", false},
		{"https://www.publico.pt/2020/01/01/x", "publico.pt", false},
		{"https://noticias.sapo.pt/path?query=1", "sapo.pt", false},
		{"http://www.example.com.pt/", "example.com.pt", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExtractRootDomain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractRootDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.wantRoot {
				t.Errorf("ExtractRootDomain(%q) = %q, want %q", tt.input, got, tt.wantRoot)
			}
		})
	}

	if SiteOf("") != "" {
		t.Error("SiteOf(\"\") should be empty")
	}
}

// fakeArchive serves scripted pages keyed by offset and records the offsets it saw
type fakeArchive struct {
	mu      sync.Mutex
	offsets []int
	pages   map[int]func(w http.ResponseWriter)
}

func (f *fakeArchive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()

	if page, ok := f.pages[offset]; ok {
		page(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"response_items":[]}`)
}

func items(timestamps ...string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		var buf bytes.Buffer
		buf.WriteString(`{"serviceName":"textsearch","response_items":[`)
		for i, ts := range timestamps {
			if i > 0 {
				buf.WriteString(",")
			}
			fmt.Fprintf(&buf, `{"tstamp":%q,"title":"t%s","snippets":["s%s"],"linkToArchive":"https://arquivo.pt/wayback/%s/x"}`, ts, ts, ts, ts)
		}
		buf.WriteString(`]}`)
		w.Header().Set("Content-Type", "application/json")
		w.Write(buf.Bytes())
	}
}

func TestFetchAllSkipsFailedPages(t *testing.T) {
	archive := &fakeArchive{pages: map[int]func(w http.ResponseWriter){
		0: items("20200101120000", "20200102120000"),
		100: func(w http.ResponseWriter) {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
		},
		200: func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"response_items": [ {"tstamp": `)
		},
		// 300 falls through to an empty page
		400: items("20200301120000"),
	}}
	srv := httptest.NewServer(archive)
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})

	var progressCalls int
	records := client.FetchAll(context.Background(), "term", 2000, 500, func(fetched, page, pages int) {
		progressCalls++
		if pages != 5 {
			t.Errorf("progress pages = %d, want 5", pages)
		}
	})

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	wantOrder := []string{"20200101120000", "20200102120000", "20200301120000"}
	for i, ts := range wantOrder {
		if records[i].Timestamp == nil || *records[i].Timestamp != ts {
			t.Errorf("records[%d].Timestamp = %v, want %q", i, records[i].Timestamp, ts)
		}
	}

	wantOffsets := []int{0, 100, 200, 300, 400}
	if len(archive.offsets) != len(wantOffsets) {
		t.Fatalf("requested offsets = %v, want %v", archive.offsets, wantOffsets)
	}
	for i := range wantOffsets {
		if archive.offsets[i] != wantOffsets[i] {
			t.Errorf("offsets[%d] = %d, want %d", i, archive.offsets[i], wantOffsets[i])
		}
	}
	if progressCalls != 5 {
		t.Errorf("progress called %d times, want 5", progressCalls)
	}
}

func TestFetchAllKeepsGoodItemsBesideBadOnes(t *testing.T) {
	archive := &fakeArchive{pages: map[int]func(w http.ResponseWriter){
		0: func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"response_items":[
				{"tstamp":"20200101120000","title":"ok"},
				{"tstamp":"20200102120000","title":"ok2","snippets":"x"},
				{"tstamp":"20200103120000","title":42},
				"not an item",
				{"tstamp":null,"title":"no date"}
			]}`)
		},
	}}
	srv := httptest.NewServer(archive)
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})
	records := client.FetchAll(context.Background(), "term", 2000, 100, nil)

	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}
	wantTitles := []string{"ok", "ok2", "42", "no date"}
	for i, want := range wantTitles {
		if records[i].Title == nil || *records[i].Title != want {
			t.Errorf("records[%d].Title = %v, want %q", i, records[i].Title, want)
		}
	}
	if len(records[1].Snippets) != 1 || records[1].Snippets[0] != "x" {
		t.Errorf("records[1].Snippets = %v, want [x]", records[1].Snippets)
	}
	if records[3].Timestamp != nil || !records[3].HasTimestamp {
		t.Errorf("records[3] = %+v, want a present null timestamp", records[3])
	}
}

func TestFetchAllNoEarlyTermination(t *testing.T) {
	archive := &fakeArchive{pages: map[int]func(w http.ResponseWriter){
		200: items("20210101000000"),
	}}
	srv := httptest.NewServer(archive)
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})
	records := client.FetchAll(context.Background(), "term", 2000, 300, nil)

	if len(archive.offsets) != 3 {
		t.Errorf("issued %d requests, want 3", len(archive.offsets))
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestFetchAllEverythingFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})
	records := client.FetchAll(context.Background(), "term", 2000, 200, nil)
	if records == nil || len(records) != 0 {
		t.Errorf("FetchAll() = %v, want empty non-nil slice", records)
	}
}

func TestFetchAllTimeoutIsSkipped(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		items("20220101000000")(w)
	}))
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})
	records := client.FetchAll(context.Background(), "term", 2000, 200, nil)
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1 (first page timed out)", len(records))
	}
}

func TestFetchAllCancelled(t *testing.T) {
	archive := &fakeArchive{pages: map[int]func(w http.ResponseWriter){}}
	srv := httptest.NewServer(archive)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})
	records := client.FetchAll(ctx, "term", 2000, 1000, nil)
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
	if len(archive.offsets) != 0 {
		t.Errorf("issued %d requests after cancellation", len(archive.offsets))
	}
}

func TestFetchPageGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`{"response_items":[{"tstamp":"20200101120000","title":"gz"}]}`))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "application/json")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	client := NewArquivoClient(nil, ClientOptions{BaseURL: srv.URL})
	page, err := client.FetchPage(context.Background(), "term", 0, 2000)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title == nil || *page.Items[0].Title != "gz" {
		t.Errorf("unexpected page: %+v", page)
	}
}

// TestFetchPageIntegration is an integration test that actually calls the API
// Run with: go test -v -run TestFetchPageIntegration ./internal/api/
func TestFetchPageIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := NewArquivoClient(nil, ClientOptions{})
	page, err := client.FetchPage(context.Background(), "eusébio", 0, 2000)
	if err != nil {
		t.Skipf("text search API unreachable: %v", err)
	}

	t.Logf("Fetched %d items, estimated total %d", len(page.Items), page.EstimatedHits)
	for i, item := range page.Items {
		if i >= 3 {
			break
		}
		if item.Timestamp != nil {
			t.Logf("  %d: %s %s", i, *item.Timestamp, item.OriginalURL)
		}
	}
}
