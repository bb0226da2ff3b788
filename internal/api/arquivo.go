package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/arquivo-peaks/internal/models"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTextSearchURL  = "https://arquivo.pt/textsearch"
	DefaultRequestTimeout = 30 * time.Second
	DefaultDedupValue     = 50 // max items per site
	PageSize              = 100 // API maximum for maxItems
)

// ArquivoClient handles Arquivo.pt text search API requests.
// It holds no per-request state and is safe for concurrent use.
type ArquivoClient struct {
	httpClient *http.Client
	baseURL    string
	dedupValue int
	logger     *log.Logger
}

// ClientOptions configures an ArquivoClient. Zero values use the defaults.
type ClientOptions struct {
	BaseURL        string
	DedupValue     int
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// NewArquivoClient creates a new text search API client
func NewArquivoClient(logger *log.Logger, opts ClientOptions) *ArquivoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultTextSearchURL
	}
	if opts.DedupValue <= 0 {
		opts.DedupValue = DefaultDedupValue
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.RequestTimeout,
		}
	}

	return &ArquivoClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "?"),
		dedupValue: opts.DedupValue,
		logger:     logger,
	}
}

// ExtractRootDomain extracts the root domain from a URL or hostname
// Uses publicsuffix to handle complex TLDs like .com.pt
// Examples:
//   - "https://www.publico.pt/2020/01/01/x" -> "publico.pt"
//   - "noticias.sapo.pt" -> "sapo.pt"
//   - "expresso.pt" -> "expresso.pt"
func ExtractRootDomain(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty input")
	}

	if strings.Contains(input, "://") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		input = parsed.Hostname()
	}

	input = strings.TrimSuffix(input, ".")

	rootDomain, err := publicsuffix.EffectiveTLDPlusOne(input)
	if err != nil {
		return "", fmt.Errorf("failed to extract root domain: %w", err)
	}

	return rootDomain, nil
}

// SiteOf returns the root domain of an archived page URL, or "" if it has none
func SiteOf(rawURL string) string {
	domain, err := ExtractRootDomain(rawURL)
	if err != nil {
		return ""
	}
	return domain
}

// BuildTextSearchQuery constructs the query string for one result page
// Returns the query string WITHOUT the leading '?'
func BuildTextSearchQuery(term string, offset, startYear, dedupValue int) string {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(term))
	q.Set("maxItems", strconv.Itoa(PageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("prettyPrint", "false")
	q.Set("dedupValue", strconv.Itoa(dedupValue))
	q.Set("from", strconv.Itoa(startYear))
	return q.Encode()
}

// PageCount returns how many page requests are needed to cover maxResults
func PageCount(maxResults int) int {
	if maxResults <= 0 {
		return 0
	}
	return (maxResults + PageSize - 1) / PageSize
}

// FetchPage fetches a single page of results starting at offset
func (c *ArquivoClient) FetchPage(ctx context.Context, term string, offset, startYear int) (*models.TextSearchResponse, error) {
	rawURL := c.baseURL + "?" + BuildTextSearchQuery(term, offset, startYear, c.dedupValue)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "arquivo-peaks/1.0 (+https://github.com/thesavant42/arquivo-peaks)")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("text search API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Setting Accept-Encoding ourselves disables the transport's transparent
	// decompression, so gzip bodies are handled here.
	var reader io.Reader = resp.Body
	contentEncoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	if strings.Contains(contentEncoding, "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var wire textSearchPage
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	page := wire.TextSearchResponse
	page.Items = c.decodeItems(wire.Items, offset)
	return &page, nil
}

// textSearchPage defers item decoding so a bad item costs only itself
type textSearchPage struct {
	models.TextSearchResponse
	Items []json.RawMessage `json:"response_items"`
}

// decodeItems decodes each response item on its own, skipping the ones that
// are not JSON objects
func (c *ArquivoClient) decodeItems(raw []json.RawMessage, offset int) []models.RawRecord {
	items := make([]models.RawRecord, 0, len(raw))
	for i, item := range raw {
		var rec models.RawRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			if c.logger != nil {
				c.logger.Warn("Skipping undecodable item", "offset", offset, "index", i, "err", err)
			}
			continue
		}
		items = append(items, rec)
	}
	return items
}

// ProgressFunc is called after each page with the running item count,
// the 1-based page number and the total number of pages
type ProgressFunc func(fetched, page, pages int)

// FetchAll fetches up to maxResults items for term, one page at a time.
// A failed page is logged and skipped; an empty page does not stop the fetch.
// Returns whatever was collected, in API order. Cancelling ctx stops further
// requests.
func (c *ArquivoClient) FetchAll(ctx context.Context, term string, startYear, maxResults int, progress ProgressFunc) []models.RawRecord {
	pages := PageCount(maxResults)
	var all []models.RawRecord
	failed := 0

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			if c.logger != nil {
				c.logger.Warn("Fetch cancelled", "term", term, "page", page, "pages", pages, "records", len(all), "err", err)
			}
			break
		}

		offset := (page - 1) * PageSize
		resp, err := c.FetchPage(ctx, term, offset, startYear)
		switch {
		case err != nil:
			failed++
			if c.logger != nil {
				c.logger.Warn("Page fetch failed, skipping", "term", term, "page", page, "offset", offset, "err", err)
			}
		case len(resp.Items) == 0:
			if c.logger != nil {
				c.logger.Info("No items on page", "term", term, "page", page, "offset", offset)
			}
		default:
			all = append(all, resp.Items...)
			if c.logger != nil {
				c.logger.Info("Text search page fetched", "term", term, "page", page, "pageItems", len(resp.Items), "totalItems", len(all))
			}
		}

		if progress != nil {
			progress(len(all), page, pages)
		}
	}

	if c.logger != nil {
		c.logger.Debug("Fetch complete", "term", term, "pages", pages, "failedPages", failed, "records", len(all))
	}

	if all == nil {
		return []models.RawRecord{}
	}
	return all
}
