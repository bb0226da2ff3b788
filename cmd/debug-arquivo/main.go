// Debug tool to probe a single Arquivo.pt text search page
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/arquivo-peaks/internal/api"
	"github.com/thesavant42/arquivo-peaks/internal/models"
	"github.com/thesavant42/arquivo-peaks/internal/trend"
)

func main() {
	offset := flag.Int("offset", 0, "result offset")
	from := flag.Int("from", 2000, "first year")
	flag.Parse()

	term := "25 de abril"
	if flag.NArg() > 0 {
		term = strings.Join(flag.Args(), " ")
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})

	fmt.Printf("Testing text search for term: %s\n", term)
	fmt.Printf("Query: %s\n", api.BuildTextSearchQuery(term, *offset, *from, api.DefaultDedupValue))

	client := api.NewArquivoClient(logger, api.ClientOptions{})

	var (
		resp     *models.TextSearchResponse
		fetchErr error
	)
	err := spinner.New().
		Title("Fetching page...").
		Action(func() {
			resp, fetchErr = client.FetchPage(context.Background(), term, *offset, *from)
		}).
		Run()
	if err == nil {
		err = fetchErr
	}
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Items: %d\n", len(resp.Items))
	fmt.Printf("Estimated hits: %d\n", resp.EstimatedHits)
	fmt.Printf("Next page: %s\n", resp.NextPage)

	normalized, dropped := trend.NormalizeRecords(resp.Items)
	fmt.Printf("Valid timestamps: %d (dropped %d)\n", len(normalized), dropped)

	fmt.Println("\nFirst records:")
	for i, rec := range resp.Items {
		if i >= 3 {
			fmt.Printf("  ... and %d more\n", len(resp.Items)-3)
			break
		}
		s := trend.SnippetFor(rec)
		fmt.Printf("  %d. [%s] %s (%s)\n", i+1, s.Timestamp, s.Title, api.SiteOf(rec.OriginalURL))
	}
}
