// Package analysis runs the full popularity pipeline for one search term:
// fetch, aggregate by month, pick peaks.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/thesavant42/arquivo-peaks/internal/api"
	"github.com/thesavant42/arquivo-peaks/internal/models"
	"github.com/thesavant42/arquivo-peaks/internal/trend"
)

// User-facing failure messages
const (
	MsgNoResults         = "No results found for this search term."
	MsgNoTimestampField  = "No timestamp data found in search results."
	MsgNoValidTimestamps = "No valid timestamp data found in search results."
	MsgEmptyTerm         = "Please enter a search term."

	defaultStartYear  = 2000
	defaultMaxResults = 1000
)

// Fetcher retrieves raw search results. Implemented by *api.ArquivoClient.
type Fetcher interface {
	FetchAll(ctx context.Context, term string, startYear, maxResults int, progress api.ProgressFunc) []models.RawRecord
}

// Analyzer wires the archive client to the aggregation and peak selection steps.
// It keeps no state between calls and is safe for concurrent use.
type Analyzer struct {
	fetcher  Fetcher
	selector trend.Selector
	logger   *log.Logger
}

// New creates an Analyzer that reports the top three peaks
func New(fetcher Fetcher, logger *log.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		selector: trend.Selector{
			K:            trend.DefaultPeakCount,
			SnippetLimit: trend.MaxSnippetsPerPeak,
			SiteOf:       api.SiteOf,
		},
		logger: logger,
	}
}

// Analyze fetches results for term and returns the monthly series and peaks.
// It never returns an error: every failure becomes AnalysisResult.ErrorMessage.
func (a *Analyzer) Analyze(ctx context.Context, term string, startYear, maxResults int) models.AnalysisResult {
	return a.AnalyzeWithProgress(ctx, term, startYear, maxResults, nil)
}

// AnalyzeWithProgress is Analyze with a per-page progress callback
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, term string, startYear, maxResults int, progress api.ProgressFunc) (result models.AnalysisResult) {
	term = strings.TrimSpace(term)
	runID := uuid.NewString()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.logError("Analysis panicked", "run", runID, "term", term, "panic", r)
			result = models.FailedAnalysis(term, fmt.Sprint(r))
		}
	}()

	if term == "" {
		return models.FailedAnalysis(term, MsgEmptyTerm)
	}
	if startYear <= 0 {
		startYear = defaultStartYear
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	a.logInfo("Analysis started", "run", runID, "term", term, "from", startYear, "maxResults", maxResults)

	records := a.fetcher.FetchAll(ctx, term, startYear, maxResults, progress)
	if len(records) == 0 {
		a.logInfo("No records fetched", "run", runID, "term", term)
		return models.FailedAnalysis(term, MsgNoResults)
	}

	series, dropped, err := trend.Aggregate(records)
	switch {
	case errors.Is(err, trend.ErrNoTimestampField):
		a.logWarn("Records lack timestamps", "run", runID, "term", term, "records", len(records))
		return models.FailedAnalysis(term, MsgNoTimestampField)
	case errors.Is(err, trend.ErrNoValidTimestamps):
		a.logWarn("No parseable timestamps", "run", runID, "term", term, "records", len(records))
		return models.FailedAnalysis(term, MsgNoValidTimestamps)
	case err != nil:
		return models.FailedAnalysis(term, err.Error())
	}

	peaks := a.selector.Select(series)
	total := trend.TotalCount(series)

	if a.logger != nil {
		a.logger.Debug("Dropped unparseable records", "run", runID, "dropped", dropped)
	}
	a.logInfo("Analysis complete", "run", runID, "term", term, "records", total, "months", len(series), "peaks", len(peaks), "elapsed", time.Since(started).Round(time.Millisecond))

	return models.AnalysisResult{
		Term:          term,
		MonthlySeries: series,
		Peaks:         peaks,
		TotalResults:  total,
		Dropped:       dropped,
	}
}

func (a *Analyzer) logInfo(msg string, keyvals ...interface{}) {
	if a.logger != nil {
		a.logger.Info(msg, keyvals...)
	}
}

func (a *Analyzer) logWarn(msg string, keyvals ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, keyvals...)
	}
}

func (a *Analyzer) logError(msg string, keyvals ...interface{}) {
	if a.logger != nil {
		a.logger.Error(msg, keyvals...)
	}
}
