// Package web serves the search form and the chart page.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/arquivo-peaks/internal/analysis"
	"github.com/thesavant42/arquivo-peaks/internal/chart"
	"github.com/thesavant42/arquivo-peaks/internal/insights"
	"github.com/thesavant42/arquivo-peaks/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultStartYear  = 2000
	DefaultMaxResults = 300
)

// Analyzer runs one analysis. Implemented by *analysis.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, term string, startYear, maxResults int) models.AnalysisResult
}

// InsightGenerator explains a peak. Implemented by *insights.Generator.
type InsightGenerator interface {
	Generate(ctx context.Context, req insights.Request) insights.Result
	AIEnabled() bool
}

// Options sets the search window used for every web request
type Options struct {
	StartYear  int
	MaxResults int
}

type Server struct {
	analyzer  Analyzer
	insights  InsightGenerator
	logger    *log.Logger
	opts      Options
	tmpl      *template.Template
	startedAt time.Time
}

// NewServer parses the embedded templates and returns a Server. Zero
// options fall back to DefaultStartYear and DefaultMaxResults.
func NewServer(analyzer Analyzer, gen InsightGenerator, logger *log.Logger, opts Options) *Server {
	if opts.StartYear <= 0 {
		opts.StartYear = DefaultStartYear
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Server{
		analyzer:  analyzer,
		insights:  gen,
		logger:    logger,
		opts:      opts,
		tmpl:      template.Must(template.ParseFS(templateFS, "templates/*.html")),
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleSearch)
	mux.HandleFunc("GET /chart", s.handleChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type indexPage struct {
	Error string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "index.html", indexPage{})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.FormValue("searchterm"))
	if term == "" {
		s.render(w, "index.html", indexPage{Error: analysis.MsgEmptyTerm})
		return
	}
	http.Redirect(w, r, "/chart?term="+url.QueryEscape(term), http.StatusSeeOther)
}

type chartPage struct {
	Term       string
	Error      string
	Chart      template.URL
	Total      int
	Peaks      []peakView
	Insights   []insightView
	AIPowered  bool
	StartYear  int
	MaxResults int
}

type peakView struct {
	Rank     int
	Label    string
	Count    int
	Snippets []snippetView
}

type snippetView struct {
	Title     string
	Text      string
	URL       string // archived copy
	Site      string
	Timestamp string
}

type insightView struct {
	Heading string
	Points  []string
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	started := time.Now()
	result := s.analyzer.Analyze(r.Context(), term, s.opts.StartYear, s.opts.MaxResults)

	page := chartPage{
		Term:       result.Term,
		StartYear:  s.opts.StartYear,
		MaxResults: s.opts.MaxResults,
	}
	if result.Failed() {
		page.Error = result.ErrorMessage
		s.render(w, "chart.html", page)
		return
	}

	png, err := chart.RenderMonthlyBase64(result.MonthlySeries, result.Peaks)
	if err != nil {
		s.logWarn("Chart rendering failed", "term", term, "err", err)
	} else {
		page.Chart = template.URL("data:image/png;base64," + png)
	}

	page.Total = result.TotalResults
	page.Peaks = peakViews(result.Peaks)

	if s.insights != nil {
		res := s.insights.Generate(r.Context(), insights.RequestFrom(result))
		page.AIPowered = res.AIPowered
		for _, block := range res.Blocks {
			page.Insights = append(page.Insights, parseInsight(block))
		}
	}

	if s.logger != nil {
		s.logger.Info("Chart served", "term", term, "results", result.TotalResults,
			"peaks", len(result.Peaks), "ai", page.AIPowered, "elapsed", time.Since(started).Round(time.Millisecond))
	}
	s.render(w, "chart.html", page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	aiEnabled := s.insights != nil && s.insights.AIEnabled()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"started_at":  s.startedAt.Format(time.RFC3339),
		"uptime_sec":  int(time.Since(s.startedAt).Seconds()),
		"ai_enabled":  aiEnabled,
		"start_year":  s.opts.StartYear,
		"max_results": s.opts.MaxResults,
	})
}

func peakViews(peaks []models.PeakEntry) []peakView {
	views := make([]peakView, 0, len(peaks))
	for _, p := range peaks {
		v := peakView{Rank: p.Rank, Label: p.DisplayLabel, Count: p.Count}
		for _, sn := range p.Snippets {
			v.Snippets = append(v.Snippets, snippetView{
				Title:     insights.PlainText(sn.Title),
				Text:      insights.PlainText(sn.Snippet),
				URL:       sn.URL,
				Site:      sn.Site,
				Timestamp: sn.Timestamp,
			})
		}
		views = append(views, v)
	}
	return views
}

var (
	headingRe = regexp.MustCompile(`^\*\*(.+)\*\*$`)
	pointRe   = regexp.MustCompile(`^\d+[.)]\s*`)
)

// parseInsight splits a "**Heading**\n1. a\n2. b" block into its parts.
// Lines that are neither heading nor numbered are kept as points.
func parseInsight(block string) insightView {
	var v insightView
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil && v.Heading == "" && len(v.Points) == 0 {
			v.Heading = strings.TrimSpace(m[1])
			continue
		}
		v.Points = append(v.Points, pointRe.ReplaceAllString(line, ""))
	}
	return v
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logWarn("Template rendering failed", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) logWarn(msg string, keyvals ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, keyvals...)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
