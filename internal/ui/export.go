package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thesavant42/arquivo-peaks/internal/insights"
)

// GenerateMarkdownReport renders an analysis as a markdown document
func GenerateMarkdownReport(r Report, generated time.Time) string {
	var sb strings.Builder
	result := r.Result

	sb.WriteString(fmt.Sprintf("# Popularity of \"%s\" in Arquivo.pt\n\n", result.Term))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", generated.Format("2006-01-02 15:04:05")))

	if result.Failed() {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", result.ErrorMessage))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**Total Results:** %d\n\n", result.TotalResults))

	sb.WriteString("## Peaks\n\n")
	if len(result.Peaks) == 0 {
		sb.WriteString("No peaks\n\n")
	}
	for _, p := range result.Peaks {
		sb.WriteString(fmt.Sprintf("### %d. %s (%d mentions)\n\n", p.Rank, p.DisplayLabel, p.Count))
		for _, s := range p.Snippets {
			title := insights.PlainText(s.Title)
			if s.URL != "" {
				title = fmt.Sprintf("[%s](%s)", title, s.URL)
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", title, insights.PlainText(s.Snippet)))
		}
		sb.WriteString("\n")
	}

	if len(r.Insights.Blocks) > 0 {
		sb.WriteString("## Insights\n\n")
		if r.Insights.AIPowered {
			sb.WriteString("_Generated by a language model._\n\n")
		}
		for _, block := range r.Insights.Blocks {
			sb.WriteString(block)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("## Monthly Series\n\n")
	sb.WriteString("| Month | Count |\n")
	sb.WriteString("|-------|-------|\n")
	for _, b := range result.MonthlySeries {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", b.Month, b.Count))
	}

	return sb.String()
}

// ExportMarkdown writes the markdown report to filename
func ExportMarkdown(filename string, r Report) error {
	content := GenerateMarkdownReport(r, time.Now())
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}
	return nil
}
