package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/thesavant42/arquivo-peaks/internal/insights"
	"github.com/thesavant42/arquivo-peaks/internal/models"
)

// Report is everything printed for one analysis
type Report struct {
	Result   models.AnalysisResult
	Insights insights.Result
}

// PrintReport writes the styled terminal report for an analysis.
// Failed analyses print only the error message.
func PrintReport(w io.Writer, r Report) {
	if r.Result.Failed() {
		PrintError(w, r.Result.ErrorMessage)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderHeader(r.Result))
	fmt.Fprintln(w, RenderSeriesTable(r.Result.MonthlySeries, r.Result.Peaks))
	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderPeaks(r.Result.Peaks))
	if len(r.Insights.Blocks) > 0 {
		fmt.Fprintln(w, RenderInsights(r.Insights))
	}
}

// RenderHeader renders the term and the result count
func RenderHeader(result models.AnalysisResult) string {
	title := TitleStyle.Render(fmt.Sprintf("Popularity of %q in Arquivo.pt", result.Term))
	stats := NormalStyle.Render(fmt.Sprintf("Results: %s across %d months",
		AccentStyle.Render(fmt.Sprintf("%d", result.TotalResults)), len(result.MonthlySeries)))
	if result.Dropped > 0 {
		stats += HintStyle.Render(fmt.Sprintf("  (%d without a usable timestamp)", result.Dropped))
	}
	return title + "\n" + stats
}

// RenderSeriesTable renders the monthly series as a static bubbles table with
// a proportional bar per month and the peak rank where one applies.
func RenderSeriesTable(series []models.MonthBucket, peaks []models.PeakEntry) string {
	if len(series) == 0 {
		return HintStyle.Render("No monthly data")
	}

	ranks := make(map[models.YearMonth]int, len(peaks))
	for _, p := range peaks {
		ranks[p.Month] = p.Rank
	}

	maxCount := 0
	for _, b := range series {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	rows := make([]table.Row, 0, len(series))
	for _, b := range series {
		marker := ""
		if rank, ok := ranks[b.Month]; ok {
			marker = fmt.Sprintf("#%d", rank)
		}
		rows = append(rows, table.Row{
			b.Month.String(),
			fmt.Sprintf("%d", b.Count),
			bar(b.Count, maxCount, BarWidth),
			marker,
		})
	}

	t := table.New(
		table.WithColumns(BuildSeriesColumns()),
		table.WithRows(rows),
		table.WithHeight(len(rows)+3), // header and its border take up to two lines
		table.WithFocused(false),
		table.WithStyles(NewTableStyles()),
	)
	return BorderStyle.Render(t.View())
}

// bar scales count to at most width cells. Any non-zero count gets one cell.
func bar(count, maxCount, width int) string {
	if count <= 0 || maxCount <= 0 {
		return ""
	}
	n := count * width / maxCount
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// RenderPeaks renders each peak month with its snippets
func RenderPeaks(peaks []models.PeakEntry) string {
	if len(peaks) == 0 {
		return HintStyle.Render("No peaks")
	}

	var sections []string
	for _, p := range peaks {
		var b strings.Builder
		b.WriteString(AccentStyle.Render(fmt.Sprintf("#%d %s", p.Rank, p.DisplayLabel)))
		b.WriteString(NormalStyle.Render(fmt.Sprintf(" - %d mentions", p.Count)))
		for _, s := range p.Snippets {
			b.WriteString("\n")
			b.WriteString(renderSnippet(s))
		}
		sections = append(sections, BorderedBox().Render(b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSnippet(s models.PeakSnippet) string {
	title := insights.PlainText(s.Title)
	if s.Site != "" {
		title += " " + HintStyle.Render("("+s.Site+")")
	}
	text := insights.PlainText(s.Snippet)
	if len([]rune(text)) > InnerWidth*2 {
		text = string([]rune(text)[:InnerWidth*2-3]) + "..."
	}
	return "  " + NormalStyle.Bold(true).Render(title) + "\n  " + NormalStyle.Render(text)
}

// RenderInsights renders the insight blocks, marking model output
func RenderInsights(res insights.Result) string {
	heading := TitleStyle.Render("Insights")
	if res.AIPowered {
		heading = lipgloss.JoinHorizontal(lipgloss.Top, heading, " ", BadgeStyle.Render("AI"))
	}

	var lines []string
	for _, block := range res.Blocks {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
				lines = append(lines, AccentStyle.Render(strings.Trim(line, "*")))
				continue
			}
			lines = append(lines, NormalStyle.Render(line))
		}
	}
	return BorderedBox().Render(heading + "\n" + strings.Join(lines, "\n"))
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: "+message))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, SuccessStyle.Render(message))
}
