package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/thesavant42/arquivo-peaks/internal/analysis"
	"github.com/thesavant42/arquivo-peaks/internal/chart"
	"github.com/thesavant42/arquivo-peaks/internal/insights"
	"github.com/thesavant42/arquivo-peaks/internal/models"
	"github.com/thesavant42/arquivo-peaks/internal/ui"
)

var (
	analyzeFrom       int
	analyzeMax        int
	analyzePNG        string
	analyzeMarkdown   string
	analyzeExport     bool
	analyzeNoInsights bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [term]",
	Short: "Analyze a term and print the report",
	Long: `Fetch results for a term, print the monthly series, the top three peak
months with snippets, and insights. Without a term you are prompted for one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&analyzeFrom, "from", 0, "First year to search (default archive.start_year)")
	analyzeCmd.Flags().IntVar(&analyzeMax, "max", 0, "Maximum results to fetch (default archive.max_results)")
	analyzeCmd.Flags().StringVar(&analyzePNG, "png", "", "Write the chart to this PNG file")
	analyzeCmd.Flags().StringVar(&analyzeMarkdown, "markdown", "", "Write a markdown report to this file")
	analyzeCmd.Flags().BoolVar(&analyzeExport, "export", false, "Prompt for a markdown report filename after the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeNoInsights, "no-insights", false, "Skip the insights section")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	var term string
	if len(args) == 1 {
		term = args[0]
	} else {
		term, err = ui.PromptForTerm()
		if err != nil {
			return err
		}
	}

	from := cfg.Archive.StartYear
	if analyzeFrom > 0 {
		from = analyzeFrom
	}
	maxResults := cfg.Archive.MaxResults
	if analyzeMax > 0 {
		maxResults = analyzeMax
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	interactive := isTerminal(os.Stderr)
	// Info logs would tear the spinner line; keep them unless asked for.
	if interactive && !cmd.Flags().Changed("log-level") && logger.GetLevel() < log.WarnLevel {
		logger.SetLevel(log.WarnLevel)
	}

	analyzer := newAnalyzer(cfg, logger)
	result, err := runAnalysis(ctx, analyzer, term, from, maxResults, interactive)
	if err != nil {
		return err
	}

	report := ui.Report{Result: result}
	if !result.Failed() && !analyzeNoInsights {
		gen := insights.New(cfg.InsightsConfig(), logger)
		report.Insights = generateInsights(ctx, gen, result, interactive)
	}

	out := cmd.OutOrStdout()
	ui.PrintReport(out, report)
	if result.Failed() {
		return errReported
	}

	if analyzePNG != "" {
		png, err := chart.RenderMonthly(result.MonthlySeries, result.Peaks)
		if err != nil {
			return err
		}
		if err := os.WriteFile(analyzePNG, png, 0644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		ui.PrintSuccess(out, "Chart written to "+analyzePNG)
	}

	markdownPath := analyzeMarkdown
	if markdownPath == "" && analyzeExport {
		markdownPath, err = ui.PromptForFilename(ui.DefaultExportFilename(result.Term, time.Now()))
		if err != nil {
			return err
		}
	}
	if markdownPath != "" {
		if err := ui.ExportMarkdown(markdownPath, report); err != nil {
			return err
		}
		ui.PrintSuccess(out, "Report written to "+markdownPath)
	}

	return nil
}

func runAnalysis(ctx context.Context, analyzer *analysis.Analyzer, term string, from, maxResults int, interactive bool) (models.AnalysisResult, error) {
	if !interactive {
		return analyzer.Analyze(ctx, term, from, maxResults), nil
	}

	var result models.AnalysisResult
	err := ui.RunWithSpinner(fmt.Sprintf("Searching Arquivo.pt for %q...", term), func(update func(string)) {
		result = analyzer.AnalyzeWithProgress(ctx, term, from, maxResults, func(fetched, page, pages int) {
			update(fmt.Sprintf("Searching Arquivo.pt for %q... page %d/%d (%d results)", term, page, pages, fetched))
		})
	})
	if errors.Is(err, ui.ErrCancelled) {
		return models.AnalysisResult{}, err
	}
	if err != nil {
		// no usable terminal after all
		return analyzer.Analyze(ctx, term, from, maxResults), nil
	}
	return result, nil
}

func generateInsights(ctx context.Context, gen *insights.Generator, result models.AnalysisResult, interactive bool) insights.Result {
	req := insights.RequestFrom(result)
	if !interactive || !gen.AIEnabled() {
		return gen.Generate(ctx, req)
	}

	var res insights.Result
	err := ui.RunWithSpinner("Generating insights...", func(func(string)) {
		res = gen.Generate(ctx, req)
	})
	if err != nil {
		return insights.Result{Blocks: insights.BasicInsights(req)}
	}
	return res
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
