package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/thesavant42/arquivo-peaks/internal/analysis"
	"github.com/thesavant42/arquivo-peaks/internal/api"
	"github.com/thesavant42/arquivo-peaks/internal/config"
	"github.com/thesavant42/arquivo-peaks/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "peaks",
	Short: "Find when a term peaked in the Arquivo.pt web archive",
	Long: `peaks searches the Arquivo.pt full-text index, counts results per month
and reports the three busiest months with sample snippets.

Commands:
  peaks serve           Run the web application
  peaks analyze [term]  Print a report in the terminal`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (default: ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config and PEAKS_LOG_LEVEL)")
}

// loadRuntime resolves the configuration and builds the logger.
// Flags win over environment, environment over the config file.
func loadRuntime(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newAnalyzer(cfg *config.Config, logger *log.Logger) *analysis.Analyzer {
	client := api.NewArquivoClient(logger, cfg.ClientOptions())
	return analysis.New(client, logger)
}
