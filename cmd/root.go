package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/bizdata-cli/internal/config"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/logging"
)

var (
	cfgFile string
	debug   bool
	// HTTP flags (override config if set)
	flagHTTPTimeoutSec int
	flagProvider       string
	flagModel          string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bizdata",
	Short: "bizdata: business analytics and advisory chat for sales spreadsheets",
	Long: `bizdata loads a CSV/TSV/XLSX export of business transactions, detects which columns
carry revenue, dates and customers, and reports totals, monthly growth, top contributors and
a weekday/hour revenue heatmap. It can clean the data, answer questions about it through an
LLM advisor, or serve everything over an HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.bizdata/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider: gemini | openrouter | ollama (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so analysis still works
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("provider") && flagProvider != "" {
		cfg.Provider = strings.ToLower(flagProvider)
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger = logging.New(level, cfg.LogFormat, os.Stderr)
}

// current returns the loaded config, loading it on first use when the
// command tree runs without Execute (tests).
func current() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func appLogger() *slog.Logger {
	if logger == nil {
		current()
	}
	return logger
}

func analysisOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	loc, err := current().Location()
	if err != nil {
		return opt, err
	}
	opt.Location = loc
	return opt, nil
}

func advisorOptions() advisor.Options {
	c := current()
	opt := advisor.DefaultOptions()
	opt.Model = c.Model
	opt.Temperature = c.Temperature
	opt.TopP = c.TopP
	opt.MaxTokens = c.MaxTokens
	return opt
}

func newRuntime() (ai.Runtime, error) {
	c := current()
	rt, ok := ai.GetRuntime(c.Provider, c.RuntimeConfig())
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", c.Provider, strings.Join(ai.Providers(), ", "))
	}
	return rt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// loadAndAnalyze ingests path and runs the analysis pipeline, optionally cleaning.
func loadAndAnalyze(path string, lopt dataset.LoadOptions, clean bool) (*analysis.Result, error) {
	opt, err := analysisOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(path, lopt)
	if err != nil {
		return nil, err
	}
	res := analysis.Analyze(ds, opt)
	appLogger().Debug("dataset analysed",
		"file", ds.Name,
		"rows", ds.Len(),
		"columns", len(ds.Headers),
		"financial", res.Capabilities.HasFinancialData,
		"time", res.Capabilities.HasTimeData,
	)
	if clean {
		res = analysis.Clean(res, opt)
		appLogger().Debug("dataset cleaned", "file", ds.Name, "columns", len(res.Dataset.Headers))
	}
	return res, nil
}
