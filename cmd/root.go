package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/ai"
	cfgpkg "github.com/KaramelBytes/queryloom/internal/config"
	"github.com/KaramelBytes/queryloom/internal/logging"
	"github.com/KaramelBytes/queryloom/internal/metrics"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var (
	cfgFile string
	debug   bool
	// Flags that override config when set
	flagProvider          string
	flagModel             string
	flagExternalTimeoutMs int
	flagHTTPTimeoutSec    int
	flagRetryMaxAttempts  int
	flagRetryBaseDelayMs  int
	flagRetryMaxDelayMs   int
	modelsFile            string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "queryloom",
	Short: "QueryLoom: ask natural-language questions about CSV and Excel data",
	Long: `QueryLoom loads a tabular dataset and answers free-form questions about it with
a text explanation, a confidence score and a chart. Questions go to an external
reasoning service when one is configured and fall back to the built-in analytics
engine when it is slow or unavailable.`,
	SilenceUsage: true,
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
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.queryloom/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVar(&flagProvider, "provider", "", "external reasoning provider: none|openrouter|ollama|openai|anthropic (overrides config)")
	f.StringVar(&flagModel, "model", "", "model for the external provider (overrides config)")
	f.IntVar(&flagExternalTimeoutMs, "external-timeout-ms", 0, "bound on one external attempt in ms (overrides config)")
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	f.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	f.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
	f.StringVar(&modelsFile, "models-file", "", `JSON catalog of model context windows, e.g. {"acme/large": {"context_tokens": 32000}}`)
}

func loadConfig() {
	_ = godotenv.Load()
	log = logging.New(os.Stderr, debug)
	slog.SetDefault(log)
	metrics.BuildInfo.WithLabelValues(Version).Set(1)

	if modelsFile != "" {
		m, err := ai.LoadModelsFromJSON(modelsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load models file: %v\n", err)
		} else {
			ai.MergeModels(m)
		}
	}

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: the local engine runs without config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		if c, err = cfgpkg.Default(); err != nil {
			return
		}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("provider") {
		if err := cfg.Set("provider", flagProvider); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		}
	}
	if f.Changed("model") {
		cfg.Model = flagModel
	}
	if f.Changed("external-timeout-ms") && flagExternalTimeoutMs > 0 {
		cfg.ExternalTimeoutMs = flagExternalTimeoutMs
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}
