package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hipcall/hipcall-go/config"
	"github.com/hipcall/hipcall-go/filter"
	"github.com/hipcall/hipcall-go/hipcall"
	"github.com/hipcall/hipcall-go/output"
)

var (
	cfgFile      string
	outputFormat string
	debug        bool

	cfg     *config.Config
	logger  zerolog.Logger
	client  hipcall.API
	filters *filter.Manager
	printer *output.Printer

	registry *prometheus.Registry
	metrics  *hipcall.MetricsCollector
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hipcall",
	Short: "Command line client for the Hipcall API",
	Long: `hipcall is a CLI for the Hipcall cloud telephony API. It lists and inspects
calls, starts click-to-call bridges, and manages tasks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (table|json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// initializeApp loads the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if debug {
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" {
		if outputFormat != output.FormatTable && outputFormat != output.FormatJSON {
			return fmt.Errorf("invalid output format: %s (must be 'table' or 'json')", outputFormat)
		}
		cfg.Output.Format = outputFormat
	}

	logger = setupLogger(cfg.Logging)

	registry, metrics = nil, nil
	if cfg.Metrics.Textfile != "" {
		registry = prometheus.NewRegistry()
		metrics = hipcall.NewMetricsCollectorWithRegistry(registry)
	}

	client, err = hipcall.NewClient(cfg.APIKey, clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create Hipcall client: %w", err)
	}

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	printer = output.NewPrinter(cmd.OutOrStdout(), cfg.Output.Format)

	logger.Debug().
		Str("base_url", cfg.BaseURL).
		Strs("presets", filters.ListFilters()).
		Msg("Client initialized")

	return nil
}

// clientOptions maps the loaded configuration onto client options
func clientOptions() []hipcall.Option {
	return []hipcall.Option{
		hipcall.WithBaseURL(cfg.BaseURL),
		hipcall.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		hipcall.WithLogger(logger),
		hipcall.WithUserAgent(userAgent()),
		hipcall.WithCallSort(cfg.Calls.DefaultSort),
		hipcall.WithTaskSort(cfg.Tasks.DefaultSort),
		hipcall.WithMetrics(metrics),
	}
}

// writeMetrics exports the request metrics of the finished command
func writeMetrics(cmd *cobra.Command, args []string) error {
	if registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	logger.Debug().Str("path", cfg.Metrics.Textfile).Msg("Wrote request metrics")
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	// Console format
	fd := os.Stderr.Fd()
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)),
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
