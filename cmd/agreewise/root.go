package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agreewise/agreewise/internal/bootstrap"
	"github.com/agreewise/agreewise/internal/config"
	"github.com/agreewise/agreewise/internal/observability/logging"
)

const service = "agreewise-cli"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "agreewise",
	Short: "Explain agreements in plain language",
	Long: `AgreeWise sends the pages of an agreement to the analysis service and
shows the findings in your language: summary, obligations, rights, red and
yellow flags, and questions to ask before signing.

Configuration comes from the environment, optionally layered over a YAML
file given with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "YAML config overlay (same keys as the environment variables)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default: LOG_LEVEL or warn)",
	)

	rootCmd.AddCommand(analyzeCmd, stringsCmd, languagesCmd, watchCmd)
}

func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv(config.OverlayEnv, cfgFile); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load()
}

// newLogger logs to stderr, defaulting to warn so results on stdout stay readable.
func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	logger := logging.NewJSONLoggerTo(os.Stderr, service, level)
	slog.SetDefault(logger)
	return logger
}

// newApp wires the full stack for commands that talk to the analysis service.
func newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(cmd.Context(), cfg, service, newLogger())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
