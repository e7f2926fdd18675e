package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/pcjc-awards/internal/config"
	"github.com/pfrederiksen/pcjc-awards/internal/extract"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitIncomplete = 2
)

// ExitCodeError carries a specific exit code out of a command
type ExitCodeError struct {
	Code    int
	Message string
}

func (e *ExitCodeError) Error() string {
	return e.Message
}

var (
	flagConfig  string
	flagDataDir string
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcjc-awards",
		Short: "Collect orchid award records from the Pacific Central Judging Center site",
		Long: `A CLI tool to collect orchid award records published by the
Pacific Central Judging Center. Walks directory listings or year index pages,
downloads award pages and photos, and extracts structured records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(
		newListCmd(),
		newExtractCmd(),
		newCrawlCmd(),
		newRecordsCmd(),
	)

	return cmd
}

// outputFormat validates --format
func outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

// loadConfig reads the configuration, applies flag overrides and installs the
// default logger on stderr
func loadConfig(stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, stderr))
	return cfg, nil
}

// newExtractor builds an extractor from the configured layout file, if any
func newExtractor(cfg *config.Config) (*extract.Extractor, error) {
	if cfg.LayoutFile == "" {
		return extract.Default(), nil
	}
	layout, err := extract.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}
	ext, err := extract.New(layout)
	if err != nil {
		return nil, fmt.Errorf("compiling layout %s: %w", cfg.LayoutFile, err)
	}
	return ext, nil
}

// openInput opens a file argument; "-" reads stdin
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// exitCode maps a command error to a process exit code, reporting it on stderr
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	os.Exit(exitCode(NewRootCmd().Execute(), os.Stderr))
}
