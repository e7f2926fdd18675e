package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/pcjc-awards/internal/extract"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"github.com/spf13/cobra"
)

var flagSort string

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <page.html>...",
		Short: "Extract award records from saved award pages",
		Long: `Extract award records from award pages on disk and print them.
Pages that deviate from the award template are still printed with their
partial record; the command then exits with status 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}
	cmd.Flags().StringVar(&flagSort, "sort", "", "Sort records by: number, date or genus")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flagSort)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ext, err := newExtractor(cfg)
	if err != nil {
		return err
	}

	results := make([]*RecordResult, 0, len(args))
	flagged := 0
	for _, path := range args {
		result, err := extractFile(ext, path)
		if err != nil {
			return err
		}
		if len(result.Steps) > 0 {
			flagged++
			logger.Warn("page deviates from award template", logger.Fields{
				"file":  path,
				"step":  result.Steps,
				"error": result.Error,
			})
		}
		results = append(results, result)
	}

	sortResults(results, order)

	if err := WriteRecords(cmd.OutOrStdout(), results, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagged > 0 {
		return &ExitCodeError{
			Code:    ExitError,
			Message: fmt.Sprintf("%d of %d pages deviate from the award template", flagged, len(args)),
		}
	}
	return nil
}

func extractFile(ext *extract.Extractor, path string) (*RecordResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", path, err)
	}

	rec, err := ext.ExtractText(string(data))
	result := &RecordResult{Source: path, Record: rec}
	if err != nil {
		result.Steps = extract.FailedSteps(err)
		result.Error = err.Error()
	}
	return result, nil
}
