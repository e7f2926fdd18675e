package cli

import (
	"fmt"

	"github.com/pfrederiksen/pcjc-awards/internal/filter"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"github.com/pfrederiksen/pcjc-awards/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagGenera     []string
	flagAwards     []string
	flagExhibitors []string
	flagLocations  []string
	flagDates      string
	flagMinPoints  int
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the records stored by earlier crawls",
		Args:  cobra.NoArgs,
		RunE:  runRecords,
	}
	cmd.Flags().StringVar(&flagSort, "sort", "", "Sort records by: number, date or genus")
	cmd.Flags().StringSliceVar(&flagGenera, "genus", nil, "Only records of these genera")
	cmd.Flags().StringSliceVar(&flagAwards, "award", nil, "Only these award codes (e.g. AM, HCC, FCC)")
	cmd.Flags().StringSliceVar(&flagExhibitors, "exhibitor", nil, "Only exhibitors containing these names")
	cmd.Flags().StringSliceVar(&flagLocations, "location", nil, "Only locations containing these names")
	cmd.Flags().StringVar(&flagDates, "dates", "", "Award date range: 2024, 2017-2019, 'Oct 2024' or 2024-03-01..2024-06-30")
	cmd.Flags().IntVar(&flagMinPoints, "min-points", 0, "Only awards with at least this many points")
	return cmd
}

// recordFilter builds a filter from the records flags
func recordFilter() (*filter.Filter, error) {
	f := filter.NewFilter()
	f.Genera = flagGenera
	f.Awards = flagAwards
	f.Exhibitors = flagExhibitors
	f.Locations = flagLocations
	f.MinPoints = flagMinPoints

	if flagDates != "" {
		from, to, err := filter.ParseDateRange(flagDates)
		if err != nil {
			return nil, fmt.Errorf("parsing --dates: %w", err)
		}
		f.DateFrom, f.DateTo = from, to
	}
	return f, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flagSort)
	if err != nil {
		return err
	}
	f, err := recordFilter()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	records, err := store.LoadRecords()
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	total := len(records)
	records = f.Apply(records)
	logger.Debug("records selected", logger.Fields{"filter": f.String(), "total": total, "selected": len(records)})

	results := make([]*RecordResult, len(records))
	for i, rec := range records {
		results[i] = &RecordResult{Source: rec.SourceURL, Record: rec}
	}
	sortResults(results, order)

	if err := WriteRecords(cmd.OutOrStdout(), results, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
