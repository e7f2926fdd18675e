package cli

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/pfrederiksen/pcjc-awards/internal/config"
	"github.com/pfrederiksen/pcjc-awards/internal/crawl"
	"github.com/pfrederiksen/pcjc-awards/internal/fetcher"
	"github.com/pfrederiksen/pcjc-awards/internal/listing"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"github.com/pfrederiksen/pcjc-awards/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagIndex   string
	flagYear    int
	flagImages  bool
	flagNewOnly bool
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [listing-file]",
		Short: "Download award pages and store their records",
		Long: `Download award pages named by a directory listing or a year index page,
save the raw pages, extract their records and store them in the data directory.

Exactly one source is required: a listing file ("-" for stdin), --index URL,
or --year (the site's index page for that year).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawl,
	}
	cmd.Flags().StringVar(&flagIndex, "index", "", "URL of an index page linking award pages")
	cmd.Flags().IntVar(&flagYear, "year", 0, "Crawl the index page of this award year")
	cmd.Flags().BoolVar(&flagImages, "images", false, "Also download award photos")
	cmd.Flags().BoolVar(&flagNewOnly, "new-only", false, "Skip references stored by earlier crawls")
	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	sources := 0
	for _, set := range []bool{len(args) == 1, flagIndex != "", flagYear != 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of a listing file, --index or --year is required")
	}

	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ext, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	f := newFetcher(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var refs iter.Seq[award.Reference]
	switch {
	case len(args) == 1:
		refs, err = listingSource(cmd, args[0])
	case flagIndex != "":
		refs, err = indexSource(ctx, f, flagIndex)
	default:
		refs, err = indexSource(ctx, f, fmt.Sprintf("%s%d.html", cfg.Domain, flagYear))
	}
	if err != nil {
		return err
	}

	manifest, err := store.LoadManifest()
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	logger.Info("crawl started", logger.Fields{
		"domain":   cfg.Domain,
		"data_dir": store.Dir(),
		"workers":  cfg.Workers,
		"images":   flagImages,
		"new_only": flagNewOnly,
	})

	pipeline := &crawl.Pipeline{
		Fetcher:   f,
		Store:     store,
		Extractor: ext,
		Workers:   cfg.Workers,
		Images:    flagImages,
		NewOnly:   flagNewOnly,
		Manifest:  manifest,
	}
	summary, runErr := pipeline.Run(ctx, refs)

	// keep whatever was processed, even after an interrupt
	if err := store.SaveManifest(manifest); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	if summary == nil {
		return runErr
	}

	result := &CrawlResult{CrawledAt: time.Now().UTC(), Summary: summary}
	if flagVerbose {
		snap := logger.GetMetricsSnapshot()
		result.Metrics = &snap
	}
	if err := WriteSummary(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}
	if len(summary.Failed) > 0 || len(summary.Flagged) > 0 {
		return &ExitCodeError{
			Code:    ExitIncomplete,
			Message: fmt.Sprintf("%d references failed, %d pages flagged", len(summary.Failed), len(summary.Flagged)),
		}
	}
	return nil
}

func newFetcher(cfg *config.Config) *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		Domain:            cfg.Domain,
		Timeout:           cfg.Timeout,
		Agents:            fetcher.NewRandomAgents(cfg.UserAgents, uint64(time.Now().UnixNano())),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MaxRetries:        cfg.MaxRetries,
		RespectRobots:     cfg.RespectRobots,
	})
}

// listingSource reads a listing file and walks it lazily
func listingSource(cmd *cobra.Command, path string) (iter.Seq[award.Reference], error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	lines, err := listing.ReadLines(in)
	if err != nil {
		return nil, err
	}
	return listing.WalkLines(lines), nil
}

// indexSource downloads an index page and returns the award pages it links.
// Relative links resolve against the configured domain.
func indexSource(ctx context.Context, f *fetcher.Fetcher, url string) (iter.Seq[award.Reference], error) {
	text, err := f.FetchText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}

	refs, err := listing.ParseIndex(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	logger.Info("index parsed", logger.Fields{"url": url, "references": len(refs)})
	return slices.Values(refs), nil
}
