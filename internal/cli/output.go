package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/pfrederiksen/pcjc-awards/internal/crawl"
	"github.com/pfrederiksen/pcjc-awards/internal/extract"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// RecordResult is one extracted record and where it came from
type RecordResult struct {
	Source string         `json:"source"`
	Record *award.Record  `json:"record"`
	Steps  []extract.Step `json:"failed_steps,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// CrawlResult contains the outcome of a crawl
type CrawlResult struct {
	CrawledAt time.Time        `json:"crawled_at"`
	Summary   *crawl.Summary   `json:"summary"`
	Metrics   *logger.Snapshot `json:"metrics,omitempty"`
}

// WriteReferences writes award references in the specified format
func WriteReferences(w io.Writer, refs []award.Reference, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if refs == nil {
			refs = []award.Reference{}
		}
		return writeJSON(w, refs)
	case FormatText:
		for _, ref := range refs {
			fmt.Fprintf(w, "%-5s %s\n", ref.Kind, ref.Path())
		}
		fmt.Fprintf(w, "\nTotal: %d references\n", len(refs))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteRecords writes extracted records in the specified format
func WriteRecords(w io.Writer, results []*RecordResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []*RecordResult{}
		}
		return writeJSON(w, results)
	case FormatText:
		return writeRecordsText(w, results, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteSummary writes a crawl summary in the specified format
func WriteSummary(w io.Writer, result *CrawlResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeSummaryText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeRecordsText(w io.Writer, results []*RecordResult, verbose bool) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		rec := res.Record
		fmt.Fprintf(w, "%s  %s\n", rec.AwardNumber, rec.PlantName)
		if len(res.Steps) > 0 {
			fmt.Fprintf(w, "  FLAGGED: %s\n", joinSteps(res.Steps))
		}
		writeField(w, "Award", rec.AwardCode.Or("?")+" "+rec.AwardPoints.Or("?"))
		writeField(w, "Date", rec.AwardDate.String())
		writeField(w, "Location", rec.Location.String())
		writeField(w, "Exhibitor", rec.Exhibitor.String())

		if !verbose {
			continue
		}
		writeField(w, "Source", res.Source)
		writeField(w, "Genus", rec.Genus.String())
		writeField(w, "Species", rec.SpeciesOrHybrid.String())
		writeField(w, "Clone", rec.Clone.String())
		writeField(w, "Cross", rec.CrossParentage.String())
		writeField(w, "Photographer", rec.Photographer.String())
		writeField(w, "Flowers", rec.FlowerCount.String())
		writeField(w, "Buds", rec.BudCount.String())
		writeField(w, "Inflorescences", rec.InflorescenceCount.String())

		measurements := make([]string, 0, len(award.CertCodes))
		for _, code := range award.CertCodes {
			measurements = append(measurements, fmt.Sprintf("%s=%s", code, rec.Measurement(code)))
		}
		writeField(w, "Measurements", strings.Join(measurements, " "))
		writeField(w, "Description", rec.Description.String())
		if rec.Photo != "" {
			writeField(w, "Photo", rec.Photo)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d records\n", len(results))
	return nil
}

func writeField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-15s %s\n", label+":", value)
}

func joinSteps(steps []extract.Step) string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func writeSummaryText(w io.Writer, result *CrawlResult, verbose bool) error {
	s := result.Summary
	fmt.Fprintf(w, "Pages fetched:   %d\n", s.Pages)
	fmt.Fprintf(w, "Records stored:  %d\n", s.Records)
	fmt.Fprintf(w, "Images stored:   %d\n", s.Images)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "Already known:   %d\n", s.Skipped)
	}

	fmt.Fprintf(w, "Flagged:         %d\n", len(s.Flagged))
	for _, f := range s.Flagged {
		fmt.Fprintf(w, "  %s (%s)\n", f.Reference.Path(), joinSteps(f.Steps))
	}
	fmt.Fprintf(w, "Failed:          %d\n", len(s.Failed))
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  %s: %s\n", f.Reference.Path(), f.Error)
	}
	fmt.Fprintf(w, "Duration:        %s\n", s.Duration)

	if verbose && result.Metrics != nil {
		fmt.Fprintln(w, "\nMetrics:")
		for _, name := range sortedKeys(result.Metrics.Counters) {
			fmt.Fprintf(w, "  %-20s %d\n", name, result.Metrics.Counters[name])
		}
		for _, name := range sortedKeys(result.Metrics.Timings) {
			t := result.Metrics.Timings[name]
			fmt.Fprintf(w, "  %-20s n=%d avg=%s min=%s max=%s\n", name, t.Count, t.Average, t.Min, t.Max)
		}
	}
	return nil
}
