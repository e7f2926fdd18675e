package cli

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone     SortOrder = ""
	SortByNumber SortOrder = "number"
	SortByDate   SortOrder = "date"
	SortByGenus  SortOrder = "genus"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortNone, SortByNumber, SortByDate, SortByGenus:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'number', 'date' or 'genus')", s)
	}
}

// sortResults sorts records based on the specified sort order.
// The sort is stable so input order breaks remaining ties.
func sortResults(results []*RecordResult, order SortOrder) {
	switch order {
	case SortByNumber:
		sort.SliceStable(results, func(i, j int) bool {
			return compareByNumber(results[i], results[j])
		})
	case SortByDate:
		sort.SliceStable(results, func(i, j int) bool {
			return compareByDate(results[i], results[j])
		})
	case SortByGenus:
		sort.SliceStable(results, func(i, j int) bool {
			gi := strings.ToLower(results[i].Record.Genus.Value)
			gj := strings.ToLower(results[j].Record.Genus.Value)
			if gi != gj {
				// records without a genus go last
				if gi == "" || gj == "" {
					return gj == ""
				}
				return gi < gj
			}
			si := strings.ToLower(results[i].Record.SpeciesOrHybrid.Value)
			sj := strings.ToLower(results[j].Record.SpeciesOrHybrid.Value)
			if si != sj {
				return si < sj
			}
			return compareByNumber(results[i], results[j])
		})
	}
}

// compareByNumber orders by award number; shorter numbers first so that
// unpadded numbers compare numerically
func compareByNumber(i, j *RecordResult) bool {
	ni := i.Record.Key(i.Source)
	nj := j.Record.Key(j.Source)
	if len(ni) != len(nj) {
		return len(ni) < len(nj)
	}
	return ni < nj
}

// compareByDate compares two records by award date.
// Records without a parseable date go last.
func compareByDate(i, j *RecordResult) bool {
	dateI := i.Record.Date()
	dateJ := j.Record.Date()

	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
		return compareByNumber(i, j)
	}
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}
	return compareByNumber(i, j)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
