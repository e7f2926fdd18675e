// Package filter selects stored award records by their extracted fields.
//
// Criteria combine with AND; within one criterion any listed value may match:
//   - Date range: award date within DateFrom and DateTo (inclusive)
//   - Genera: genus equals one of the names (case-insensitive)
//   - Awards: award code equals one of the codes, or starts with it followed by "/"
//   - Exhibitors: exhibitor contains one of the names (case-insensitive)
//   - Locations: location contains one of the names (case-insensitive)
//   - MinPoints: award points at least this value
//
// Example usage:
//
//	// Cattleya first class certificates from 2017 to 2019
//	f := filter.NewFilter()
//	f.Genera = []string{"Cattleya"}
//	f.Awards = []string{"FCC"}
//	f.DateFrom, f.DateTo, _ = filter.ParseDateRange("2017-2019")
//
//	matching := f.Apply(records)
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

// Filter represents record selection criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Genera     []string `json:"genera,omitempty"`
	Awards     []string `json:"awards,omitempty"`
	Exhibitors []string `json:"exhibitors,omitempty"`
	Locations  []string `json:"locations,omitempty"`

	MinPoints int `json:"min_points,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all records until criteria are added.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Genera) == 0 &&
		len(f.Awards) == 0 &&
		len(f.Exhibitors) == 0 &&
		len(f.Locations) == 0 &&
		f.MinPoints == 0
}

// Matches checks if a record passes all active criteria.
// A record whose field needed by a criterion is missing does not match it;
// an unparseable award date fails any date bound.
func (f *Filter) Matches(rec *award.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil {
		date := rec.Date()
		if date.IsZero() {
			return false
		}
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
	}

	if len(f.Genera) > 0 && !anyMatch(rec.Genus, f.Genera, strings.EqualFold) {
		return false
	}

	if len(f.Awards) > 0 && !anyMatch(rec.AwardCode, f.Awards, awardMatches) {
		return false
	}

	if len(f.Exhibitors) > 0 && !anyMatch(rec.Exhibitor, f.Exhibitors, containsFold) {
		return false
	}

	if len(f.Locations) > 0 && !anyMatch(rec.Location, f.Locations, containsFold) {
		return false
	}

	if f.MinPoints > 0 {
		points, err := strconv.Atoi(rec.AwardPoints.Value)
		if !rec.AwardPoints.OK() || err != nil || points < f.MinPoints {
			return false
		}
	}

	return true
}

func anyMatch(field award.Field, wanted []string, match func(value, want string) bool) bool {
	if !field.OK() {
		return false
	}
	for _, w := range wanted {
		if match(field.Value, w) {
			return true
		}
	}
	return false
}

func containsFold(value, want string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(want))
}

// awardMatches compares award codes; "HCC" matches "HCC" and "HCC/AOS"
func awardMatches(code, want string) bool {
	if strings.EqualFold(code, want) {
		return true
	}
	prefix, _, found := strings.Cut(code, "/")
	return found && strings.EqualFold(prefix, want)
}

// Apply returns the records matching the filter.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(records []*award.Record) []*award.Record {
	if f.IsEmpty() {
		return records
	}

	var filtered []*award.Record
	for _, rec := range records {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "From: Jan 1, 2017 | To: Dec 31, 2019 | Genera: Cattleya | Awards: FCC"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Genera) > 0 {
		parts = append(parts, fmt.Sprintf("Genera: %s", strings.Join(f.Genera, ", ")))
	}
	if len(f.Awards) > 0 {
		parts = append(parts, fmt.Sprintf("Awards: %s", strings.Join(f.Awards, ", ")))
	}
	if len(f.Exhibitors) > 0 {
		parts = append(parts, fmt.Sprintf("Exhibitors: %s", strings.Join(f.Exhibitors, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}
	if f.MinPoints > 0 {
		parts = append(parts, fmt.Sprintf("Min points: %d", f.MinPoints))
	}
	return strings.Join(parts, " | ")
}
