package cli

import (
	"testing"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

func result(number, genus, species, date string) *RecordResult {
	rec := award.NewRecord()
	if number != "" {
		rec.AwardNumber = award.Value(number)
	}
	if genus != "" {
		rec.Genus = award.Value(genus)
	}
	if species != "" {
		rec.SpeciesOrHybrid = award.Value(species)
	}
	if date != "" {
		rec.AwardDate = award.Value(date)
	}
	return &RecordResult{Source: number + ".html", Record: rec}
}

func numbers(results []*RecordResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.AwardNumber.Value
	}
	return out
}

func TestSortResults(t *testing.T) {
	tests := []struct {
		name  string
		order SortOrder
		want  []string
	}{
		{name: "none keeps input order", order: SortNone, want: []string{"20245383", "999", "20175250", "20190001"}},
		{name: "number", order: SortByNumber, want: []string{"999", "20175250", "20190001", "20245383"}},
		{name: "date, undated last", order: SortByDate, want: []string{"20175250", "20245383", "999", "20190001"}},
		{name: "genus then species, missing genus last", order: SortByGenus, want: []string{"20190001", "20245383", "20175250", "999"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := []*RecordResult{
				result("20245383", "Cattleya", "Mount Anne", "October 12, 2024"),
				result("999", "", "", ""),
				result("20175250", "Paphiopedilum", "Maudiae", "June 19, 2017"),
				result("20190001", "Cattleya", "intermedia", "no date given"),
			}
			sortResults(results, tt.order)

			got := numbers(results)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("sortResults(%s) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	for _, in := range []string{"", "number", "DATE", " genus "} {
		if _, err := parseSortOrder(in); err != nil {
			t.Errorf("parseSortOrder(%q) error = %v", in, err)
		}
	}
	if _, err := parseSortOrder("state"); err == nil {
		t.Error("parseSortOrder(\"state\") expected error")
	}
}
