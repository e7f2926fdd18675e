package award

import (
	"strings"
	"time"
)

var awardDateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02",
}

// ParseAwardDate parses the judging date printed on an award page.
// Returns time.Time{} (zero value) if no known layout matches.
func ParseAwardDate(text string) time.Time {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return time.Time{}
	}

	for _, layout := range awardDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}

	// "Sept" shows up on older pages
	if strings.HasPrefix(text, "Sept ") {
		return ParseAwardDate("Sep " + text[len("Sept "):])
	}

	return time.Time{}
}

// Date returns the parsed award date, zero if absent or unparseable
func (r *Record) Date() time.Time {
	if !r.AwardDate.OK() {
		return time.Time{}
	}
	return ParseAwardDate(r.AwardDate.Value)
}
