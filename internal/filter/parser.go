package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearRe      = regexp.MustCompile(`^(\d{4})$`)
	yearRangeRe = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
	monthYearRe = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{4})$`)
	isoRangeRe  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*\.\.\s*(\d{4}-\d{2}-\d{2})$`)
)

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "2024" - Entire year
//   - "2017-2019" - Several whole years
//   - "Oct 2024" or "October 2024" - Entire month
//   - "2024-03-01..2024-06-30" - Explicit days
//
// Returns (dateFrom, dateTo, error). Times are in UTC.
// Start time is at 00:00:00, end time is at 23:59:59.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := yearRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		return yearSpan(year, year)
	}

	if m := yearRangeRe.FindStringSubmatch(input); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		return yearSpan(from, to)
	}

	if m := monthYearRe.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		if month == 0 {
			return nil, nil, fmt.Errorf("invalid month: %s", m[1])
		}
		year, _ := strconv.Atoi(m[2])
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	if m := isoRangeRe.FindStringSubmatch(input); m != nil {
		from, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[1])
		}
		end, err := time.Parse("2006-01-02", m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[2])
		}
		to := end.Add(24*time.Hour - time.Second)
		if from.After(to) {
			return nil, nil, fmt.Errorf("start date must be before end date")
		}
		return &from, &to, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use '2024', '2017-2019', 'Oct 2024', or '2024-03-01..2024-06-30'")
}

func yearSpan(first, last int) (*time.Time, *time.Time, error) {
	if first > last {
		return nil, nil, fmt.Errorf("start year must not be after end year")
	}
	from := time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(last, time.December, 31, 23, 59, 59, 0, time.UTC)
	return &from, &to, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}
