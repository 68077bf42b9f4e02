package stats

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the day-first format used for dates shown in reports.
const DisplayLayout = "02/01/2006 15:04"

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700", // Jira REST
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DisplayLayout,
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats found in Jira payloads and in
// stored snapshots. ok is false for empty or unrecognized input.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	return ParseTimestampIn(s, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with zone-less layouts read in loc.
func ParseTimestampIn(s string, loc *time.Location) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a raw timestamp with DisplayLayout.
// Empty input gives ""; unparseable input is returned as is.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, ok := ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.Format(DisplayLayout)
}

// FormatDateIn is FormatDate rendered in loc. Values without a zone are read in loc.
func FormatDateIn(raw string, loc *time.Location) string {
	if raw == "" {
		return ""
	}
	t, ok := ParseTimestampIn(raw, loc)
	if !ok {
		return raw
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatSeconds renders a duration in seconds as hours with two decimals ("3.50h").
func FormatSeconds(seconds float64) string {
	return FormatHours(seconds / 3600)
}

// FormatHours renders hours with two decimals ("3.50h").
func FormatHours(hours float64) string {
	if hours == 0 {
		return "0.00h"
	}
	return fmt.Sprintf("%.2fh", hours)
}
