package stats

import (
	"fmt"
	"time"

	"sprint-mcp/internal/jira"
)

// BurndownMetric selects what a burndown counts.
type BurndownMetric string

const (
	MetricIssues BurndownMetric = "issues"
	MetricTime   BurndownMetric = "time"
)

// CompletionField names the issue date that marks an issue as finished.
type CompletionField string

const (
	CompletionDevDone    CompletionField = "dev_done_date"
	CompletionTestDone   CompletionField = "test_done_date"
	CompletionResolution CompletionField = "resolution_date"
)

// Value returns the completion date string of issue.
func (f CompletionField) Value(issue jira.Issue) string {
	switch f {
	case CompletionTestDone:
		return issue.TestDoneDate
	case CompletionResolution:
		return issue.ResolutionDate
	default:
		return issue.DevDoneDate
	}
}

// ParseBurndownMetric validates a metric name; "" means issues.
func ParseBurndownMetric(s string) (BurndownMetric, error) {
	switch BurndownMetric(s) {
	case "", MetricIssues:
		return MetricIssues, nil
	case MetricTime:
		return MetricTime, nil
	}
	return "", fmt.Errorf("unknown burndown metric %q (want issues or time)", s)
}

// ParseCompletionField validates a completion field name; "" means dev done.
func ParseCompletionField(s string) (CompletionField, error) {
	switch f := CompletionField(s); f {
	case "":
		return CompletionDevDone, nil
	case CompletionDevDone, CompletionTestDone, CompletionResolution:
		return f, nil
	}
	return "", fmt.Errorf("unknown completion field %q", s)
}

// Burndown is the remaining work per sprint day next to the ideal line.
type Burndown struct {
	Metric     BurndownMetric  `json:"metric"`
	Completion CompletionField `json:"completion_field"`
	Dates      []string        `json:"dates"`
	Ideal      []float64       `json:"ideal"`
	Actual     []float64       `json:"actual"`
	Total      float64         `json:"total"`
}

// GenerateBurndown builds the ideal and actual series for every calendar day
// from start to end. An issue is open on day d while its completion date is
// missing, unparseable or later than the end of d. Actual values are defined
// for every day, including future ones; see ElapsedDays.
func GenerateBurndown(issues []jira.Issue, start, end time.Time, metric BurndownMetric, field CompletionField) Burndown {
	b := Burndown{Metric: metric, Completion: field}

	days := DayRange(start, end)
	if len(days) == 0 {
		return b
	}
	loc := days[0].Location()

	weight := func(issue jira.Issue) float64 {
		if metric == MetricTime {
			return issue.OriginalEstimate
		}
		return 1
	}

	type completion struct {
		at   time.Time
		done bool
	}
	completions := make([]completion, len(issues))
	for i, issue := range issues {
		b.Total += weight(issue)
		at, ok := ParseTimestampIn(field.Value(issue), loc)
		completions[i] = completion{at: at, done: ok}
	}

	n := len(days)
	b.Dates = make([]string, n)
	b.Ideal = make([]float64, n)
	b.Actual = make([]float64, n)
	for i, day := range days {
		b.Dates[i] = day.Format(dateLayout)
		b.Ideal[i] = idealRemaining(b.Total, i, n)

		dayEnd := SnapToEnd(day, "day")
		for j, issue := range issues {
			c := completions[j]
			if !c.done || c.at.After(dayEnd) {
				b.Actual[i] += weight(issue)
			}
		}
	}
	return b
}

func idealRemaining(total float64, i, n int) float64 {
	if n <= 1 {
		return total
	}
	return total * (1 - float64(i)/float64(n-1))
}

// ElapsedDays returns how many leading burndown days are on or before now,
// which is how much of Actual is meaningful to plot.
func ElapsedDays(b Burndown, now time.Time) int {
	today := now.Format(dateLayout)
	count := 0
	for _, d := range b.Dates {
		if d > today {
			break
		}
		count++
	}
	return count
}
