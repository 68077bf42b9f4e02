package visuals

import (
	"fmt"
	"math"
	"strings"

	"sprint-mcp/internal/stats"
)

// maxPoints keeps xychart labels from overlapping.
const maxPoints = 40

func quote(s string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, "\"", "'"))
}

func axisMax(v float64) int {
	if v <= 0 {
		return 1
	}
	return int(math.Ceil(v * 11 / 10))
}

// GenerateBurndownChart creates a Mermaid xychart-beta with the ideal line and
// the actual remaining work up to the elapsed day.
func GenerateBurndownChart(b stats.Burndown, elapsed int) string {
	if len(b.Dates) == 0 {
		return ""
	}
	if elapsed > len(b.Actual) {
		elapsed = len(b.Actual)
	}

	var labels []string
	var ideal []string
	var actual []string
	for i, d := range b.Dates {
		labels = append(labels, quote(d[5:]))
		ideal = append(ideal, fmt.Sprintf("%.1f", b.Ideal[i]))
		if i < elapsed {
			actual = append(actual, fmt.Sprintf("%.1f", b.Actual[i]))
		}
	}

	yLabel := "Open Issues"
	if b.Metric == stats.MetricTime {
		yLabel = "Remaining Hours"
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Sprint Burndown\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", yLabel, axisMax(b.Total)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(ideal, ", ")))
	if len(actual) > 0 {
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(actual, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateHoursByUserChart creates a Mermaid bar chart of logged hours per person.
func GenerateHoursByUserChart(users []stats.UserHours) string {
	if len(users) == 0 {
		return ""
	}
	if len(users) > maxPoints {
		users = users[:maxPoints]
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for _, u := range users {
		labels = append(labels, quote(u.Author))
		values = append(values, fmt.Sprintf("%.2f", u.Hours))
		maxVal = math.Max(maxVal, u.Hours)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Logged Hours by User\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours\" 0 --> %d\n", axisMax(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateDailyHoursChart creates a Mermaid bar chart of the team's hours per day.
func GenerateDailyHoursChart(r stats.WorklogReport) string {
	dates := r.Dates()
	if len(dates) == 0 {
		return ""
	}

	// Subsample long ranges, always keeping the last day
	step := 1
	if len(dates) > maxPoints {
		step = int(math.Ceil(float64(len(dates)) / maxPoints))
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for i, d := range dates {
		if i%step != 0 && i != len(dates)-1 {
			continue
		}
		total := 0.0
		for _, h := range r.DailySummary[d] {
			total += h
		}
		labels = append(labels, quote(d))
		values = append(values, fmt.Sprintf("%.2f", total))
		maxVal = math.Max(maxVal, total)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Team Hours per Day\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours\" 0 --> %d\n", axisMax(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateStatusPie creates a Mermaid pie chart of the status distribution.
func GenerateStatusPie(d stats.StatusDistribution) string {
	total := 0.0
	for _, v := range d.Totals {
		total += v.Value
	}
	if total == 0 {
		return ""
	}

	title := "Issues by Status"
	if d.Metric != stats.DistributeIssues {
		title = "Hours by Status"
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, v := range d.Totals {
		if v.Value <= 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s : %s\n", quote(v.Status), trimFloat(v.Value)))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateTimeByUserChart creates a Mermaid bar chart with development, popup
// and non-dev sprint hours per person, one bar series each.
func GenerateTimeByUserChart(users []stats.UserTime) string {
	if len(users) == 0 {
		return ""
	}
	if len(users) > maxPoints {
		users = users[:maxPoints]
	}

	var labels []string
	var dev, popup, nonDev []string
	maxVal := 0.0
	for _, u := range users {
		labels = append(labels, quote(u.Assignee))
		dev = append(dev, fmt.Sprintf("%.2f", u.Development))
		popup = append(popup, fmt.Sprintf("%.2f", u.Popup))
		nonDev = append(nonDev, fmt.Sprintf("%.2f", u.NonDev))
		maxVal = math.Max(maxVal, math.Max(u.Development, math.Max(u.Popup, u.NonDev)))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Sprint Time by User (Development / Popup / Non-dev)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours\" 0 --> %d\n", axisMax(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(dev, ", ")))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(popup, ", ")))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(nonDev, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePerformanceChart creates a Mermaid bar chart of efficiency scores (0-100).
func GeneratePerformanceChart(perf []stats.AssigneePerformance) string {
	if len(perf) == 0 {
		return ""
	}

	var labels []string
	var values []string
	for i, p := range perf {
		if i == maxPoints {
			break
		}
		labels = append(labels, quote(p.Assignee))
		values = append(values, fmt.Sprintf("%.1f", p.Score))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Efficiency Score\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Score\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
