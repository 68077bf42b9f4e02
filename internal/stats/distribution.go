package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"sprint-mcp/internal/jira"
)

// StatusOrder is the display order of workflow statuses; others follow alphabetically.
var StatusOrder = []string{
	"To Do",
	"Reopen",
	"Close",
	"In Progress",
	"Dev Done",
	"Test Done",
	"Deployed",
	"Done",
}

// DistributionMetric selects what a status distribution sums.
type DistributionMetric string

const (
	DistributeIssues     DistributionMetric = "issues"
	DistributeEstimate   DistributionMetric = "time"
	DistributeSprintTime DistributionMetric = "sprint_time"
)

// ParseDistributionMetric validates a metric name; "" means issues.
func ParseDistributionMetric(s string) (DistributionMetric, error) {
	switch m := DistributionMetric(s); m {
	case "":
		return DistributeIssues, nil
	case DistributeIssues, DistributeEstimate, DistributeSprintTime:
		return m, nil
	}
	return "", fmt.Errorf("unknown distribution metric %q", s)
}

func (m DistributionMetric) value(issue jira.Issue) float64 {
	switch m {
	case DistributeEstimate:
		return issue.OriginalEstimate
	case DistributeSprintTime:
		return issue.SprintTimeSpent
	default:
		return 1
	}
}

// StatusValue is one bar of a status distribution.
type StatusValue struct {
	Status string  `json:"status"`
	Value  float64 `json:"value"`
}

// StatusDistribution is the sprint broken down by status, overall and per assignee.
type StatusDistribution struct {
	Metric     DistributionMetric       `json:"metric"`
	Statuses   []string                 `json:"statuses"`
	Totals     []StatusValue            `json:"totals"`
	ByAssignee map[string][]StatusValue `json:"by_assignee"`
}

// DistributeByStatus sums metric per status. Statuses follow StatusOrder.
func DistributeByStatus(issues []jira.Issue, metric DistributionMetric) StatusDistribution {
	totals := make(map[string]float64)
	perAssignee := make(map[string]map[string]float64)

	for _, issue := range issues {
		status := SanitizeStatus(issue.Status)
		assignee := issue.Assignee
		if assignee == "" {
			assignee = NoAssignee
		}
		v := metric.value(issue)

		totals[status] += v
		if perAssignee[assignee] == nil {
			perAssignee[assignee] = make(map[string]float64)
		}
		perAssignee[assignee][status] += v
	}

	d := StatusDistribution{
		Metric:     metric,
		Statuses:   OrderStatuses(keys(totals)),
		ByAssignee: make(map[string][]StatusValue, len(perAssignee)),
	}
	for _, s := range d.Statuses {
		d.Totals = append(d.Totals, StatusValue{Status: s, Value: totals[s]})
	}
	for assignee, counts := range perAssignee {
		var row []StatusValue
		for _, s := range d.Statuses {
			if v, ok := counts[s]; ok {
				row = append(row, StatusValue{Status: s, Value: v})
			}
		}
		d.ByAssignee[assignee] = row
	}
	return d
}

// OrderStatuses sorts statuses by StatusOrder, unknown ones last alphabetically.
func OrderStatuses(statuses []string) []string {
	rank := make(map[string]int, len(StatusOrder))
	for i, s := range StatusOrder {
		rank[s] = i
	}
	out := append([]string(nil), statuses...)
	sort.Slice(out, func(i, j int) bool {
		ri, iKnown := rank[out[i]]
		rj, jKnown := rank[out[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// UserTime splits an assignee's sprint hours by kind of work.
type UserTime struct {
	Assignee    string   `json:"assignee"`
	NonDev      float64  `json:"non_dev"`
	Popup       float64  `json:"popup"`
	Development float64  `json:"development"`
	Total       float64  `json:"total"`
	NonDevKeys  []string `json:"non_dev_issues,omitempty"`
	PopupKeys   []string `json:"popup_issues,omitempty"`
	DevKeys     []string `json:"development_issues,omitempty"`
}

// Percent returns the share of v in the user's total, 0 when nothing was logged.
func (u UserTime) Percent(v float64) float64 {
	return SafeDiv(v, u.Total) * 100
}

// TimeByUser classifies sprint time: issues not flagged for the dashboard are
// non-dev, flagged popups are popup, everything else is development.
// Issues without sprint time and the NoAssignee bucket are skipped.
func TimeByUser(issues []jira.Issue) []UserTime {
	byUser := make(map[string]*UserTime)
	for _, issue := range issues {
		if issue.SprintTimeSpent <= 0 {
			continue
		}
		name := issue.Assignee
		if name == "" || name == NoAssignee {
			continue
		}
		u, ok := byUser[name]
		if !ok {
			u = &UserTime{Assignee: name}
			byUser[name] = u
		}

		h := issue.SprintTimeSpent
		switch {
		case issue.ShowInDashboard != jira.DashboardYes:
			u.NonDev += h
			u.NonDevKeys = append(u.NonDevKeys, issue.Key)
		case issue.IsPopup:
			u.Popup += h
			u.PopupKeys = append(u.PopupKeys, issue.Key)
		default:
			u.Development += h
			u.DevKeys = append(u.DevKeys, issue.Key)
		}
		u.Total += h
	}

	out := make([]UserTime, 0, len(byUser))
	for _, u := range byUser {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Assignee < out[j].Assignee
	})
	return out
}

// SprintProgress returns the elapsed share of the sprint as a percentage in [0, 100].
// ok is false when either bound is missing.
func SprintProgress(start, end, now time.Time) (float64, bool) {
	if start.IsZero() || end.IsZero() {
		return 0, false
	}
	if now.Before(start) {
		return 0, true
	}
	if now.After(end) {
		return 100, true
	}
	total := end.Sub(start).Seconds()
	if total <= 0 {
		return 100, true
	}
	return Clamp(now.Sub(start).Seconds()/total*100, 0, 100), true
}

// DaysRemaining counts calendar days from now to end in loc, never negative.
func DaysRemaining(end, now time.Time, loc *time.Location) (int, bool) {
	if end.IsZero() {
		return 0, false
	}
	endDay := SnapToStart(end.In(loc), "day")
	today := SnapToStart(now.In(loc), "day")
	days := int(math.Round(endDay.Sub(today).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days, true
}
