package stats

import (
	"math"
	"sort"
	"strings"

	"sprint-mcp/internal/jira"
)

// NoAssignee is the placeholder dropped from performance rankings.
const NoAssignee = "Không có"

// PerformanceOptions tunes which statuses count as finished.
type PerformanceOptions struct {
	// IncludeOtherDone also counts Dev Done, Test Done and Deployed as finished.
	IncludeOtherDone bool
}

// DoneStatuses returns the lower-cased statuses treated as finished.
func (o PerformanceOptions) DoneStatuses() []string {
	if o.IncludeOtherDone {
		return []string{"done", "dev done", "test done", "deployed"}
	}
	return []string{"done"}
}

// AssigneePerformance is the scored delivery record of one assignee.
type AssigneePerformance struct {
	Assignee        string  `json:"assignee"`
	TotalIssues     int     `json:"total_issues"`
	DoneIssues      int     `json:"done_issues"`
	Ahead           int     `json:"ahead_of_schedule"`
	OnSchedule      int     `json:"on_schedule"`
	Behind          int     `json:"behind_schedule"`
	EstimateHours   float64 `json:"estimate_hours"`
	SpentHours      float64 `json:"spent_hours"`
	CompletionRate  float64 `json:"completion_rate"`
	TimeEfficiency  float64 `json:"time_efficiency"`
	OnTimeRate      float64 `json:"on_time_rate"`
	AheadRate       float64 `json:"ahead_rate"`
	AvgSpentPerDone float64 `json:"avg_spent_per_done"`
	AvgEstimate     float64 `json:"avg_estimate_per_issue"`
	EstimateShare   float64 `json:"estimate_share"`
	Score           float64 `json:"score"`
}

// CalculatePerformance scores every assignee on a 0..100 scale:
// 30 for completion rate, 30 for estimate/spent efficiency (capped at twice
// as fast), 20 for on-time rate and 20 for their share of the team estimate.
// Results are ordered by score descending.
func CalculatePerformance(issues []jira.Issue, opts PerformanceOptions) []AssigneePerformance {
	done := opts.DoneStatuses()
	byAssignee := make(map[string]*AssigneePerformance)
	var order []string

	for _, issue := range issues {
		name := issue.Assignee
		if strings.TrimSpace(name) == "" {
			name = NoAssignee
		}
		p, ok := byAssignee[name]
		if !ok {
			p = &AssigneePerformance{Assignee: name}
			byAssignee[name] = p
			order = append(order, name)
		}

		p.TotalIssues++
		p.EstimateHours += issue.OriginalEstimate
		p.SpentHours += issue.TimeSpent

		if !matchesAny(issue.Status, done) {
			continue
		}
		p.DoneIssues++
		switch {
		case issue.OriginalEstimate > issue.TimeSpent:
			p.Ahead++
		case issue.OriginalEstimate < issue.TimeSpent:
			p.Behind++
		default:
			p.OnSchedule++
		}
	}
	delete(byAssignee, NoAssignee)

	var teamEstimate float64
	for _, p := range byAssignee {
		teamEstimate += p.EstimateHours
	}

	out := make([]AssigneePerformance, 0, len(byAssignee))
	for _, name := range order {
		p, ok := byAssignee[name]
		if !ok {
			continue
		}
		scorePerformance(p, teamEstimate)
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func scorePerformance(p *AssigneePerformance, teamEstimate float64) {
	total := float64(p.TotalIssues)
	doneCount := float64(p.DoneIssues)

	p.CompletionRate = SafeDiv(doneCount, total)
	p.TimeEfficiency = SafeDiv(p.EstimateHours, p.SpentHours)
	p.OnTimeRate = SafeDiv(float64(p.Ahead+p.OnSchedule), doneCount)
	p.AheadRate = SafeDiv(float64(p.Ahead), doneCount)
	p.AvgSpentPerDone = SafeDiv(p.SpentHours, doneCount)
	p.AvgEstimate = SafeDiv(p.EstimateHours, total)
	p.EstimateShare = SafeDiv(p.EstimateHours, teamEstimate)

	var workload float64
	if p.DoneIssues > 0 {
		workload = math.Min(10, p.EstimateShare*10)
	}

	p.Score = p.CompletionRate*30 +
		math.Min(1, math.Min(2, p.TimeEfficiency)/2)*30 +
		p.OnTimeRate*20 +
		math.Min(1, workload/10)*20
}
