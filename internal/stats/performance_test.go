package stats

import (
	"math"
	"testing"

	"sprint-mcp/internal/jira"
)

func TestCalculatePerformance_Scoring(t *testing.T) {
	issues := []jira.Issue{
		{Assignee: "A", Status: "Done", OriginalEstimate: 10, TimeSpent: 5},
		{Assignee: "A", Status: "Done", OriginalEstimate: 10, TimeSpent: 5},
		{Assignee: "A", Status: "In Progress", OriginalEstimate: 10, TimeSpent: 5},
		{Assignee: "A", Status: "To Do", OriginalEstimate: 10, TimeSpent: 5},
	}

	got := CalculatePerformance(issues, PerformanceOptions{})
	if len(got) != 1 {
		t.Fatalf("expected one assignee, got %d", len(got))
	}
	p := got[0]

	if p.EstimateHours != 40 || p.SpentHours != 20 {
		t.Errorf("hours = %v/%v, want 40/20", p.EstimateHours, p.SpentHours)
	}
	if p.CompletionRate*30 != 15 {
		t.Errorf("completion contributes %v, want 15", p.CompletionRate*30)
	}
	if eff := math.Min(1, math.Min(2, p.TimeEfficiency)/2) * 30; eff != 30 {
		t.Errorf("time efficiency contributes %v, want 30", eff)
	}
	if p.OnTimeRate != 1 || p.Ahead != 2 {
		t.Errorf("on-time = %v ahead = %d", p.OnTimeRate, p.Ahead)
	}
	// sole assignee holds the whole team estimate
	if p.Score != 85 {
		t.Errorf("Score = %v, want 85", p.Score)
	}
	if p.AvgSpentPerDone != 10 {
		t.Errorf("AvgSpentPerDone = %v, want 10", p.AvgSpentPerDone)
	}
}

func TestCalculatePerformance_DoneStatuses(t *testing.T) {
	issues := []jira.Issue{
		{Assignee: "A", Status: "Dev Done", OriginalEstimate: 4, TimeSpent: 4},
		{Assignee: "A", Status: "deployed", OriginalEstimate: 2, TimeSpent: 3},
	}

	strict := CalculatePerformance(issues, PerformanceOptions{})[0]
	if strict.DoneIssues != 0 {
		t.Errorf("only Done counts by default, got %d", strict.DoneIssues)
	}

	loose := CalculatePerformance(issues, PerformanceOptions{IncludeOtherDone: true})[0]
	if loose.DoneIssues != 2 || loose.OnSchedule != 1 || loose.Behind != 1 {
		t.Errorf("loose = %+v", loose)
	}
}

func TestCalculatePerformance_DropsUnassigned(t *testing.T) {
	issues := []jira.Issue{
		{Assignee: "", Status: "Done", OriginalEstimate: 100},
		{Assignee: NoAssignee, Status: "Done"},
		{Assignee: "B", Status: "Done", OriginalEstimate: 1, TimeSpent: 1},
		{Assignee: "C", Status: "To Do", OriginalEstimate: 3},
	}
	got := CalculatePerformance(issues, PerformanceOptions{})
	if len(got) != 2 {
		t.Fatalf("expected B and C, got %+v", got)
	}
	if got[0].Assignee != "B" {
		t.Errorf("B should rank first, got %s", got[0].Assignee)
	}
	// the unassigned estimate is not part of the team total
	if got[0].EstimateShare != 0.25 {
		t.Errorf("B estimate share = %v, want 0.25", got[0].EstimateShare)
	}
}

func TestCalculatePerformance_ScoreBounds(t *testing.T) {
	statuses := []string{"Done", "To Do", "Dev Done", "In Progress"}
	var issues []jira.Issue
	for i := 0; i < 200; i++ {
		issues = append(issues, jira.Issue{
			Assignee:         string(rune('A' + i%7)),
			Status:           statuses[i%len(statuses)],
			OriginalEstimate: float64((i * 13) % 17),
			TimeSpent:        float64((i * 7) % 11),
		})
	}

	for _, opts := range []PerformanceOptions{{}, {IncludeOtherDone: true}} {
		for _, p := range CalculatePerformance(issues, opts) {
			if p.Score < 0 || p.Score > 100 || math.IsNaN(p.Score) {
				t.Errorf("%s score %v out of bounds", p.Assignee, p.Score)
			}
		}
	}
}

func TestCalculatePerformance_ZeroDivisors(t *testing.T) {
	tests := []struct {
		name  string
		issue jira.Issue
	}{
		{"NoTime", jira.Issue{Assignee: "A", Status: "To Do"}},
		{"EstimateWithoutSpent", jira.Issue{Assignee: "A", Status: "In Progress", OriginalEstimate: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculatePerformance([]jira.Issue{tt.issue}, PerformanceOptions{})[0]
			if p.TimeEfficiency != 0 {
				t.Errorf("TimeEfficiency = %v, want 0", p.TimeEfficiency)
			}
			if p.Score != 0 {
				t.Errorf("Score = %v, want 0", p.Score)
			}
		})
	}
}
